// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package calendar lays saved posts out on a month grid. Weeks run Sunday
// to Saturday and posts are bucketed by the local date of their schedule.
package calendar

import (
	"fmt"
	"time"

	"postcraft/internal/models"
)

// DateLayout is the key format of a calendar day.
const DateLayout = "2006-01-02"

// Weekdays are the column headers of the grid.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: want YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Title formats the month as "October 2026".
func (m Month) Title() string {
	return fmt.Sprintf("%s %d", m.Month, m.Year)
}

// Shift returns the month n months away.
func (m Month) Shift(n int) Month {
	return MonthOf(time.Date(m.Year, m.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

// Cell is one day of the grid.
type Cell struct {
	Date    string             `json:"date"`
	Day     int                `json:"day"`
	InMonth bool               `json:"inMonth"`
	Today   bool               `json:"today"`
	Posts   []models.SavedPost `json:"posts"`
}

// Grid is a month view.
type Grid struct {
	Month    string   `json:"month"`
	Title    string   `json:"title"`
	Previous string   `json:"previous"`
	Next     string   `json:"next"`
	Weekdays []string `json:"weekdays"`
	Weeks    [][]Cell `json:"weeks"`
}

// Build lays out month m from the Sunday on or before its first day to the
// Saturday on or after its last. Posts without a schedule are left out.
func Build(m Month, posts []models.SavedPost, now time.Time, loc *time.Location) Grid {
	if loc == nil {
		loc = time.Local
	}

	byDate := make(map[string][]models.SavedPost)
	for _, p := range posts {
		if p.IsDraft() {
			continue
		}
		key := p.ScheduledFor.In(loc).Format(DateLayout)
		byDate[key] = append(byDate[key], p)
	}

	first := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, 6-int(last.Weekday()))
	today := now.In(loc).Format(DateLayout)

	g := Grid{
		Month:    m.String(),
		Title:    m.Title(),
		Previous: m.Shift(-1).String(),
		Next:     m.Shift(1).String(),
		Weekdays: Weekdays,
	}

	var week []Cell
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(DateLayout)
		dayPosts := byDate[key]
		if dayPosts == nil {
			dayPosts = []models.SavedPost{}
		}
		week = append(week, Cell{
			Date:    key,
			Day:     day.Day(),
			InMonth: day.Month() == m.Month,
			Today:   key == today,
			Posts:   dayPosts,
		})
		if len(week) == 7 {
			g.Weeks = append(g.Weeks, week)
			week = nil
		}
	}
	return g
}
