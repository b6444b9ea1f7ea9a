// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package calendar

import (
	"testing"
	"time"

	"postcraft/internal/models"
)

func at(t time.Time) *time.Time { return &t }

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2026-10")
	if err != nil {
		t.Fatalf("ParseMonth: %v", err)
	}
	if m.Year != 2026 || m.Month != time.October {
		t.Errorf("ParseMonth = %+v", m)
	}
	if m.String() != "2026-10" || m.Title() != "October 2026" {
		t.Errorf("String/Title = %s / %s", m.String(), m.Title())
	}
	for _, bad := range []string{"", "2026-13", "10-2026", "2026/10"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Errorf("ParseMonth(%q) should fail", bad)
		}
	}
}

func TestShift(t *testing.T) {
	m := Month{Year: 2026, Month: time.December}
	if got := m.Shift(1); got != (Month{2027, time.January}) {
		t.Errorf("Shift(1) = %v", got)
	}
	if got := m.Shift(-12); got != (Month{2025, time.December}) {
		t.Errorf("Shift(-12) = %v", got)
	}
}

func TestBuildGridBounds(t *testing.T) {
	// October 2026 starts on a Thursday and ends on a Saturday.
	now := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	g := Build(Month{2026, time.October}, nil, now, time.UTC)

	if len(g.Weeks) != 5 {
		t.Fatalf("weeks = %d, want 5", len(g.Weeks))
	}
	first := g.Weeks[0][0]
	if first.Date != "2026-09-27" || first.InMonth {
		t.Errorf("first cell = %+v", first)
	}
	last := g.Weeks[4][6]
	if last.Date != "2026-10-31" || !last.InMonth {
		t.Errorf("last cell = %+v", last)
	}
	for _, w := range g.Weeks {
		if len(w) != 7 {
			t.Fatalf("week has %d days", len(w))
		}
	}

	var todays int
	for _, w := range g.Weeks {
		for _, c := range w {
			if c.Today {
				todays++
				if c.Date != "2026-10-18" {
					t.Errorf("today flagged on %s", c.Date)
				}
			}
		}
	}
	if todays != 1 {
		t.Errorf("today flagged %d times", todays)
	}
	if g.Title != "October 2026" || g.Previous != "2026-09" || g.Next != "2026-11" {
		t.Errorf("header = %s %s %s", g.Title, g.Previous, g.Next)
	}
}

func TestBuildTrailingDays(t *testing.T) {
	// February 2026 starts on a Sunday and ends on a Saturday: exactly 4 weeks.
	g := Build(Month{2026, time.February}, nil, time.Now(), time.UTC)
	if len(g.Weeks) != 4 {
		t.Errorf("weeks = %d, want 4", len(g.Weeks))
	}
	if g.Weeks[0][0].Date != "2026-02-01" {
		t.Errorf("first = %s", g.Weeks[0][0].Date)
	}
}

func TestBuildBucketsByLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	posts := []models.SavedPost{
		{ID: "a", ScheduledFor: at(time.Date(2026, 10, 20, 2, 0, 0, 0, time.UTC))}, // Oct 19 local
		{ID: "b", ScheduledFor: at(time.Date(2026, 10, 20, 18, 0, 0, 0, time.UTC))},
		{ID: "c"}, // draft
	}
	g := Build(Month{2026, time.October}, posts, time.Now(), loc)

	found := map[string]string{}
	for _, w := range g.Weeks {
		for _, c := range w {
			for _, p := range c.Posts {
				found[p.ID] = c.Date
			}
		}
	}
	if found["a"] != "2026-10-19" {
		t.Errorf("post a on %s", found["a"])
	}
	if found["b"] != "2026-10-20" {
		t.Errorf("post b on %s", found["b"])
	}
	if _, ok := found["c"]; ok {
		t.Error("draft should not appear on the calendar")
	}
}
