// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"encoding/json"
	"fmt"
)

// Step is a discrete state of the content workflow.
type Step int

const (
	// StepUninitialized is the pre-state while persisted data loads.
	StepUninitialized Step = iota
	StepProvideContext
	StepSelectPlatform
	StepEnterTopic
	StepGenerating
	StepShowResults
	StepShowSaved
	StepShowCalendar
	StepEditBrandContext
)

var stepNames = map[Step]string{
	StepUninitialized:    "UNINITIALIZED",
	StepProvideContext:   "PROVIDE_CONTEXT",
	StepSelectPlatform:   "SELECT_PLATFORM",
	StepEnterTopic:       "ENTER_TOPIC",
	StepGenerating:       "GENERATING",
	StepShowResults:      "SHOW_RESULTS",
	StepShowSaved:        "SHOW_SAVED",
	StepShowCalendar:     "SHOW_CALENDAR",
	StepEditBrandContext: "EDIT_BRAND_CONTEXT",
}

// String returns the step's wire name.
func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// ParseStep converts a wire name into a Step.
func ParseStep(name string) (Step, error) {
	for s, n := range stepNames {
		if n == name {
			return s, nil
		}
	}
	return StepUninitialized, fmt.Errorf("unknown step %q", name)
}

// IsAuxiliary reports whether s is one of the views reachable from anywhere
// (saved posts, calendar, brand editor) that return via Back.
func (s Step) IsAuxiliary() bool {
	return s == StepShowSaved || s == StepShowCalendar || s == StepEditBrandContext
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	parsed, err := ParseStep(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
