// Package schedule validates and normalizes task frequencies.
//
// StewardX accepts either the literal "Hook" (run only when triggered) or a
// six-field cron expression with a leading seconds field, sent on the wire as
// "Every(<expr>)".
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/adamancini/stewardctl/internal/failure"
)

// Hook is the frequency of tasks that only run when executed explicitly.
const Hook = "Hook"

const (
	everyPrefix = "Every("
	everySuffix = ")"
	fieldCount  = 6
)

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseFrequency validates s and returns its wire form. "Hook" is returned
// as is; anything else must be a six-field cron expression, optionally
// already wrapped in Every(...).
func ParseFrequency(s string) (string, error) {
	if s == Hook {
		return s, nil
	}

	expr := Unwrap(s)
	if len(strings.Split(expr, " ")) != fieldCount {
		return "", failure.New(failure.KindInvalidInput, fmt.Sprintf("invalid cron string %q", expr), nil).
			WithGuidance("StewardX's cron frequency needs to take 6 crontime inputs, like * * * * * *")
	}
	if _, err := parser.Parse(expr); err != nil {
		return "", failure.New(failure.KindInvalidInput, fmt.Sprintf("invalid cron string %q", expr), err).
			WithGuidance("Please enter a valid cron string")
	}

	return everyPrefix + expr + everySuffix, nil
}

// Unwrap strips an Every(...) wrapper. Other strings are returned unchanged.
func Unwrap(s string) string {
	if !strings.HasPrefix(s, everyPrefix) {
		return s
	}
	return strings.TrimSuffix(strings.TrimPrefix(s, everyPrefix), everySuffix)
}

// Next returns the next n fire times of a frequency after from. Hook
// frequencies never fire on their own and yield nil.
func Next(frequency string, from time.Time, n int) ([]time.Time, error) {
	if frequency == Hook || n <= 0 {
		return nil, nil
	}

	sched, err := parser.Parse(Unwrap(frequency))
	if err != nil {
		return nil, failure.New(failure.KindInvalidInput, fmt.Sprintf("invalid cron string %q", frequency), err)
	}

	times := make([]time.Time, 0, n)
	t := from
	for i := 0; i < n; i++ {
		t = sched.Next(t)
		if t.IsZero() {
			break
		}
		times = append(times, t)
	}
	return times, nil
}
