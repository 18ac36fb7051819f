package model

import (
	"testing"
	"time"
)

func TestMonthWindow(t *testing.T) {
	ref := time.Date(2025, time.March, 17, 14, 30, 0, 0, time.UTC)

	w := MonthWindow(ref, 0)
	if !w.Start.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v, want March 1st", w.Start)
	}
	if !w.End.Equal(time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("End = %v, want April 1st", w.End)
	}
}

func TestMonthWindow_YearRollover(t *testing.T) {
	ref := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)

	w := MonthWindow(ref, -1)
	if !w.Start.Equal(time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Start = %v, want December 2024", w.Start)
	}
	if !w.End.Equal(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("End = %v, want January 2025", w.End)
	}
}

func TestWindowPrevious(t *testing.T) {
	w := MonthWindow(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), 0)
	prev := w.Previous()
	if prev.Start.Month() != time.February || prev.Start.Year() != 2025 {
		t.Errorf("Previous().Start = %v, want February 2025", prev.Start)
	}
}

func TestWindowContains(t *testing.T) {
	w := MonthWindow(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), 0)

	tests := []struct {
		name string
		ts   int64
		want bool
	}{
		{"start is inclusive", w.Start.Unix(), true},
		{"end is exclusive", w.End.Unix(), false},
		{"mid-month", w.Start.Unix() + 15*24*3600, true},
		{"before start", w.Start.Unix() - 1, false},
		{"just inside end", w.End.Unix() - 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.ts); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}
