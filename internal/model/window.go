package model

import "time"

// Window is a half-open time interval [Start, End) over which ranking is
// computed, typically one calendar month.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthWindow returns the calendar month containing ref, shifted by offset
// months (0 = the month of ref, -1 = the month before, ...). time.Date
// normalizes out-of-range months, so year rollover is handled for free.
func MonthWindow(ref time.Time, offset int) Window {
	start := time.Date(ref.Year(), ref.Month()+time.Month(offset), 1, 0, 0, 0, 0, ref.Location())
	end := start.AddDate(0, 1, 0)
	return Window{Start: start, End: end}
}

// CurrentMonth is the window for the month containing now.
func CurrentMonth(now time.Time) Window {
	return MonthWindow(now, 0)
}

// Previous returns the window for the calendar month before this one.
// Only meaningful for month-aligned windows.
func (w Window) Previous() Window {
	return MonthWindow(w.Start, -1)
}

// Contains reports whether a Unix-seconds timestamp falls inside the window.
// Start is inclusive, End is exclusive.
func (w Window) Contains(tsSec int64) bool {
	return tsSec >= w.Start.Unix() && tsSec < w.End.Unix()
}
