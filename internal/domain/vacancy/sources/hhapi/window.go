package hhapi

import (
	"time"

	"github.com/honeycarbs/vacancy-crawler/internal/domain"
)

// Window is a search period of DurationDays calendar days ending OffsetDays
// before the adapter's default end date. Sub-windows skip the result limit
// check.
type Window struct {
	DurationDays int
	OffsetDays   int
	Subwindow    bool
}

// Range returns the inclusive calendar dates covered by w:
// [today-offset-defaultOffset-duration+1, today-offset-defaultOffset]
func (w Window) Range(today time.Time, defaultOffset int) (from, to time.Time) {
	to = domain.Date(today).AddDate(0, 0, -(w.OffsetDays + defaultOffset))
	from = to.AddDate(0, 0, -(w.DurationDays - 1))
	return from, to
}

// Split covers a period of periodDays with ceil(periodDays/minDays) sub-windows
// of minDays each, newest first. The last one may reach past the period start.
func Split(periodDays, minDays int) []Window {
	if minDays < 1 {
		minDays = 1
	}

	n := periodDays / minDays
	if periodDays%minDays != 0 {
		n++
	}

	windows := make([]Window, 0, n)
	for i := 0; i < n; i++ {
		windows = append(windows, Window{
			DurationDays: minDays,
			OffsetDays:   i * minDays,
			Subwindow:    true,
		})
	}
	return windows
}
