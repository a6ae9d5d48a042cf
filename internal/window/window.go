// Package window works out which slice of time a digest run covers.
package window

import (
	"errors"
	"fmt"
	"slices"
	"time"
	_ "time/tzdata" // zone database for minimal container images
)

var (
	ErrInvalidTimeZone = errors.New("invalid time zone")
	ErrWindowUnderflow = errors.New("not enough report hours before now to open a window")
)

// Window is the reporting interval of a single run.
type Window struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
}

// Admits reports whether something published at t falls inside the window.
func (w Window) Admits(t time.Time) bool {
	return t.After(w.Start)
}

// LoadLocation resolves a zone name, wrapping failures in ErrInvalidTimeZone.
func LoadLocation(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimeZone, tz, err)
	}
	return loc, nil
}

// Resolve computes the window for a run at now. The start is one report slot
// before the latest elapsed one, so a late run still covers a full cycle.
func Resolve(now time.Time, tz string, reportHours []int) (Window, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return Window{}, err
	}

	local := now.In(loc)
	candidates := candidates(local, reportHours, -1, 0)

	latest := -1
	for i, c := range candidates {
		if c.Before(local) {
			latest = i
		}
	}
	if latest < 1 {
		return Window{}, fmt.Errorf("%w: hours=%v at %s", ErrWindowUnderflow, reportHours, local.Format(time.RFC3339))
	}

	return Window{
		Start:    candidates[latest-1],
		End:      local,
		Location: loc,
	}, nil
}

// Next returns the first report instant strictly after now.
func Next(now time.Time, tz string, reportHours []int) (time.Time, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	if len(reportHours) == 0 {
		return time.Time{}, fmt.Errorf("%w: no report hours", ErrWindowUnderflow)
	}

	local := now.In(loc)
	for _, c := range candidates(local, reportHours, 0, 1) {
		if c.After(local) {
			return c, nil
		}
	}
	// unreachable with at least one hour: tomorrow always has a candidate
	return time.Time{}, fmt.Errorf("%w: no upcoming report hour", ErrWindowUnderflow)
}

// candidates lists every report hour on each day in [fromDay, toDay] relative
// to local, sorted ascending without repeats.
func candidates(local time.Time, reportHours []int, fromDay, toDay int) []time.Time {
	y, m, d := local.Date()
	out := make([]time.Time, 0, len(reportHours)*(toDay-fromDay+1))
	for day := fromDay; day <= toDay; day++ {
		for _, h := range reportHours {
			out = append(out, time.Date(y, m, d+day, h, 0, 0, 0, local.Location()))
		}
	}
	slices.SortStableFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}
