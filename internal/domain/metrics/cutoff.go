package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	lastHour       = 23
	endOfDayCutoff = "24:00:00"
)

// AlignmentCutoff bounds how much of a date counts towards a comparison.
// For dates other than today it covers the full day.
type AlignmentCutoff struct {
	IsToday         bool   `json:"isToday"`
	CutoffHour      int    `json:"cutoffHour"`
	CutoffTimeOfDay string `json:"cutoffTimeOfDay"`
}

// FullDay is the cutoff for any date that is not today.
func FullDay() AlignmentCutoff {
	return AlignmentCutoff{CutoffHour: lastHour, CutoffTimeOfDay: endOfDayCutoff}
}

// Truncates reports whether the cutoff excludes part of its day.
func (c AlignmentCutoff) Truncates() bool {
	return c.CutoffHour < lastHour || c.CutoffTimeOfDay != endOfDayCutoff
}

// CutoffFor resolves the cutoff of d given the current instant, evaluated
// in the business location.
func CutoffFor(d CalendarDate, now time.Time, loc *time.Location) AlignmentCutoff {
	local := now.In(loc)
	if DateOf(local, loc) != d {
		return FullDay()
	}
	return AlignmentCutoff{
		IsToday:         true,
		CutoffHour:      local.Hour(),
		CutoffTimeOfDay: local.Format("15:04:05"),
	}
}

// BoundedDate pairs a date with the cutoff applied to it. Dates of a window
// other than Date are counted in full.
type BoundedDate struct {
	Date   CalendarDate
	Cutoff AlignmentCutoff
}

// Alignment is the cutoff placement for a current/previous window pair.
// A nil side means that window is counted in full.
type Alignment struct {
	Current  *BoundedDate
	Previous *BoundedDate
}

// ResolveAlignment places hour-alignment cutoffs on a window pair.
//
// Only "today" can be partial in the current window. When the current
// window contains today, the positional counterpart in the previous window
// (its last date) is truncated too: the hour-bucket cutoff steps back one
// hour (floored at 0) while the timestamp cutoff keeps the same wall-clock
// time. The two forms are intentionally not equivalent.
func ResolveAlignment(current, previous TimeWindow, now time.Time, loc *time.Location) Alignment {
	today := DateOf(now, loc)
	if !current.Contains(today) {
		return Alignment{}
	}
	cur := CutoffFor(today, now, loc)
	prevDate := ShiftDays(previous.End, -DaysInclusive(today, current.End)+1)
	return Alignment{
		Current: &BoundedDate{Date: today, Cutoff: cur},
		Previous: &BoundedDate{
			Date: prevDate,
			Cutoff: AlignmentCutoff{
				CutoffHour:      max(0, cur.CutoffHour-1),
				CutoffTimeOfDay: cur.CutoffTimeOfDay,
			},
		},
	}
}

// ParseUTCOffset builds a fixed-offset location from "+05:30" style input.
// No timezone database is consulted.
func ParseUTCOffset(raw string) (*time.Location, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 6 || (raw[0] != '+' && raw[0] != '-') || raw[3] != ':' {
		return nil, fmt.Errorf("%w: utc offset %q must look like +05:30", ErrInvalidOption, raw)
	}
	hours, err := strconv.Atoi(raw[1:3])
	if err != nil || hours > 14 {
		return nil, fmt.Errorf("%w: utc offset %q has bad hours", ErrInvalidOption, raw)
	}
	minutes, err := strconv.Atoi(raw[4:6])
	if err != nil || minutes > 59 {
		return nil, fmt.Errorf("%w: utc offset %q has bad minutes", ErrInvalidOption, raw)
	}
	secs := hours*3600 + minutes*60
	if raw[0] == '-' {
		secs = -secs
	}
	return time.FixedZone("UTC"+raw, secs), nil
}

// BusinessClock supplies "now" in the business offset.
type BusinessClock struct {
	Location *time.Location
	Now      func() time.Time
}

// NewBusinessClock returns a wall clock pinned to loc.
func NewBusinessClock(loc *time.Location) BusinessClock {
	return BusinessClock{Location: loc, Now: time.Now}
}

// Today returns the current business date.
func (c BusinessClock) Today() CalendarDate {
	return DateOf(c.Now(), c.Location)
}
