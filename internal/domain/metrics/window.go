package metrics

import "fmt"

const day = 24 * 60 * 60

// TimeWindow is an inclusive range of calendar dates.
type TimeWindow struct {
	Start CalendarDate `json:"start"`
	End   CalendarDate `json:"end"`
}

// NewTimeWindow builds a window, requiring start <= end.
func NewTimeWindow(start, end CalendarDate) (TimeWindow, error) {
	if start.Time().After(end.Time()) {
		return TimeWindow{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidWindow, start, end)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Days returns the inclusive day count of the window.
func (w TimeWindow) Days() int {
	return DaysInclusive(w.Start, w.End)
}

// Contains reports whether d falls inside the window.
func (w TimeWindow) Contains(d CalendarDate) bool {
	t := d.Time()
	return !t.Before(w.Start.Time()) && !t.After(w.End.Time())
}

// SingleDay reports whether the window covers exactly one date.
func (w TimeWindow) SingleDay() bool {
	return w.Start == w.End
}

// Dates enumerates every date in the window in ascending order.
func (w TimeWindow) Dates() []CalendarDate {
	n := w.Days()
	if n <= 0 {
		return nil
	}
	dates := make([]CalendarDate, 0, n)
	for i := 0; i < n; i++ {
		dates = append(dates, ShiftDays(w.Start, i))
	}
	return dates
}

func (w TimeWindow) String() string {
	return string(w.Start) + ".." + string(w.End)
}

// DaysInclusive counts the days from start to end, both included.
func DaysInclusive(start, end CalendarDate) int {
	secs := end.Time().Unix() - start.Time().Unix()
	return int(secs/day) + 1
}

// ShiftDays moves d by n calendar days (negative n moves backwards).
func ShiftDays(d CalendarDate, n int) CalendarDate {
	return CalendarDate(d.Time().AddDate(0, 0, n).Format(dateLayout))
}

// PreviousWindow returns the equal-length window ending the day before w.Start.
func PreviousWindow(w TimeWindow) TimeWindow {
	prevEnd := ShiftDays(w.Start, -1)
	prevStart := ShiftDays(prevEnd, -(w.Days() - 1))
	return TimeWindow{Start: prevStart, End: prevEnd}
}
