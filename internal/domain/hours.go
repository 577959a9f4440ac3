package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday is the lowercase english day key used in businessHours.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists the day keys in display order.
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var byTimeWeekday = [7]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// WeekdayOf maps a time to its day key using the time's own location.
func WeekdayOf(t time.Time) Weekday {
	return byTimeWeekday[t.Weekday()]
}

// DayHours is the opening window for one day.
type DayHours struct {
	Open  bool   `json:"open"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// Window returns the opening window in minutes since midnight. ok is false
// when the day is closed or either bound is malformed.
func (d DayHours) Window() (start, end int, ok bool) {
	if !d.Open {
		return 0, 0, false
	}
	start, err := ParseClock(d.Start)
	if err != nil {
		return 0, 0, false
	}
	end, err = ParseClock(d.End)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// Hours maps each weekday to its opening window.
type Hours map[Weekday]DayHours

// Complete returns a copy with every weekday present; missing days are closed.
func (h Hours) Complete() Hours {
	out := make(Hours, len(Weekdays))
	for _, day := range Weekdays {
		out[day] = h[day]
	}
	for key, value := range h {
		if _, ok := out[key]; !ok {
			if day, ok := ParseWeekday(string(key)); ok {
				if _, exact := h[day]; !exact {
					out[day] = value
				}
			}
		}
	}
	return out
}

// Day returns the entry for the given day and whether the key exists.
func (h Hours) Day(day Weekday) (DayHours, bool) {
	if h == nil {
		return DayHours{}, false
	}
	entry, ok := h[day]
	return entry, ok
}

// AnyOpen reports whether at least one day is marked open.
func (h Hours) AnyOpen() bool {
	for _, entry := range h {
		if entry.Open {
			return true
		}
	}
	return false
}

// ParseWeekday normalises a day key such as "Monday" or " MONDAY ".
func ParseWeekday(value string) (Weekday, bool) {
	key := Weekday(strings.ToLower(strings.TrimSpace(value)))
	for _, day := range Weekdays {
		if day == key {
			return day, true
		}
	}
	return "", false
}

// ParseClock parses an "HH:MM" string into minutes since midnight. "24:00"
// is accepted as the end of the day.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	hh, mm, found := strings.Cut(value, ":")
	if !found {
		return 0, fmt.Errorf("domain: invalid clock %q", value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("domain: invalid clock %q", value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 {
		return 0, fmt.Errorf("domain: invalid clock %q", value)
	}
	if hour < 0 || hour > 24 || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("domain: clock out of range %q", value)
	}
	return hour*60 + minute, nil
}

// MinutesSinceMidnight returns the time-of-day of t in its own location.
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
