package render

import (
	"fmt"
	"time"

	"varanasihub.com/site/internal/domain"
)

// IsOpenNow reports whether now's weekday entry is open and now's
// time-of-day lies within [start, end] inclusive. now is read in its own
// location, which is the viewer's clock.
func IsOpenNow(hours domain.Hours, now time.Time) bool {
	entry, ok := hours.Day(domain.WeekdayOf(now))
	if !ok {
		return false
	}
	start, end, ok := entry.Window()
	if !ok {
		return false
	}
	minutes := domain.MinutesSinceMidnight(now)
	return minutes >= start && minutes <= end
}

// DayRow is one line of the business hours table.
type DayRow struct {
	Day     domain.Weekday
	Label   string
	Open    bool
	Summary string
	Today   bool
}

// HoursTable lists all seven days in display order.
func HoursTable(hours domain.Hours, now time.Time) []DayRow {
	today := domain.WeekdayOf(now)
	rows := make([]DayRow, 0, len(domain.Weekdays))
	for _, day := range domain.Weekdays {
		entry, _ := hours.Day(day)
		rows = append(rows, DayRow{
			Day:     day,
			Label:   titleLabel(string(day)),
			Open:    entry.Open,
			Summary: daySummary(entry),
			Today:   day == today,
		})
	}
	return rows
}

// TodaySummary returns the hours snippet for now's weekday.
func TodaySummary(hours domain.Hours, now time.Time) string {
	entry, _ := hours.Day(domain.WeekdayOf(now))
	return daySummary(entry)
}

func daySummary(entry domain.DayHours) string {
	if !entry.Open {
		return "Closed"
	}
	start, end, ok := entry.Window()
	if !ok {
		return "Closed"
	}
	return fmt.Sprintf("%s - %s", clock12(start), clock12(end))
}

func clock12(minutes int) string {
	h, m := minutes/60, minutes%60
	suffix := "AM"
	if h >= 12 && h < 24 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}
