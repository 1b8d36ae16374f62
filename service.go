package combine

import (
	"fmt"
	"time"

	"tidbyt.dev/combine/model"
)

// The service ID of the single synthetic service in combined output.
const ServiceID = "1"

// Parses a YYYYMMDD service date.
func ParseServiceDate(date int) (time.Time, error) {
	t, err := time.ParseInLocation("20060102", fmt.Sprintf("%08d", date), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid service date %d: %w", date, err)
	}
	return t, nil
}

// Formats t as a YYYYMMDD integer.
func DateInt(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// Computes the set of service IDs active on date, which falls on
// weekday. A service runs if its calendar covers the date and has the
// weekday flag set, or if it is added by an exception for the date.
// Removal exceptions for the date take precedence over both.
func ActiveServices(
	calendars []model.Calendar,
	calendarDates []model.CalendarDate,
	weekday time.Weekday,
	date int,
) map[string]bool {

	active := map[string]bool{}
	for i := range calendars {
		c := &calendars[i]
		if c.StartDate <= date && date <= c.EndDate && c.Runs(weekday) {
			active[c.ServiceID] = true
		}
	}

	removed := map[string]bool{}
	for _, cd := range calendarDates {
		if cd.Date != date {
			continue
		}
		switch cd.ExceptionType {
		case model.ExceptionTypeAdded:
			active[cd.ServiceID] = true
		case model.ExceptionTypeRemoved:
			removed[cd.ServiceID] = true
		}
	}

	for serviceID := range removed {
		delete(active, serviceID)
	}

	return active
}

// The calendar record of the combined feed. It runs on date's weekday
// only, and is valid from the day before date to the day after.
func ServiceCalendar(date time.Time) model.Calendar {
	c := model.Calendar{
		ServiceID: ServiceID,
		StartDate: DateInt(date.AddDate(0, 0, -1)),
		EndDate:   DateInt(date.AddDate(0, 0, 1)),
	}
	c.SetRuns(date.Weekday(), true)
	return c
}
