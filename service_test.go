package combine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/combine/model"
)

func TestActiveServices(t *testing.T) {
	weekdays := model.Calendar{ServiceID: "weekdays", Monday: 1, Tuesday: 1, Wednesday: 1, Thursday: 1, Friday: 1, StartDate: 20240101, EndDate: 20241231}
	weekends := model.Calendar{ServiceID: "weekends", Saturday: 1, Sunday: 1, StartDate: 20240101, EndDate: 20241231}
	expired := model.Calendar{ServiceID: "expired", Wednesday: 1, StartDate: 20230101, EndDate: 20231231}
	boundary := model.Calendar{ServiceID: "boundary", Wednesday: 1, StartDate: 20240313, EndDate: 20240313}

	for _, tc := range []struct {
		name          string
		calendars     []model.Calendar
		calendarDates []model.CalendarDate
		active        []string
	}{
		{
			"regular",
			[]model.Calendar{weekdays, weekends, expired},
			nil,
			[]string{"weekdays"},
		},
		{
			"inclusive window",
			[]model.Calendar{boundary},
			nil,
			[]string{"boundary"},
		},
		{
			"added",
			[]model.Calendar{weekdays, weekends},
			[]model.CalendarDate{{ServiceID: "weekends", Date: 20240313, ExceptionType: model.ExceptionTypeAdded}},
			[]string{"weekdays", "weekends"},
		},
		{
			"removed",
			[]model.Calendar{weekdays, weekends},
			[]model.CalendarDate{{ServiceID: "weekdays", Date: 20240313, ExceptionType: model.ExceptionTypeRemoved}},
			[]string{},
		},
		{
			"exceptions on other dates ignored",
			[]model.Calendar{weekdays},
			[]model.CalendarDate{
				{ServiceID: "weekdays", Date: 20240314, ExceptionType: model.ExceptionTypeRemoved},
				{ServiceID: "special", Date: 20240312, ExceptionType: model.ExceptionTypeAdded},
			},
			[]string{"weekdays"},
		},
		{
			"calendar_dates only",
			nil,
			[]model.CalendarDate{
				{ServiceID: "special", Date: 20240313, ExceptionType: model.ExceptionTypeAdded},
				{ServiceID: "other", Date: 20240313, ExceptionType: model.ExceptionTypeRemoved},
			},
			[]string{"special"},
		},
		{
			"removal beats addition",
			nil,
			[]model.CalendarDate{
				{ServiceID: "special", Date: 20240313, ExceptionType: model.ExceptionTypeRemoved},
				{ServiceID: "special", Date: 20240313, ExceptionType: model.ExceptionTypeAdded},
			},
			[]string{},
		},
		{
			"nothing",
			nil,
			nil,
			[]string{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			expected := map[string]bool{}
			for _, s := range tc.active {
				expected[s] = true
			}

			active := ActiveServices(tc.calendars, tc.calendarDates, time.Wednesday, 20240313)
			assert.Equal(t, expected, active)

			// Row order doesn't matter
			calendars := make([]model.Calendar, len(tc.calendars))
			for i, c := range tc.calendars {
				calendars[len(calendars)-1-i] = c
			}
			calendarDates := make([]model.CalendarDate, len(tc.calendarDates))
			for i, cd := range tc.calendarDates {
				calendarDates[len(calendarDates)-1-i] = cd
			}
			assert.Equal(t, expected, ActiveServices(calendars, calendarDates, time.Wednesday, 20240313))

			// Nor does asking twice
			assert.Equal(t, expected, ActiveServices(tc.calendars, tc.calendarDates, time.Wednesday, 20240313))
		})
	}
}

func TestParseServiceDate(t *testing.T) {
	date, err := ParseServiceDate(20240313)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, time.Wednesday, date.Weekday())
	assert.Equal(t, 20240313, DateInt(date))

	for _, bad := range []int{0, 2024, 20241301, 20240230, 202403131} {
		_, err := ParseServiceDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestServiceCalendar(t *testing.T) {
	date, err := ParseServiceDate(20240313)
	require.NoError(t, err)
	assert.Equal(t, model.Calendar{
		ServiceID: "1",
		Wednesday: 1,
		StartDate: 20240312,
		EndDate:   20240314,
	}, ServiceCalendar(date))

	// Guard days cross month and year boundaries
	date, err = ParseServiceDate(20240301)
	require.NoError(t, err)
	cal := ServiceCalendar(date)
	assert.Equal(t, 20240229, cal.StartDate)
	assert.Equal(t, 20240302, cal.EndDate)
	assert.Equal(t, int8(1), cal.Friday)

	date, err = ParseServiceDate(20241231)
	require.NoError(t, err)
	cal = ServiceCalendar(date)
	assert.Equal(t, 20241230, cal.StartDate)
	assert.Equal(t, 20250101, cal.EndDate)
	assert.Equal(t, model.Calendar{ServiceID: "1", Tuesday: 1, StartDate: 20241230, EndDate: 20250101}, cal)
}
