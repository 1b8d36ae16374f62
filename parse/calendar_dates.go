package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

func ParseCalendarDates(data io.Reader) ([]model.CalendarDate, error) {
	calendarDates, err := unmarshal[model.CalendarDate](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling calendar_dates csv: %w", err)
	}

	knownServiceDate := map[string]bool{}
	for _, cd := range calendarDates {
		if cd.ExceptionType != model.ExceptionTypeAdded && cd.ExceptionType != model.ExceptionTypeRemoved {
			return nil, fmt.Errorf("illegal exception_type: '%d'", cd.ExceptionType)
		}

		if !validDate(cd.Date) {
			return nil, fmt.Errorf("invalid date '%d'", cd.Date)
		}

		serviceDate := fmt.Sprintf("%d-%s", cd.Date, cd.ServiceID)
		if knownServiceDate[serviceDate] {
			return nil, fmt.Errorf("duplicate service/date: '%s'", serviceDate)
		}
		knownServiceDate[serviceDate] = true
	}

	return calendarDates, nil
}
