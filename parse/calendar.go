package parse

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"tidbyt.dev/combine/model"
)

func validDate(date int) bool {
	_, err := time.ParseInLocation("20060102", strconv.Itoa(date), time.UTC)
	return err == nil
}

func ParseCalendar(data io.Reader) ([]model.Calendar, error) {
	calendars, err := unmarshal[model.Calendar](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling csv: %w", err)
	}

	knownServices := map[string]bool{}
	for _, c := range calendars {
		if c.ServiceID == "" {
			return nil, fmt.Errorf("empty service_id")
		}
		if knownServices[c.ServiceID] {
			return nil, fmt.Errorf("repeated service_id '%s'", c.ServiceID)
		}
		knownServices[c.ServiceID] = true

		for _, day := range []struct {
			name string
			flag int8
		}{
			{"monday", c.Monday},
			{"tuesday", c.Tuesday},
			{"wednesday", c.Wednesday},
			{"thursday", c.Thursday},
			{"friday", c.Friday},
			{"saturday", c.Saturday},
			{"sunday", c.Sunday},
		} {
			if day.flag != 0 && day.flag != 1 {
				return nil, fmt.Errorf("invalid %s value '%d'", day.name, day.flag)
			}
		}

		if !validDate(c.StartDate) {
			return nil, fmt.Errorf("invalid start_date '%d' for service_id '%s'", c.StartDate, c.ServiceID)
		}
		if !validDate(c.EndDate) {
			return nil, fmt.Errorf("invalid end_date '%d' for service_id '%s'", c.EndDate, c.ServiceID)
		}
	}

	return calendars, nil
}
