package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

func ParseTrips(data io.Reader) ([]model.Trip, error) {
	trips, err := unmarshal[model.Trip](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling trips csv: %w", err)
	}

	tripIDs := map[string]bool{}
	for _, t := range trips {
		if t.ID == "" {
			return nil, fmt.Errorf("empty trip_id")
		}
		if tripIDs[t.ID] {
			return nil, fmt.Errorf("repeated trip_id '%s'", t.ID)
		}
		tripIDs[t.ID] = true

		if t.RouteID == "" {
			return nil, fmt.Errorf("empty route_id for trip_id '%s'", t.ID)
		}
		if t.ServiceID == "" {
			return nil, fmt.Errorf("empty service_id for trip_id '%s'", t.ID)
		}
	}

	return trips, nil
}
