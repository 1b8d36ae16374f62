package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

// Parses frequencies.txt. Rules with a non-positive headway or
// without both start and end time can't be expanded and are
// rejected here.
func ParseFrequencies(data io.Reader) ([]model.Frequency, error) {
	frequencies, err := unmarshal[model.Frequency](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling frequencies csv: %w", err)
	}

	for i, f := range frequencies {
		if f.TripID == "" {
			return nil, fmt.Errorf("missing trip_id (row %d)", i+1)
		}
		if !f.StartTime.Known || !f.EndTime.Known {
			return nil, fmt.Errorf("missing start_time or end_time for trip_id '%s' (row %d)", f.TripID, i+1)
		}
		if f.HeadwaySecs <= 0 {
			return nil, fmt.Errorf("invalid headway_secs %d for trip_id '%s' (row %d)", f.HeadwaySecs, f.TripID, i+1)
		}
	}

	return frequencies, nil
}
