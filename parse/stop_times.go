package parse

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"tidbyt.dev/combine/model"
)

// Parses stop_times.txt. Arrival and departure times may be empty,
// in which case they're left unknown for later interpolation.
func ParseStopTimes(data io.Reader) ([]model.StopTime, error) {
	stopTimes, err := unmarshal[model.StopTime](data)
	if err != nil {
		return nil, errors.Wrap(err, "unmarshaling stop_times csv")
	}

	stopSeq := map[string]map[int]bool{}
	for i, st := range stopTimes {
		if st.TripID == "" {
			return nil, errors.Errorf("missing trip_id (row %d)", i+1)
		}
		if st.StopID == "" {
			return nil, errors.Errorf("missing stop_id (row %d)", i+1)
		}

		seen, found := stopSeq[st.TripID]
		if !found {
			seen = map[int]bool{}
			stopSeq[st.TripID] = seen
		}
		if seen[st.StopSequence] {
			return nil, errors.Wrapf(
				fmt.Errorf("duplicate stop_sequence %d for trip_id '%s'", st.StopSequence, st.TripID),
				"row %d", i+1,
			)
		}
		seen[st.StopSequence] = true
	}

	return stopTimes, nil
}
