package combine

import (
	"errors"
	"fmt"
	"sort"

	"tidbyt.dev/combine/model"
)

var ErrBoundaryTimeUnknown = errors.New("time unknown at first or last stop")

// Reports whether any stop time lacks a departure time.
func NeedsInterpolation(stopTimes []model.StopTime) bool {
	for _, st := range stopTimes {
		if !st.Departure.Known {
			return true
		}
	}
	return false
}

// Sorts stop times by trip and stop sequence, then fills unknown
// arrival and departure times by linear interpolation between the
// nearest known times of the same trip. Stops are treated as evenly
// spaced. Interpolated times are truncated to whole seconds.
//
// Times at the first and last stop of every trip must be known.
func InterpolateStopTimes(stopTimes []model.StopTime) error {
	sort.SliceStable(stopTimes, func(i, j int) bool {
		if stopTimes[i].TripID != stopTimes[j].TripID {
			return stopTimes[i].TripID < stopTimes[j].TripID
		}
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	for start := 0; start < len(stopTimes); {
		end := start + 1
		for end < len(stopTimes) && stopTimes[end].TripID == stopTimes[start].TripID {
			end++
		}

		trip := stopTimes[start:end]
		err := interpolate(trip, func(st *model.StopTime) *model.Time { return &st.Arrival })
		if err != nil {
			return fmt.Errorf("trip %s arrival_time: %w", trip[0].TripID, err)
		}
		err = interpolate(trip, func(st *model.StopTime) *model.Time { return &st.Departure })
		if err != nil {
			return fmt.Errorf("trip %s departure_time: %w", trip[0].TripID, err)
		}

		start = end
	}

	return nil
}

func interpolate(trip []model.StopTime, field func(*model.StopTime) *model.Time) error {
	if !field(&trip[0]).Known || !field(&trip[len(trip)-1]).Known {
		return ErrBoundaryTimeUnknown
	}

	prev := 0
	for i := 1; i < len(trip); i++ {
		t := field(&trip[i])
		if !t.Known {
			continue
		}
		if i-prev > 1 {
			from := field(&trip[prev]).Seconds
			span := i - prev
			for j := prev + 1; j < i; j++ {
				// both ends are non-negative, so this truncates
				*field(&trip[j]) = model.NewTime((from*span + (t.Seconds-from)*(j-prev)) / span)
			}
		}
		prev = i
	}

	return nil
}
