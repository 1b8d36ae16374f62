package combine

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"tidbyt.dev/combine/model"
)

var ErrInvalidFrequency = errors.New("invalid frequency")

// Computes a departure time from the arrival time of an expanded stop
// time. st is the representative stop time being copied.
type DwellPolicy func(arrival int, st model.StopTime) int

// Departure equals arrival at every stop of an expanded trip.
func NoDwell(arrival int, st model.StopTime) int {
	return arrival
}

// Keeps the representative trip's dwell time at each stop, when both
// its times are known.
func KeepDwell(arrival int, st model.StopTime) int {
	if !st.Arrival.Known || !st.Departure.Known {
		return arrival
	}
	return arrival + st.Departure.Seconds - st.Arrival.Seconds
}

// Number of trips a frequency rule produces. A departure exactly at
// the end time is not counted, and spans one second short of a
// headway multiple still count the full multiple.
func TripCount(f model.Frequency) int {
	span := float64(f.EndTime.Seconds - f.StartTime.Seconds)
	return int(math.RoundToEven(span / float64(f.HeadwaySecs)))
}

// Replaces every trip referenced by a frequency rule with one
// concrete trip per departure, named "{trip_id}_{n}" with n counting
// from 1. When a trip has several rules, numbering continues from one
// rule to the next in the order given. Stop times are copied from the
// representative trip and shifted so that the first stop departs at
// the rule's start time plus n-1 headways. Trips and stop times not
// referenced by any rule pass through unchanged.
func ExpandFrequencies(
	frequencies []model.Frequency,
	trips []model.Trip,
	stopTimes []model.StopTime,
	dwell DwellPolicy,
) ([]model.Trip, []model.StopTime, error) {

	if dwell == nil {
		dwell = NoDwell
	}

	if len(frequencies) == 0 {
		return trips, stopTimes, nil
	}

	rules := map[string][]model.Frequency{}
	for _, f := range frequencies {
		if f.HeadwaySecs <= 0 {
			return nil, nil, fmt.Errorf("%w: headway %d for trip %s", ErrInvalidFrequency, f.HeadwaySecs, f.TripID)
		}
		if !f.StartTime.Known || !f.EndTime.Known {
			return nil, nil, fmt.Errorf("%w: missing start or end time for trip %s", ErrInvalidFrequency, f.TripID)
		}
		rules[f.TripID] = append(rules[f.TripID], f)
	}

	representatives := map[string][]model.StopTime{}
	outStopTimes := make([]model.StopTime, 0, len(stopTimes))
	for _, st := range stopTimes {
		if _, found := rules[st.TripID]; found {
			representatives[st.TripID] = append(representatives[st.TripID], st)
			continue
		}
		outStopTimes = append(outStopTimes, st)
	}

	for tripID, sts := range representatives {
		sort.SliceStable(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})
		for _, st := range sts {
			if !st.Arrival.Known {
				return nil, nil, fmt.Errorf("%w: trip %s has no arrival time at stop_sequence %d", ErrInvalidFrequency, tripID, st.StopSequence)
			}
		}
	}

	// numbering also continues across trip rows sharing an ID
	numbered := map[string]int{}

	outTrips := make([]model.Trip, 0, len(trips))
	for _, trip := range trips {
		tripRules, found := rules[trip.ID]
		if !found {
			outTrips = append(outTrips, trip)
			continue
		}

		sts := representatives[trip.ID]
		n := numbered[trip.ID]
		for _, f := range tripRules {
			count := TripCount(f)
			for k := 0; k < count; k++ {
				n++
				expanded := trip
				expanded.ID = fmt.Sprintf("%s_%d", trip.ID, n)
				outTrips = append(outTrips, expanded)

				if len(sts) == 0 {
					continue
				}
				first := sts[0].Arrival.Seconds
				for _, st := range sts {
					arrival := f.StartTime.Seconds + st.Arrival.Seconds - first + k*f.HeadwaySecs
					copied := st
					copied.TripID = expanded.ID
					copied.Arrival = model.NewTime(arrival)
					copied.Departure = model.NewTime(dwell(arrival, st))
					outStopTimes = append(outStopTimes, copied)
				}
			}
		}
		numbered[trip.ID] = n
	}

	return outTrips, outStopTimes, nil
}
