package combine

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"tidbyt.dev/combine/model"
)

// A distinct ordered list of stops served by trips of one route. The
// first trip found with the list represents it.
type Pattern struct {
	RouteID string
	TripID  string
	Stops   []string
	Trips   []string
}

// Groups trips by the ordered list of stops they visit, per route.
// Trips are considered in trip ID order, so the representative of a
// pattern is the pattern's lowest trip ID. Trips without stop times
// are left out.
func SchedulePatterns(stopTimes []model.StopTime, trips []model.Trip) []*Pattern {
	byTrip := map[string][]model.StopTime{}
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
	}

	sorted := make([]model.Trip, len(trips))
	copy(sorted, trips)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})

	patterns := []*Pattern{}
	byRoute := map[string][]*Pattern{}

	for _, trip := range sorted {
		sts, found := byTrip[trip.ID]
		if !found {
			continue
		}
		sort.SliceStable(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})
		stops := make([]string, len(sts))
		for i, st := range sts {
			stops[i] = st.StopID
		}

		var match *Pattern
		for _, p := range byRoute[trip.RouteID] {
			if equalStops(p.Stops, stops) {
				match = p
				break
			}
		}

		if match == nil {
			match = &Pattern{
				RouteID: trip.RouteID,
				TripID:  trip.ID,
				Stops:   stops,
			}
			byRoute[trip.RouteID] = append(byRoute[trip.RouteID], match)
			patterns = append(patterns, match)
		}
		match.Trips = append(match.Trips, trip.ID)
	}

	return patterns
}

func equalStops(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Synthesizes shapes for a feed that has none. Each stop pattern
// becomes one shape, named after its representative trip, drawn as a
// polyline through the representative's stops. Every trip with stop
// times is assigned the shape of its pattern; the returned trips are
// a modified copy of trips.
func InferShapes(
	stops []model.Stop,
	stopTimes []model.StopTime,
	trips []model.Trip,
) ([]model.ShapePoint, []model.Trip, error) {

	stopByID := make(map[string]*model.Stop, len(stops))
	for i := range stops {
		stopByID[stops[i].ID] = &stops[i]
	}

	representatives := map[string][]model.StopTime{}
	patterns := SchedulePatterns(stopTimes, trips)
	for _, p := range patterns {
		representatives[p.TripID] = nil
	}
	for _, st := range stopTimes {
		if _, found := representatives[st.TripID]; found {
			representatives[st.TripID] = append(representatives[st.TripID], st)
		}
	}

	shapeByTrip := map[string]string{}
	points := []model.ShapePoint{}
	for _, p := range patterns {
		for _, tripID := range p.Trips {
			shapeByTrip[tripID] = p.TripID
		}

		sts := representatives[p.TripID]
		sort.SliceStable(sts, func(i, j int) bool {
			return sts[i].StopSequence < sts[j].StopSequence
		})

		dist := 0.0
		var prev *model.Stop
		for _, st := range sts {
			stop, found := stopByID[st.StopID]
			if !found {
				return nil, nil, fmt.Errorf("trip %s references unknown stop %s", st.TripID, st.StopID)
			}
			if prev != nil {
				dist += HaversineDistance(prev.Lat, prev.Lon, stop.Lat, stop.Lon)
			}
			prev = stop

			points = append(points, model.ShapePoint{
				ShapeID:           p.TripID,
				Lat:               stop.Lat,
				Lon:               stop.Lon,
				Sequence:          st.StopSequence,
				ShapeDistTraveled: strconv.FormatFloat(dist, 'f', 3, 64),
			})
		}
	}

	shaped := make([]model.Trip, len(trips))
	for i, trip := range trips {
		trip.ShapeID = shapeByTrip[trip.ID]
		shaped[i] = trip
	}

	return points, shaped, nil
}

// Great-circle distance in kilometers.
func HaversineDistance(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusKm = 6371

	aLatRad := aLat * math.Pi / 180
	bLatRad := bLat * math.Pi / 180
	deltaLat := aLatRad - bLatRad
	deltaLon := (aLon - bLon) * math.Pi / 180

	a := math.Pow(math.Sin(deltaLat/2), 2) + math.Cos(aLatRad)*math.Cos(bLatRad)*math.Pow(math.Sin(deltaLon/2), 2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
