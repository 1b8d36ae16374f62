package model

import (
	"time"
)

// Holds all GTFS row types handled by the combiner.
//
// Field order is the canonical column order of each file, and is the
// order columns are written in. Columns the combiner never computes
// with are kept as strings and passed through verbatim. An empty
// string means the value was absent.

type RouteType int

const (
	RouteTypeTram       RouteType = 0
	RouteTypeSubway               = 1
	RouteTypeRail                 = 2
	RouteTypeBus                  = 3
	RouteTypeFerry                = 4
	RouteTypeCable                = 5
	RouteTypeAerial               = 6
	RouteTypeFunicular            = 7
	RouteTypeTrolleybus           = 11
	RouteTypeMonorail             = 12
)

type ExceptionType int8

const (
	ExceptionTypeAdded   ExceptionType = 1
	ExceptionTypeRemoved ExceptionType = 2
)

type Agency struct {
	ID       string `csv:"agency_id"`
	Name     string `csv:"agency_name"`
	URL      string `csv:"agency_url"`
	Timezone string `csv:"agency_timezone"`
	Lang     string `csv:"agency_lang"`
	Phone    string `csv:"agency_phone"`
	FareURL  string `csv:"agency_fare_url"`
	Email    string `csv:"agency_email"`
}

type Stop struct {
	ID                 string  `csv:"stop_id"`
	Code               string  `csv:"stop_code"`
	Name               string  `csv:"stop_name"`
	Desc               string  `csv:"stop_desc"`
	Lat                float64 `csv:"stop_lat"`
	Lon                float64 `csv:"stop_lon"`
	ZoneID             string  `csv:"zone_id"`
	URL                string  `csv:"stop_url"`
	LocationType       string  `csv:"location_type"`
	ParentStation      string  `csv:"parent_station"`
	Timezone           string  `csv:"stop_timezone"`
	WheelchairBoarding string  `csv:"wheelchair_boarding"`
	LevelID            string  `csv:"level_id"`
	PlatformCode       string  `csv:"platform_code"`
}

type Route struct {
	ID                string    `csv:"route_id"`
	AgencyID          string    `csv:"agency_id"`
	ShortName         string    `csv:"route_short_name"`
	LongName          string    `csv:"route_long_name"`
	Desc              string    `csv:"route_desc"`
	Type              RouteType `csv:"route_type"`
	URL               string    `csv:"route_url"`
	Color             string    `csv:"route_color"`
	TextColor         string    `csv:"route_text_color"`
	SortOrder         string    `csv:"route_sort_order"`
	ContinuousPickup  string    `csv:"continuous_pickup"`
	ContinuousDropOff string    `csv:"continuous_drop_off"`
}

type Trip struct {
	RouteID              string `csv:"route_id"`
	ServiceID            string `csv:"service_id"`
	ID                   string `csv:"trip_id"`
	Headsign             string `csv:"trip_headsign"`
	ShortName            string `csv:"trip_short_name"`
	DirectionID          string `csv:"direction_id"`
	BlockID              string `csv:"block_id"`
	ShapeID              string `csv:"shape_id"`
	WheelchairAccessible string `csv:"wheelchair_accessible"`
	BikesAllowed         string `csv:"bikes_allowed"`
}

type StopTime struct {
	TripID            string `csv:"trip_id"`
	Arrival           Time   `csv:"arrival_time"`
	Departure         Time   `csv:"departure_time"`
	StopID            string `csv:"stop_id"`
	StopSequence      int    `csv:"stop_sequence"`
	Headsign          string `csv:"stop_headsign"`
	PickupType        string `csv:"pickup_type"`
	DropOffType       string `csv:"drop_off_type"`
	ShapeDistTraveled string `csv:"shape_dist_traveled"`
	Timepoint         string `csv:"timepoint"`
}

// Calendar dates are YYYYMMDD integers, weekday flags are 0 or 1.
type Calendar struct {
	ServiceID string `csv:"service_id"`
	Monday    int8   `csv:"monday"`
	Tuesday   int8   `csv:"tuesday"`
	Wednesday int8   `csv:"wednesday"`
	Thursday  int8   `csv:"thursday"`
	Friday    int8   `csv:"friday"`
	Saturday  int8   `csv:"saturday"`
	Sunday    int8   `csv:"sunday"`
	StartDate int    `csv:"start_date"`
	EndDate   int    `csv:"end_date"`
}

// Runs reports whether the calendar has the flag for weekday set.
func (c *Calendar) Runs(weekday time.Weekday) bool {
	return *c.flag(weekday) == 1
}

// SetRuns sets or clears the flag for weekday.
func (c *Calendar) SetRuns(weekday time.Weekday, runs bool) {
	var v int8
	if runs {
		v = 1
	}
	*c.flag(weekday) = v
}

func (c *Calendar) flag(weekday time.Weekday) *int8 {
	switch weekday {
	case time.Monday:
		return &c.Monday
	case time.Tuesday:
		return &c.Tuesday
	case time.Wednesday:
		return &c.Wednesday
	case time.Thursday:
		return &c.Thursday
	case time.Friday:
		return &c.Friday
	case time.Saturday:
		return &c.Saturday
	default:
		return &c.Sunday
	}
}

type CalendarDate struct {
	ServiceID     string        `csv:"service_id"`
	Date          int           `csv:"date"`
	ExceptionType ExceptionType `csv:"exception_type"`
}

type ShapePoint struct {
	ShapeID           string  `csv:"shape_id"`
	Lat               float64 `csv:"shape_pt_lat"`
	Lon               float64 `csv:"shape_pt_lon"`
	Sequence          int     `csv:"shape_pt_sequence"`
	ShapeDistTraveled string  `csv:"shape_dist_traveled"`
}

type Frequency struct {
	TripID      string `csv:"trip_id"`
	StartTime   Time   `csv:"start_time"`
	EndTime     Time   `csv:"end_time"`
	HeadwaySecs int    `csv:"headway_secs"`
	ExactTimes  string `csv:"exact_times"`
}

// All tables of a single feed. Also used for the combined output,
// in which case CalendarDates and Frequencies are empty.
type Feed struct {
	Name          string
	Agencies      []Agency
	Stops         []Stop
	Routes        []Route
	Trips         []Trip
	StopTimes     []StopTime
	Calendars     []Calendar
	CalendarDates []CalendarDate
	Shapes        []ShapePoint
	Frequencies   []Frequency
}
