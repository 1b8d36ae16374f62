package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/combine/model"
)

func TestParseAgency(t *testing.T) {
	for _, tc := range []struct {
		name     string
		content  string
		err      bool
		agencies []model.Agency
	}{
		{
			"single agency without id",
			`
agency_name,agency_url,agency_timezone
Fake,http://example.com,America/New_York`,
			false,
			[]model.Agency{{Name: "Fake", URL: "http://example.com", Timezone: "America/New_York"}},
		},
		{
			"multiple agencies",
			`
agency_id,agency_name,agency_url,agency_timezone,agency_lang,agency_phone
a1,One,http://one.com,UTC,en,555
a2,Two,http://two.com,UTC,sv,`,
			false,
			[]model.Agency{
				{ID: "a1", Name: "One", URL: "http://one.com", Timezone: "UTC", Lang: "en", Phone: "555"},
				{ID: "a2", Name: "Two", URL: "http://two.com", Timezone: "UTC", Lang: "sv"},
			},
		},
		{
			"multiple agencies missing id",
			`
agency_id,agency_name,agency_url,agency_timezone
a1,One,http://one.com,UTC
,Two,http://two.com,UTC`,
			true,
			nil,
		},
		{
			"duplicate id",
			`
agency_id,agency_name,agency_url,agency_timezone
a1,One,http://one.com,UTC
a1,Two,http://two.com,UTC`,
			true,
			nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			agencies, err := ParseAgency(bytes.NewBufferString(tc.content))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.agencies, agencies)
		})
	}
}

func TestParseStops(t *testing.T) {
	stops, err := ParseStops(bytes.NewBufferString(`
stop_id,stop_name,stop_lat,stop_lon,location_type,parent_station,platform_code
s1,One,40.7,-74.1,0,st,1A
st,Station,40.71,-74.11,1,,`))
	require.NoError(t, err)
	assert.Equal(t, []model.Stop{
		{ID: "s1", Name: "One", Lat: 40.7, Lon: -74.1, LocationType: "0", ParentStation: "st", PlatformCode: "1A"},
		{ID: "st", Name: "Station", Lat: 40.71, Lon: -74.11, LocationType: "1"},
	}, stops)

	_, err = ParseStops(bytes.NewBufferString("stop_id,stop_name\ns,S\ns,T"))
	assert.Error(t, err, "duplicate stop_id")

	_, err = ParseStops(bytes.NewBufferString("stop_id,stop_name\n,S"))
	assert.Error(t, err, "empty stop_id")

	_, err = ParseStops(bytes.NewBufferString("stop_id,stop_lat\ns,north"))
	assert.Error(t, err, "non-numeric latitude")
}

func TestParseRoutes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		content string
		err     bool
		routes  []model.Route
	}{
		{
			"minimal",
			`
route_id,route_short_name,route_type
r,R,3`,
			false,
			[]model.Route{{ID: "r", ShortName: "R", Type: model.RouteTypeBus}},
		},
		{
			"monorail",
			`
route_id,agency_id,route_long_name,route_type,route_color
r,a,Long,12,FF0000`,
			false,
			[]model.Route{{ID: "r", AgencyID: "a", LongName: "Long", Type: model.RouteTypeMonorail, Color: "FF0000"}},
		},
		{
			"invalid route type",
			`
route_id,route_type
r,9`,
			true,
			nil,
		},
		{
			"missing route_id",
			`
route_id,route_type
,3`,
			true,
			nil,
		},
		{
			"duplicate route_id",
			`
route_id,route_type
r,3
r,2`,
			true,
			nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			routes, err := ParseRoutes(bytes.NewBufferString(tc.content))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.routes, routes)
		})
	}
}

func TestParseTrips(t *testing.T) {
	trips, err := ParseTrips(bytes.NewBufferString(`
route_id,service_id,trip_id,trip_headsign,direction_id,shape_id
r,s,t1,Downtown,0,sh
r,s,t2,,1,`))
	require.NoError(t, err)
	assert.Equal(t, []model.Trip{
		{RouteID: "r", ServiceID: "s", ID: "t1", Headsign: "Downtown", DirectionID: "0", ShapeID: "sh"},
		{RouteID: "r", ServiceID: "s", ID: "t2", DirectionID: "1"},
	}, trips)

	for name, content := range map[string]string{
		"missing trip_id":    "route_id,service_id,trip_id\nr,s,",
		"missing route_id":   "route_id,service_id,trip_id\n,s,t",
		"missing service_id": "route_id,service_id,trip_id\nr,,t",
		"duplicate trip_id":  "route_id,service_id,trip_id\nr,s,t\nr,s,t",
	} {
		_, err := ParseTrips(bytes.NewBufferString(content))
		assert.Error(t, err, name)
	}
}

func TestParseCalendar(t *testing.T) {
	calendars, err := ParseCalendar(bytes.NewBufferString(`
service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
weekdays,1,1,1,1,1,0,0,20240101,20241231
sundays,0,0,0,0,0,0,1,20240101,20240630`))
	require.NoError(t, err)
	assert.Equal(t, []model.Calendar{
		{ServiceID: "weekdays", Monday: 1, Tuesday: 1, Wednesday: 1, Thursday: 1, Friday: 1, StartDate: 20240101, EndDate: 20241231},
		{ServiceID: "sundays", Sunday: 1, StartDate: 20240101, EndDate: 20240630},
	}, calendars)

	for name, content := range map[string]string{
		"bad flag":          "service_id,monday,start_date,end_date\ns,2,20240101,20240102",
		"bad start date":    "service_id,monday,start_date,end_date\ns,1,20241301,20240102",
		"bad end date":      "service_id,monday,start_date,end_date\ns,1,20240101,2024",
		"missing id":        "service_id,monday,start_date,end_date\n,1,20240101,20240102",
		"duplicate service": "service_id,monday,start_date,end_date\ns,1,20240101,20240102\ns,0,20240101,20240102",
	} {
		_, err := ParseCalendar(bytes.NewBufferString(content))
		assert.Error(t, err, name)
	}
}

func TestParseCalendarDates(t *testing.T) {
	calendarDates, err := ParseCalendarDates(bytes.NewBufferString(`
service_id,date,exception_type
s,20240101,2
s,20240102,1
t,20240101,1`))
	require.NoError(t, err)
	assert.Equal(t, []model.CalendarDate{
		{ServiceID: "s", Date: 20240101, ExceptionType: model.ExceptionTypeRemoved},
		{ServiceID: "s", Date: 20240102, ExceptionType: model.ExceptionTypeAdded},
		{ServiceID: "t", Date: 20240101, ExceptionType: model.ExceptionTypeAdded},
	}, calendarDates)

	for name, content := range map[string]string{
		"bad exception type": "service_id,date,exception_type\ns,20240101,3",
		"bad date":           "service_id,date,exception_type\ns,20240230,1",
		"duplicate":          "service_id,date,exception_type\ns,20240101,1\ns,20240101,2",
	} {
		_, err := ParseCalendarDates(bytes.NewBufferString(content))
		assert.Error(t, err, name)
	}
}

func TestParseShapes(t *testing.T) {
	points, err := ParseShapes(bytes.NewBufferString(`
shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence,shape_dist_traveled
sh,40.7,-74.1,1,0
sh,40.0,-75.2,2,121.4`))
	require.NoError(t, err)
	assert.Equal(t, []model.ShapePoint{
		{ShapeID: "sh", Lat: 40.7, Lon: -74.1, Sequence: 1, ShapeDistTraveled: "0"},
		{ShapeID: "sh", Lat: 40.0, Lon: -75.2, Sequence: 2, ShapeDistTraveled: "121.4"},
	}, points)

	_, err = ParseShapes(bytes.NewBufferString("shape_id,shape_pt_lat,shape_pt_lon,shape_pt_sequence\n,1,2,1"))
	assert.Error(t, err)
}

func TestParseFrequencies(t *testing.T) {
	frequencies, err := ParseFrequencies(bytes.NewBufferString(`
trip_id,start_time,end_time,headway_secs,exact_times
t,06:00:00,07:00:00,600,1
t,07:00:00,25:00:00,1200,`))
	require.NoError(t, err)
	assert.Equal(t, []model.Frequency{
		{TripID: "t", StartTime: model.NewTime(21600), EndTime: model.NewTime(25200), HeadwaySecs: 600, ExactTimes: "1"},
		{TripID: "t", StartTime: model.NewTime(25200), EndTime: model.NewTime(90000), HeadwaySecs: 1200},
	}, frequencies)

	for name, content := range map[string]string{
		"zero headway":     "trip_id,start_time,end_time,headway_secs\nt,06:00:00,07:00:00,0",
		"negative headway": "trip_id,start_time,end_time,headway_secs\nt,06:00:00,07:00:00,-60",
		"missing end":      "trip_id,start_time,end_time,headway_secs\nt,06:00:00,,600",
		"missing trip_id":  "trip_id,start_time,end_time,headway_secs\n,06:00:00,07:00:00,600",
	} {
		_, err := ParseFrequencies(bytes.NewBufferString(content))
		assert.Error(t, err, name)
	}
}
