package parse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tidbyt.dev/combine/model"
)

func TestParseStopTimes(t *testing.T) {
	for _, tc := range []struct {
		name      string
		content   string
		err       bool
		stopTimes []model.StopTime
	}{
		{
			"minimal",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:01,s,1`,
			false,
			[]model.StopTime{
				{
					TripID:       "t",
					Arrival:      model.NewTime(36000),
					Departure:    model.NewTime(36001),
					StopID:       "s",
					StopSequence: 1,
				},
			},
		},

		{
			"all_fields_set_and_multiple_records",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence,stop_headsign,pickup_type,drop_off_type,shape_dist_traveled,timepoint
t,10:00:00,10:00:01,s1,1,sh1,0,1,0.0,1
t,10:00:02,10:00:03,s2,2,sh2,1,0,1.5,0
`,
			false,
			[]model.StopTime{
				{
					TripID:            "t",
					Arrival:           model.NewTime(36000),
					Departure:         model.NewTime(36001),
					StopID:            "s1",
					StopSequence:      1,
					Headsign:          "sh1",
					PickupType:        "0",
					DropOffType:       "1",
					ShapeDistTraveled: "0.0",
					Timepoint:         "1",
				},
				{
					TripID:            "t",
					Arrival:           model.NewTime(36002),
					Departure:         model.NewTime(36003),
					StopID:            "s2",
					StopSequence:      2,
					Headsign:          "sh2",
					PickupType:        "1",
					DropOffType:       "0",
					ShapeDistTraveled: "1.5",
					Timepoint:         "0",
				},
			},
		},

		{
			"times above 24h",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,25:00:00,25:00:01,s,1`,
			false,
			[]model.StopTime{
				{
					TripID:       "t",
					Arrival:      model.NewTime(90000),
					Departure:    model.NewTime(90001),
					StopID:       "s",
					StopSequence: 1,
				},
			},
		},

		{
			"single digit hour",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,7:05:00,7:05:30,s,1`,
			false,
			[]model.StopTime{
				{
					TripID:       "t",
					Arrival:      model.NewTime(25500),
					Departure:    model.NewTime(25530),
					StopID:       "s",
					StopSequence: 1,
				},
			},
		},

		{
			"unknown intermediate times",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:00,s1,1
t,,,s2,2
t,10:10:00,10:10:00,s3,3`,
			false,
			[]model.StopTime{
				{TripID: "t", Arrival: model.NewTime(36000), Departure: model.NewTime(36000), StopID: "s1", StopSequence: 1},
				{TripID: "t", StopID: "s2", StopSequence: 2},
				{TripID: "t", Arrival: model.NewTime(36600), Departure: model.NewTime(36600), StopID: "s3", StopSequence: 3},
			},
		},

		{
			"midnight is a known time",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,00:00:00,00:00:00,s,1`,
			false,
			[]model.StopTime{
				{TripID: "t", Arrival: model.NewTime(0), Departure: model.NewTime(0), StopID: "s", StopSequence: 1},
			},
		},

		{
			"padded cells and header",
			`
trip_id, arrival_time, departure_time, stop_id, stop_sequence
 t , 10:00:00 , 10:00:01 , s , 1 `,
			false,
			[]model.StopTime{
				{
					TripID:       "t",
					Arrival:      model.NewTime(36000),
					Departure:    model.NewTime(36001),
					StopID:       "s",
					StopSequence: 1,
				},
			},
		},

		{
			"missing trip_id",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
,10:00:00,10:00:01,s,1`,
			true,
			nil,
		},

		{
			"missing stop_id",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:01,,1`,
			true,
			nil,
		},

		{
			"duplicate stop_sequence",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00:00,10:00:01,s1,1
t,10:00:02,10:00:03,s2,1`,
			true,
			nil,
		},

		{
			"malformed time",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:00,10:00:01,s,1`,
			true,
			nil,
		},

		{
			"invalid minute",
			`
trip_id,arrival_time,departure_time,stop_id,stop_sequence
t,10:60:00,10:00:01,s,1`,
			true,
			nil,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			stopTimes, err := ParseStopTimes(bytes.NewBufferString(tc.content))
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.stopTimes, stopTimes)
		})
	}
}
