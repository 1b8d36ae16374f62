package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	for _, tc := range []struct {
		in      string
		seconds int
		known   bool
		err     bool
	}{
		{"", 0, false, false},
		{"00:00:00", 0, true, false},
		{"06:00:00", 21600, true, false},
		{"6:00:00", 21600, true, false},
		{"23:59:59", 86399, true, false},
		{"25:30:01", 91801, true, false},
		{"99:00:00", 356400, true, false},
		{"100:00:00", 0, false, true},
		{"12:60:00", 0, false, true},
		{"12:00:60", 0, false, true},
		{"12:00", 0, false, true},
		{"ab:00:00", 0, false, true},
	} {
		parsed, err := ParseTime(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.known, parsed.Known, tc.in)
		assert.Equal(t, tc.seconds, parsed.Seconds, tc.in)
	}
}

func TestTimeString(t *testing.T) {
	assert.Equal(t, "", Time{}.String())
	assert.Equal(t, "00:00:00", NewTime(0).String())
	assert.Equal(t, "06:10:00", NewTime(22200).String())
	assert.Equal(t, "25:00:01", NewTime(90001).String())

	assert.Equal(t, 90*time.Minute, NewTime(5400).Duration())

	assert.Equal(t, NewTime(700), NewTime(100).Add(600))
	assert.Equal(t, Time{}, Time{}.Add(600))
}

func TestTimeCSV(t *testing.T) {
	var tm Time
	require.NoError(t, tm.UnmarshalCSV("07:15:00"))
	assert.Equal(t, NewTime(26100), tm)

	s, err := tm.MarshalCSV()
	require.NoError(t, err)
	assert.Equal(t, "07:15:00", s)

	require.NoError(t, tm.UnmarshalCSV(""))
	assert.False(t, tm.Known)

	assert.Error(t, tm.UnmarshalCSV("7"))
}

func TestCalendarRuns(t *testing.T) {
	c := Calendar{}
	for _, day := range []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
		assert.False(t, c.Runs(day))
		c.SetRuns(day, true)
		assert.True(t, c.Runs(day))
	}
	assert.Equal(t, Calendar{Monday: 1, Tuesday: 1, Wednesday: 1, Thursday: 1, Friday: 1, Saturday: 1, Sunday: 1}, c)

	c.SetRuns(time.Friday, false)
	assert.Equal(t, int8(0), c.Friday)
	assert.True(t, c.Runs(time.Saturday))
}
