package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Time is a GTFS time of day, as seconds after midnight of the
// service day. Values past 24:00:00 are legal for trips running past
// midnight. The zero Time is unknown, which is distinct from a known
// 00:00:00.
type Time struct {
	Seconds int
	Known   bool
}

func NewTime(seconds int) Time {
	return Time{Seconds: seconds, Known: true}
}

// Parses "H:MM:SS" or "HH:MM:SS". The empty string is an unknown
// time.
func ParseTime(s string) (Time, error) {
	if s == "" {
		return Time{}, nil
	}

	split := strings.Split(s, ":")
	if len(split) != 3 {
		return Time{}, fmt.Errorf("found %d parts in '%s'", len(split), s)
	}

	hms := [3]int{}
	for i, str := range split {
		j, err := strconv.Atoi(str)
		if err != nil {
			return Time{}, fmt.Errorf("non-integer in '%s' pos %d", s, i)
		}
		hms[i] = j
	}

	if hms[0] < 0 || hms[0] > 99 {
		return Time{}, fmt.Errorf("invalid hour in '%s'", s)
	}

	if hms[1] < 0 || hms[1] > 59 {
		return Time{}, fmt.Errorf("invalid minute in '%s'", s)
	}

	if hms[2] < 0 || hms[2] > 59 {
		return Time{}, fmt.Errorf("invalid second in '%s'", s)
	}

	return NewTime(hms[0]*3600 + hms[1]*60 + hms[2]), nil
}

// Formats as HH:MM:SS. Unknown times format as the empty string.
func (t Time) String() string {
	if !t.Known {
		return ""
	}
	h := t.Seconds / 3600
	m := (t.Seconds % 3600) / 60
	s := t.Seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func (t Time) Duration() time.Duration {
	return time.Duration(t.Seconds) * time.Second
}

// Add returns t shifted by seconds. Unknown stays unknown.
func (t Time) Add(seconds int) Time {
	if !t.Known {
		return t
	}
	return NewTime(t.Seconds + seconds)
}

func (t *Time) UnmarshalCSV(s string) error {
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Time) MarshalCSV() (string, error) {
	return t.String(), nil
}
