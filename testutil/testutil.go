package testutil

// Helpers for building feed fixtures in tests. Files are given as
// lines of CSV, keyed by file name.

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fills in required files missing from files with (mostly blank)
// dummy data. Modifies and returns files.
func CompleteFeed(files map[string][]string) map[string][]string {
	if files["agency.txt"] == nil {
		files["agency.txt"] = []string{"agency_timezone,agency_name,agency_url", "UTC,FooAgency,http://example.com"}
	}
	if files["calendar.txt"] == nil && files["calendar_dates.txt"] == nil {
		files["calendar.txt"] = []string{
			"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date",
			"everyday,1,1,1,1,1,1,1,20000101,20991231",
		}
	}
	if files["routes.txt"] == nil {
		files["routes.txt"] = []string{"route_id,route_type", "r,3"}
	}
	if files["trips.txt"] == nil {
		files["trips.txt"] = []string{"route_id,service_id,trip_id", "r,everyday,t"}
	}
	if files["stops.txt"] == nil {
		files["stops.txt"] = []string{"stop_id,stop_name,stop_lat,stop_lon", "s1,One,40.7,-74.1", "s2,Two,40.0,-75.2"}
	}
	if files["stop_times.txt"] == nil {
		files["stop_times.txt"] = []string{
			"trip_id,arrival_time,departure_time,stop_id,stop_sequence",
			"t,10:00:00,10:00:00,s1,1",
			"t,10:30:00,10:30:00,s2,2",
		}
	}
	return files
}

func BuildZip(
	t testing.TB,
	files map[string][]string,
) []byte {

	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// Writes files as a zip archive at dir/name.zip.
func WriteZip(t testing.TB, dir string, name string, files map[string][]string) string {
	path := filepath.Join(dir, name+".zip")
	require.NoError(t, os.WriteFile(path, BuildZip(t, files), 0644))
	return path
}

// Writes files into the directory dir/name.
func WriteDir(t testing.TB, dir string, name string, files map[string][]string) string {
	path := filepath.Join(dir, name)
	for filename, content := range files {
		full := filepath.Join(path, filename)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(strings.Join(content, "\n")), 0644))
	}
	return path
}
