package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"tidbyt.dev/combine/model"
)

var ErrOutputDir = errors.New("output directory does not exist")

// Writes a feed as GTFS text files into a directory. Records are
// held in memory until Close(), which writes every file under a
// temporary name and renames them into place once all succeeded.
// After Abort(), Close() writes nothing.
type CSVWriter struct {
	Dir string

	aborted bool

	agencies  []model.Agency
	stops     []model.Stop
	routes    []model.Route
	trips     []model.Trip
	stopTimes []model.StopTime
	shapes    []model.ShapePoint
	calendars []model.Calendar
}

// The files written by CSVWriter, in the order they are written.
var OutputFiles = []string{
	"agency.txt",
	"routes.txt",
	"stops.txt",
	"stop_times.txt",
	"shapes.txt",
	"trips.txt",
	"calendar.txt",
}

func NewCSVWriter(dir string) (*CSVWriter, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrOutputDir, dir)
	}
	return &CSVWriter{Dir: dir}, nil
}

func (w *CSVWriter) WriteAgency(a model.Agency) error {
	w.agencies = append(w.agencies, a)
	return nil
}

func (w *CSVWriter) WriteStop(s model.Stop) error {
	w.stops = append(w.stops, s)
	return nil
}

func (w *CSVWriter) WriteRoute(r model.Route) error {
	w.routes = append(w.routes, r)
	return nil
}

func (w *CSVWriter) BeginTrips() error { return nil }

func (w *CSVWriter) WriteTrip(t model.Trip) error {
	w.trips = append(w.trips, t)
	return nil
}

func (w *CSVWriter) EndTrips() error { return nil }

func (w *CSVWriter) BeginStopTimes() error { return nil }

func (w *CSVWriter) WriteStopTime(st model.StopTime) error {
	w.stopTimes = append(w.stopTimes, st)
	return nil
}

func (w *CSVWriter) EndStopTimes() error { return nil }

func (w *CSVWriter) BeginShapes() error { return nil }

func (w *CSVWriter) WriteShapePoint(p model.ShapePoint) error {
	w.shapes = append(w.shapes, p)
	return nil
}

func (w *CSVWriter) EndShapes() error { return nil }

func (w *CSVWriter) WriteCalendar(c model.Calendar) error {
	w.calendars = append(w.calendars, c)
	return nil
}

// Drops all buffered records.
func (w *CSVWriter) Abort() error {
	w.aborted = true
	w.agencies = nil
	w.stops = nil
	w.routes = nil
	w.trips = nil
	w.stopTimes = nil
	w.shapes = nil
	w.calendars = nil
	return nil
}

func (w *CSVWriter) Close() error {
	if w.aborted {
		return nil
	}

	tables := map[string]interface{}{
		"agency.txt":     &w.agencies,
		"routes.txt":     &w.routes,
		"stops.txt":      &w.stops,
		"stop_times.txt": &w.stopTimes,
		"shapes.txt":     &w.shapes,
		"trips.txt":      &w.trips,
		"calendar.txt":   &w.calendars,
	}

	temps := map[string]string{}
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, name := range OutputFiles {
		f, err := os.CreateTemp(w.Dir, "."+name+".*")
		if err != nil {
			cleanup()
			return fmt.Errorf("creating %s: %w", name, err)
		}
		temps[name] = f.Name()

		err = gocsv.MarshalFile(tables[name], f)
		if err != nil {
			f.Close()
			cleanup()
			return fmt.Errorf("writing %s: %w", name, err)
		}

		err = f.Close()
		if err != nil {
			cleanup()
			return fmt.Errorf("closing %s: %w", name, err)
		}
	}

	for _, name := range OutputFiles {
		err := os.Rename(temps[name], filepath.Join(w.Dir, name))
		if err != nil {
			cleanup()
			return fmt.Errorf("renaming %s: %w", name, err)
		}
		delete(temps, name)
	}

	return nil
}
