package storage

import (
	"fmt"

	"tidbyt.dev/combine/model"
)

// Writes the records of a combined feed.
//
// As stop_times.txt tends to be very large, BeginStopTimes() and
// EndStopTimes() are called before and after all calls to
// WriteStopTime(), allowing transactions/batching/whathaveyou. Same
// goes for trips and shapes. Nothing is guaranteed to be persisted
// until Close() returns without error. Abort() discards whatever was
// written instead, and leaves nothing behind.
type FeedWriter interface {
	WriteAgency(agency model.Agency) error
	WriteStop(stop model.Stop) error
	WriteRoute(route model.Route) error
	BeginTrips() error
	WriteTrip(trip model.Trip) error
	EndTrips() error
	BeginStopTimes() error
	WriteStopTime(stopTime model.StopTime) error
	EndStopTimes() error
	BeginShapes() error
	WriteShapePoint(point model.ShapePoint) error
	EndShapes() error
	WriteCalendar(cal model.Calendar) error
	Close() error
	Abort() error
}

// Writes every record of feed to w. Does not close w.
func WriteFeed(w FeedWriter, feed *model.Feed) error {
	for _, agency := range feed.Agencies {
		if err := w.WriteAgency(agency); err != nil {
			return fmt.Errorf("writing agency: %w", err)
		}
	}

	for _, stop := range feed.Stops {
		if err := w.WriteStop(stop); err != nil {
			return fmt.Errorf("writing stop: %w", err)
		}
	}

	for _, route := range feed.Routes {
		if err := w.WriteRoute(route); err != nil {
			return fmt.Errorf("writing route: %w", err)
		}
	}

	if err := w.BeginTrips(); err != nil {
		return fmt.Errorf("beginning trips: %w", err)
	}
	for _, trip := range feed.Trips {
		if err := w.WriteTrip(trip); err != nil {
			return fmt.Errorf("writing trip: %w", err)
		}
	}
	if err := w.EndTrips(); err != nil {
		return fmt.Errorf("ending trips: %w", err)
	}

	if err := w.BeginStopTimes(); err != nil {
		return fmt.Errorf("beginning stop times: %w", err)
	}
	for _, st := range feed.StopTimes {
		if err := w.WriteStopTime(st); err != nil {
			return fmt.Errorf("writing stop time: %w", err)
		}
	}
	if err := w.EndStopTimes(); err != nil {
		return fmt.Errorf("ending stop times: %w", err)
	}

	if err := w.BeginShapes(); err != nil {
		return fmt.Errorf("beginning shapes: %w", err)
	}
	for _, point := range feed.Shapes {
		if err := w.WriteShapePoint(point); err != nil {
			return fmt.Errorf("writing shape point: %w", err)
		}
	}
	if err := w.EndShapes(); err != nil {
		return fmt.Errorf("ending shapes: %w", err)
	}

	for _, cal := range feed.Calendars {
		if err := w.WriteCalendar(cal); err != nil {
			return fmt.Errorf("writing calendar: %w", err)
		}
	}

	return nil
}

// Writes to several FeedWriters at once.
type MultiWriter []FeedWriter

func (m MultiWriter) each(f func(FeedWriter) error) error {
	for _, w := range m {
		if err := f(w); err != nil {
			return err
		}
	}
	return nil
}

func (m MultiWriter) WriteAgency(a model.Agency) error {
	return m.each(func(w FeedWriter) error { return w.WriteAgency(a) })
}

func (m MultiWriter) WriteStop(s model.Stop) error {
	return m.each(func(w FeedWriter) error { return w.WriteStop(s) })
}

func (m MultiWriter) WriteRoute(r model.Route) error {
	return m.each(func(w FeedWriter) error { return w.WriteRoute(r) })
}

func (m MultiWriter) BeginTrips() error {
	return m.each(func(w FeedWriter) error { return w.BeginTrips() })
}

func (m MultiWriter) WriteTrip(t model.Trip) error {
	return m.each(func(w FeedWriter) error { return w.WriteTrip(t) })
}

func (m MultiWriter) EndTrips() error {
	return m.each(func(w FeedWriter) error { return w.EndTrips() })
}

func (m MultiWriter) BeginStopTimes() error {
	return m.each(func(w FeedWriter) error { return w.BeginStopTimes() })
}

func (m MultiWriter) WriteStopTime(st model.StopTime) error {
	return m.each(func(w FeedWriter) error { return w.WriteStopTime(st) })
}

func (m MultiWriter) EndStopTimes() error {
	return m.each(func(w FeedWriter) error { return w.EndStopTimes() })
}

func (m MultiWriter) BeginShapes() error {
	return m.each(func(w FeedWriter) error { return w.BeginShapes() })
}

func (m MultiWriter) WriteShapePoint(p model.ShapePoint) error {
	return m.each(func(w FeedWriter) error { return w.WriteShapePoint(p) })
}

func (m MultiWriter) EndShapes() error {
	return m.each(func(w FeedWriter) error { return w.EndShapes() })
}

func (m MultiWriter) WriteCalendar(c model.Calendar) error {
	return m.each(func(w FeedWriter) error { return w.WriteCalendar(c) })
}

// Closes the writers in order. If one fails, the writers after it are
// aborted rather than closed, so put the writer that must only ever
// hold a complete feed last.
func (m MultiWriter) Close() error {
	for i, w := range m {
		if err := w.Close(); err != nil {
			m[i+1:].Abort()
			return err
		}
	}
	return nil
}

// Aborts all writers, returning the first error.
func (m MultiWriter) Abort() error {
	var first error
	for _, w := range m {
		if err := w.Abort(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
