package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"tidbyt.dev/combine/model"
)

// Writes a combined feed into a SQLite database, one table per GTFS
// file, columns named as in the GTFS files.
type SQLiteWriter struct {
	path string
	db   *sql.DB

	batchTx   *sql.Tx
	batchStmt *sql.Stmt
}

var sqliteSchema = map[string]string{
	"agency": `
CREATE TABLE agency (
    agency_id TEXT,
    agency_name TEXT NOT NULL,
    agency_url TEXT NOT NULL,
    agency_timezone TEXT NOT NULL,
    agency_lang TEXT,
    agency_phone TEXT,
    agency_fare_url TEXT,
    agency_email TEXT
);`,
	"stops": `
CREATE TABLE stops (
    stop_id TEXT PRIMARY KEY,
    stop_code TEXT,
    stop_name TEXT,
    stop_desc TEXT,
    stop_lat REAL NOT NULL,
    stop_lon REAL NOT NULL,
    zone_id TEXT,
    stop_url TEXT,
    location_type TEXT,
    parent_station TEXT,
    stop_timezone TEXT,
    wheelchair_boarding TEXT,
    level_id TEXT,
    platform_code TEXT
);`,
	"routes": `
CREATE TABLE routes (
    route_id TEXT PRIMARY KEY,
    agency_id TEXT,
    route_short_name TEXT,
    route_long_name TEXT,
    route_desc TEXT,
    route_type INTEGER NOT NULL,
    route_url TEXT,
    route_color TEXT,
    route_text_color TEXT,
    route_sort_order TEXT,
    continuous_pickup TEXT,
    continuous_drop_off TEXT
);`,
	"trips": `
CREATE TABLE trips (
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    trip_id TEXT PRIMARY KEY,
    trip_headsign TEXT,
    trip_short_name TEXT,
    direction_id TEXT,
    block_id TEXT,
    shape_id TEXT,
    wheelchair_accessible TEXT,
    bikes_allowed TEXT
);
CREATE INDEX trips_route_id ON trips (route_id);
`,
	"stop_times": `
CREATE TABLE stop_times (
    trip_id TEXT NOT NULL,
    arrival_time TEXT,
    departure_time TEXT,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    stop_headsign TEXT,
    pickup_type TEXT,
    drop_off_type TEXT,
    shape_dist_traveled TEXT,
    timepoint TEXT
);
CREATE INDEX stop_times_trip_id ON stop_times (trip_id);
CREATE INDEX stop_times_stop_id ON stop_times (stop_id);
`,
	"shapes": `
CREATE TABLE shapes (
    shape_id TEXT NOT NULL,
    shape_pt_lat REAL NOT NULL,
    shape_pt_lon REAL NOT NULL,
    shape_pt_sequence INTEGER NOT NULL,
    shape_dist_traveled TEXT
);
CREATE INDEX shapes_shape_id ON shapes (shape_id);
`,
	"calendar": `
CREATE TABLE calendar (
    service_id TEXT PRIMARY KEY,
    monday INTEGER NOT NULL,
    tuesday INTEGER NOT NULL,
    wednesday INTEGER NOT NULL,
    thursday INTEGER NOT NULL,
    friday INTEGER NOT NULL,
    saturday INTEGER NOT NULL,
    sunday INTEGER NOT NULL,
    start_date INTEGER NOT NULL,
    end_date INTEGER NOT NULL
);`,
}

// Creates a database at path, replacing any existing file. Pass
// ":memory:" for an in-memory database.
func NewSQLiteWriter(path string) (*SQLiteWriter, error) {
	if path != ":memory:" {
		if _, err := os.Stat(path); err == nil {
			err := os.Remove(path)
			if err != nil {
				return nil, fmt.Errorf("removing existing database: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// every connection to :memory: is a database of its own
	db.SetMaxOpenConns(1)

	for name, query := range sqliteSchema {
		_, err = db.Exec(query)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %w", name, err)
		}
	}

	return &SQLiteWriter{path: path, db: db}, nil
}

func (w *SQLiteWriter) WriteAgency(a model.Agency) error {
	_, err := w.db.Exec(`
INSERT INTO agency (agency_id, agency_name, agency_url, agency_timezone, agency_lang, agency_phone, agency_fare_url, agency_email)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.URL, a.Timezone, a.Lang, a.Phone, a.FareURL, a.Email,
	)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) WriteStop(s model.Stop) error {
	_, err := w.db.Exec(`
INSERT INTO stops (stop_id, stop_code, stop_name, stop_desc, stop_lat, stop_lon, zone_id, stop_url, location_type, parent_station, stop_timezone, wheelchair_boarding, level_id, platform_code)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Code, s.Name, s.Desc, s.Lat, s.Lon, s.ZoneID, s.URL,
		s.LocationType, s.ParentStation, s.Timezone, s.WheelchairBoarding,
		s.LevelID, s.PlatformCode,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) WriteRoute(r model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (route_id, agency_id, route_short_name, route_long_name, route_desc, route_type, route_url, route_color, route_text_color, route_sort_order, continuous_pickup, continuous_drop_off)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AgencyID, r.ShortName, r.LongName, r.Desc, int(r.Type), r.URL,
		r.Color, r.TextColor, r.SortOrder, r.ContinuousPickup, r.ContinuousDropOff,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

// Starts a transaction with a prepared insert, used for the large
// tables.
func (w *SQLiteWriter) beginBatch(query string) error {
	var err error
	w.batchTx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	w.batchStmt, err = w.batchTx.Prepare(query)
	if err != nil {
		w.batchTx.Rollback()
		w.batchTx = nil
		return fmt.Errorf("preparing insert: %w", err)
	}

	return nil
}

func (w *SQLiteWriter) execBatch(args ...interface{}) error {
	if w.batchStmt == nil {
		return fmt.Errorf("no batch in progress")
	}

	_, err := w.batchStmt.Exec(args...)
	if err != nil {
		w.batchStmt.Close()
		w.batchTx.Rollback()
		w.batchTx = nil
		w.batchStmt = nil
		return err
	}

	return nil
}

func (w *SQLiteWriter) endBatch() error {
	if w.batchStmt == nil {
		return fmt.Errorf("no batch in progress")
	}

	w.batchStmt.Close()
	err := w.batchTx.Commit()
	w.batchTx = nil
	w.batchStmt = nil
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func (w *SQLiteWriter) BeginTrips() error {
	return w.beginBatch(`
INSERT INTO trips (route_id, service_id, trip_id, trip_headsign, trip_short_name, direction_id, block_id, shape_id, wheelchair_accessible, bikes_allowed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
}

func (w *SQLiteWriter) WriteTrip(t model.Trip) error {
	err := w.execBatch(
		t.RouteID, t.ServiceID, t.ID, t.Headsign, t.ShortName, t.DirectionID,
		t.BlockID, t.ShapeID, t.WheelchairAccessible, t.BikesAllowed,
	)
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) EndTrips() error {
	return w.endBatch()
}

func (w *SQLiteWriter) BeginStopTimes() error {
	return w.beginBatch(`
INSERT INTO stop_times (trip_id, arrival_time, departure_time, stop_id, stop_sequence, stop_headsign, pickup_type, drop_off_type, shape_dist_traveled, timepoint)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
}

func (w *SQLiteWriter) WriteStopTime(st model.StopTime) error {
	err := w.execBatch(
		st.TripID, st.Arrival.String(), st.Departure.String(), st.StopID,
		st.StopSequence, st.Headsign, st.PickupType, st.DropOffType,
		st.ShapeDistTraveled, st.Timepoint,
	)
	if err != nil {
		return fmt.Errorf("inserting stop_time: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) EndStopTimes() error {
	return w.endBatch()
}

func (w *SQLiteWriter) BeginShapes() error {
	return w.beginBatch(`
INSERT INTO shapes (shape_id, shape_pt_lat, shape_pt_lon, shape_pt_sequence, shape_dist_traveled)
VALUES (?, ?, ?, ?, ?)`)
}

func (w *SQLiteWriter) WriteShapePoint(p model.ShapePoint) error {
	err := w.execBatch(p.ShapeID, p.Lat, p.Lon, p.Sequence, p.ShapeDistTraveled)
	if err != nil {
		return fmt.Errorf("inserting shape point: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) EndShapes() error {
	return w.endBatch()
}

func (w *SQLiteWriter) WriteCalendar(c model.Calendar) error {
	_, err := w.db.Exec(`
INSERT INTO calendar (service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ServiceID,
		c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday,
		c.StartDate,
		c.EndDate,
	)
	if err != nil {
		return fmt.Errorf("inserting calendar: %w", err)
	}
	return nil
}

func (w *SQLiteWriter) Close() error {
	_, err := w.db.Exec(`ANALYZE;`)
	if err != nil {
		w.db.Close()
		return fmt.Errorf("analyzing database: %w", err)
	}

	err = w.db.Close()
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	return nil
}

// Rolls back any batch in progress and removes the database file.
func (w *SQLiteWriter) Abort() error {
	if w.batchStmt != nil {
		w.batchStmt.Close()
		w.batchStmt = nil
	}
	if w.batchTx != nil {
		w.batchTx.Rollback()
		w.batchTx = nil
	}

	err := w.db.Close()
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}

	if w.path == ":memory:" {
		return nil
	}
	err = os.Remove(w.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing database: %w", err)
	}

	return nil
}
