package storage

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"tidbyt.dev/combine/model"
)

const (
	PSQLTripBatchSize     = 10000
	PSQLStopTimeBatchSize = 5000
	PSQLShapeBatchSize    = 5000
)

// Writes a combined feed into Postgres. Every row is tagged with the
// run ID, so several runs can share a database. Rows of an earlier
// run with the same ID are replaced.
type PSQLWriter struct {
	runID       string
	db          *sql.DB
	tripBuf     []model.Trip
	stopTimeBuf []model.StopTime
	shapeBuf    []model.ShapePoint
}

var psqlTables = []string{"agency", "stops", "routes", "trips", "stop_times", "shapes", "calendar"}

var psqlSchema = map[string]string{
	"agency": `
CREATE TABLE IF NOT EXISTS agency (
    run_id TEXT NOT NULL,
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
CREATE TABLE IF NOT EXISTS stops (
    run_id TEXT NOT NULL,
    stop_id TEXT NOT NULL,
    stop_code TEXT,
    stop_name TEXT,
    stop_desc TEXT,
    stop_lat DOUBLE PRECISION NOT NULL,
    stop_lon DOUBLE PRECISION NOT NULL,
    zone_id TEXT,
    stop_url TEXT,
    location_type TEXT,
    parent_station TEXT,
    stop_timezone TEXT,
    wheelchair_boarding TEXT,
    level_id TEXT,
    platform_code TEXT,
    PRIMARY KEY(run_id, stop_id)
);`,
	"routes": `
CREATE TABLE IF NOT EXISTS routes (
    run_id TEXT NOT NULL,
    route_id TEXT NOT NULL,
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
    continuous_drop_off TEXT,
    PRIMARY KEY(run_id, route_id)
);`,
	"trips": `
CREATE TABLE IF NOT EXISTS trips (
    run_id TEXT NOT NULL,
    route_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    trip_headsign TEXT,
    trip_short_name TEXT,
    direction_id TEXT,
    block_id TEXT,
    shape_id TEXT,
    wheelchair_accessible TEXT,
    bikes_allowed TEXT,
    PRIMARY KEY(run_id, trip_id)
);
CREATE INDEX IF NOT EXISTS trips_route_id ON trips (route_id);
`,
	"stop_times": `
CREATE TABLE IF NOT EXISTS stop_times (
    run_id TEXT NOT NULL,
    trip_id TEXT NOT NULL,
    arrival_time TEXT,
    departure_time TEXT,
    stop_id TEXT NOT NULL,
    stop_sequence INTEGER NOT NULL,
    stop_headsign TEXT,
    pickup_type TEXT,
    drop_off_type TEXT,
    shape_dist_traveled TEXT,
    timepoint TEXT,
    PRIMARY KEY(run_id, trip_id, stop_sequence)
);
CREATE INDEX IF NOT EXISTS stop_times_stop_id ON stop_times (stop_id);
`,
	"shapes": `
CREATE TABLE IF NOT EXISTS shapes (
    run_id TEXT NOT NULL,
    shape_id TEXT NOT NULL,
    shape_pt_lat DOUBLE PRECISION NOT NULL,
    shape_pt_lon DOUBLE PRECISION NOT NULL,
    shape_pt_sequence INTEGER NOT NULL,
    shape_dist_traveled TEXT,
    PRIMARY KEY(run_id, shape_id, shape_pt_sequence)
);`,
	"calendar": `
CREATE TABLE IF NOT EXISTS calendar (
    run_id TEXT NOT NULL,
    service_id TEXT NOT NULL,
    monday INTEGER NOT NULL,
    tuesday INTEGER NOT NULL,
    wednesday INTEGER NOT NULL,
    thursday INTEGER NOT NULL,
    friday INTEGER NOT NULL,
    saturday INTEGER NOT NULL,
    sunday INTEGER NOT NULL,
    start_date INTEGER NOT NULL,
    end_date INTEGER NOT NULL,
    PRIMARY KEY(run_id, service_id)
);`,
}

// Connects to Postgres using the provided connection string.
//
// If clearDB is true, all tables are dropped first. You probably only
// want this for testing.
func NewPSQLWriter(connStr string, runID string, clearDB bool) (*PSQLWriter, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	if clearDB {
		for _, name := range psqlTables {
			_, err = db.Exec(`DROP TABLE IF EXISTS ` + name)
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("dropping %s: %w", name, err)
			}
		}
	}

	for _, name := range psqlTables {
		_, err = db.Exec(psqlSchema[name])
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating %s table: %w", name, err)
		}
	}

	// In case the run was written before, delete all its records
	for _, name := range psqlTables {
		_, err = db.Exec(`DELETE FROM `+name+` WHERE run_id = $1`, runID)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("deleting %s records: %w", name, err)
		}
	}

	return &PSQLWriter{
		runID: runID,
		db:    db,
	}, nil
}

func (w *PSQLWriter) WriteAgency(a model.Agency) error {
	_, err := w.db.Exec(`
INSERT INTO agency (run_id, agency_id, agency_name, agency_url, agency_timezone, agency_lang, agency_phone, agency_fare_url, agency_email)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.runID, a.ID, a.Name, a.URL, a.Timezone, a.Lang, a.Phone, a.FareURL, a.Email,
	)
	if err != nil {
		return fmt.Errorf("inserting agency: %w", err)
	}
	return nil
}

func (w *PSQLWriter) WriteStop(s model.Stop) error {
	var parentStation sql.NullString
	if s.ParentStation != "" {
		parentStation = sql.NullString{
			String: s.ParentStation,
			Valid:  true,
		}
	}
	_, err := w.db.Exec(`
INSERT INTO stops (run_id, stop_id, stop_code, stop_name, stop_desc, stop_lat, stop_lon, zone_id, stop_url, location_type, parent_station, stop_timezone, wheelchair_boarding, level_id, platform_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		w.runID, s.ID, s.Code, s.Name, s.Desc, s.Lat, s.Lon, s.ZoneID, s.URL,
		s.LocationType, parentStation, s.Timezone, s.WheelchairBoarding,
		s.LevelID, s.PlatformCode,
	)
	if err != nil {
		return fmt.Errorf("inserting stop: %w", err)
	}
	return nil
}

func (w *PSQLWriter) WriteRoute(r model.Route) error {
	_, err := w.db.Exec(`
INSERT INTO routes (run_id, route_id, agency_id, route_short_name, route_long_name, route_desc, route_type, route_url, route_color, route_text_color, route_sort_order, continuous_pickup, continuous_drop_off)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		w.runID, r.ID, r.AgencyID, r.ShortName, r.LongName, r.Desc, int(r.Type),
		r.URL, r.Color, r.TextColor, r.SortOrder, r.ContinuousPickup, r.ContinuousDropOff,
	)
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

func (w *PSQLWriter) BeginTrips() error {
	return nil
}

func (w *PSQLWriter) WriteTrip(trip model.Trip) error {
	w.tripBuf = append(w.tripBuf, trip)

	if len(w.tripBuf) >= PSQLTripBatchSize {
		err := w.flushTrips()
		if err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}

	return nil
}

func (w *PSQLWriter) EndTrips() error {
	if len(w.tripBuf) > 0 {
		err := w.flushTrips()
		if err != nil {
			return fmt.Errorf("flushing trips: %w", err)
		}
	}
	return nil
}

func (w *PSQLWriter) flushTrips() error {
	rows := make([][]interface{}, 0, len(w.tripBuf))
	for _, t := range w.tripBuf {
		rows = append(rows, []interface{}{
			w.runID, t.RouteID, t.ServiceID, t.ID, t.Headsign, t.ShortName,
			t.DirectionID, t.BlockID, t.ShapeID, t.WheelchairAccessible, t.BikesAllowed,
		})
	}

	err := w.copyIn("trips", []string{
		"run_id", "route_id", "service_id", "trip_id", "trip_headsign", "trip_short_name",
		"direction_id", "block_id", "shape_id", "wheelchair_accessible", "bikes_allowed",
	}, rows)
	if err != nil {
		return err
	}

	w.tripBuf = nil
	return nil
}

func (w *PSQLWriter) BeginStopTimes() error {
	return nil
}

func (w *PSQLWriter) WriteStopTime(stopTime model.StopTime) error {
	w.stopTimeBuf = append(w.stopTimeBuf, stopTime)

	if len(w.stopTimeBuf) >= PSQLStopTimeBatchSize {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}

	return nil
}

func (w *PSQLWriter) EndStopTimes() error {
	if len(w.stopTimeBuf) > 0 {
		err := w.flushStopTimes()
		if err != nil {
			return fmt.Errorf("flushing stop_times: %w", err)
		}
	}
	return nil
}

func (w *PSQLWriter) flushStopTimes() error {
	rows := make([][]interface{}, 0, len(w.stopTimeBuf))
	for _, st := range w.stopTimeBuf {
		rows = append(rows, []interface{}{
			w.runID, st.TripID, st.Arrival.String(), st.Departure.String(), st.StopID,
			st.StopSequence, st.Headsign, st.PickupType, st.DropOffType,
			st.ShapeDistTraveled, st.Timepoint,
		})
	}

	err := w.copyIn("stop_times", []string{
		"run_id", "trip_id", "arrival_time", "departure_time", "stop_id",
		"stop_sequence", "stop_headsign", "pickup_type", "drop_off_type",
		"shape_dist_traveled", "timepoint",
	}, rows)
	if err != nil {
		return err
	}

	w.stopTimeBuf = nil
	return nil
}

func (w *PSQLWriter) BeginShapes() error {
	return nil
}

func (w *PSQLWriter) WriteShapePoint(p model.ShapePoint) error {
	w.shapeBuf = append(w.shapeBuf, p)

	if len(w.shapeBuf) >= PSQLShapeBatchSize {
		err := w.flushShapes()
		if err != nil {
			return fmt.Errorf("flushing shapes: %w", err)
		}
	}

	return nil
}

func (w *PSQLWriter) EndShapes() error {
	if len(w.shapeBuf) > 0 {
		err := w.flushShapes()
		if err != nil {
			return fmt.Errorf("flushing shapes: %w", err)
		}
	}
	return nil
}

func (w *PSQLWriter) flushShapes() error {
	rows := make([][]interface{}, 0, len(w.shapeBuf))
	for _, p := range w.shapeBuf {
		rows = append(rows, []interface{}{
			w.runID, p.ShapeID, p.Lat, p.Lon, p.Sequence, p.ShapeDistTraveled,
		})
	}

	err := w.copyIn("shapes", []string{
		"run_id", "shape_id", "shape_pt_lat", "shape_pt_lon", "shape_pt_sequence", "shape_dist_traveled",
	}, rows)
	if err != nil {
		return err
	}

	w.shapeBuf = nil
	return nil
}

// Loads rows into table with a single COPY.
func (w *PSQLWriter) copyIn(table string, columns []string, rows [][]interface{}) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn(table, columns...))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err = stmt.Exec(row...)
		if err != nil {
			return fmt.Errorf("COPY %s: %w", table, err)
		}
	}

	_, err = stmt.Exec()
	if err != nil {
		return fmt.Errorf("executing statement: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return nil
}

func (w *PSQLWriter) WriteCalendar(c model.Calendar) error {
	_, err := w.db.Exec(`
INSERT INTO calendar (run_id, service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		w.runID,
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

func (w *PSQLWriter) Close() error {
	_, err := w.db.Exec(`ANALYZE`)
	if err != nil {
		w.db.Close()
		return fmt.Errorf("analyzing: %w", err)
	}

	err = w.db.Close()
	if err != nil {
		return fmt.Errorf("closing db: %w", err)
	}
	return nil
}

// Deletes every row written under the run ID and disconnects.
func (w *PSQLWriter) Abort() error {
	w.tripBuf = nil
	w.stopTimeBuf = nil
	w.shapeBuf = nil

	for _, name := range psqlTables {
		_, err := w.db.Exec(`DELETE FROM `+name+` WHERE run_id = $1`, w.runID)
		if err != nil {
			w.db.Close()
			return fmt.Errorf("deleting %s records: %w", name, err)
		}
	}

	err := w.db.Close()
	if err != nil {
		return fmt.Errorf("closing db: %w", err)
	}
	return nil
}
