package parse

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spkg/bom"

	"tidbyt.dev/combine/model"
	"tidbyt.dev/combine/report"
)

var (
	ErrMissingFile = errors.New("is missing")
	ErrEmptyFile   = errors.New("is empty")
)

// FileError is a problem with one file of one feed.
type FileError struct {
	Feed string
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s from feed %s: %v", e.File, e.Feed, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// These are the files we load from each feed.
var (
	RequiredFiles = []string{"agency.txt", "stops.txt", "routes.txt", "trips.txt", "stop_times.txt"}
	OptionalFiles = []string{"calendar.txt", "calendar_dates.txt", "shapes.txt", "frequencies.txt"}
)

// Parses all files of a feed found in fsys.
//
// Files are looked up by base name anywhere in fsys, since some
// agencies put everything in a subdirectory of their archive. A
// required file that is missing or empty is a *FileError. Missing or
// empty optional files are reported as warnings and yield empty
// tables.
func ParseFeed(name string, fsys fs.FS, reporter report.Reporter) (*model.Feed, error) {
	if reporter == nil {
		reporter = report.Nop
	}

	files, err := findFiles(fsys)
	if err != nil {
		return nil, fmt.Errorf("listing files of feed %s: %w", name, err)
	}

	p := &feedParser{
		name:     name,
		fsys:     fsys,
		files:    files,
		reporter: reporter,
	}

	feed := &model.Feed{Name: name}

	feed.Agencies, err = parseFile(p, "agency.txt", true, ParseAgency)
	if err != nil {
		return nil, err
	}
	feed.Stops, err = parseFile(p, "stops.txt", true, ParseStops)
	if err != nil {
		return nil, err
	}
	feed.Routes, err = parseFile(p, "routes.txt", true, ParseRoutes)
	if err != nil {
		return nil, err
	}
	feed.Trips, err = parseFile(p, "trips.txt", true, ParseTrips)
	if err != nil {
		return nil, err
	}
	feed.StopTimes, err = parseFile(p, "stop_times.txt", true, ParseStopTimes)
	if err != nil {
		return nil, err
	}
	feed.Calendars, err = parseFile(p, "calendar.txt", false, ParseCalendar)
	if err != nil {
		return nil, err
	}
	feed.CalendarDates, err = parseFile(p, "calendar_dates.txt", false, ParseCalendarDates)
	if err != nil {
		return nil, err
	}
	feed.Shapes, err = parseFile(p, "shapes.txt", false, ParseShapes)
	if err != nil {
		return nil, err
	}
	feed.Frequencies, err = parseFile(p, "frequencies.txt", false, ParseFrequencies)
	if err != nil {
		return nil, err
	}

	reporter.Report(slog.LevelInfo, "Parsed feed",
		"feed", name,
		"agencies", len(feed.Agencies),
		"routes", len(feed.Routes),
		"stops", len(feed.Stops),
		"trips", len(feed.Trips),
		"stop_times", len(feed.StopTimes),
		"shapes", len(feed.Shapes),
		"frequencies", len(feed.Frequencies),
	)

	return feed, nil
}

type feedParser struct {
	name     string
	fsys     fs.FS
	files    map[string]string
	reporter report.Reporter
}

func parseFile[T any](
	p *feedParser,
	fileName string,
	required bool,
	parseFn func(io.Reader) ([]T, error),
) ([]T, error) {

	filePath, found := p.files[fileName]
	if !found {
		if required {
			return nil, &FileError{Feed: p.name, File: fileName, Err: ErrMissingFile}
		}
		p.reporter.Report(slog.LevelWarn, fmt.Sprintf("Warning! %s from feed %s is missing.", fileName, p.name))
		return []T{}, nil
	}

	f, err := p.fsys.Open(filePath)
	if err != nil {
		return nil, &FileError{Feed: p.name, File: fileName, Err: err}
	}
	defer f.Close()

	rows, err := parseFn(f)
	if err != nil {
		return nil, &FileError{Feed: p.name, File: fileName, Err: err}
	}

	if len(rows) == 0 {
		if required {
			return nil, &FileError{Feed: p.name, File: fileName, Err: ErrEmptyFile}
		}
		p.reporter.Report(slog.LevelWarn, fmt.Sprintf("Warning! %s from feed %s is empty.", fileName, p.name))
	}

	return rows, nil
}

// Maps base name to path for every file we know how to parse. The
// shallowest match wins.
func findFiles(fsys fs.FS) (map[string]string, error) {
	known := map[string]bool{}
	for _, name := range RequiredFiles {
		known[name] = true
	}
	for _, name := range OptionalFiles {
		known[name] = true
	}

	files := map[string]string{}
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// macOS archives carry resource forks with the same names
		if d.IsDir() {
			if d.Name() == "__MACOSX" {
				return fs.SkipDir
			}
			return nil
		}
		base := path.Base(p)
		if !known[base] {
			return nil
		}
		if prev, found := files[base]; found && strings.Count(prev, "/") <= strings.Count(p, "/") {
			return nil
		}
		files[base] = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Decodes CSV rows into T. A completely empty input yields no rows
// and no error.
func unmarshal[T any](data io.Reader) ([]T, error) {
	rows := []T{}
	err := gocsv.UnmarshalCSV(newTrimReader(bom.NewReader(data)), &rows)
	if err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return []T{}, nil
		}
		return nil, err
	}
	return rows, nil
}

// Wraps gocsv's lazy reader, which is needed (at least) to survive
// sloppy use of quotes. Header names lose all spaces and cells are
// trimmed.
type trimReader struct {
	r          gocsv.CSVReader
	seenHeader bool
}

func newTrimReader(in io.Reader) *trimReader {
	r := gocsv.LazyCSVReader(in)
	if cr, ok := r.(*csv.Reader); ok {
		// short rows are legal, the missing cells are empty
		cr.FieldsPerRecord = -1
	}
	return &trimReader{r: r}
}

func (t *trimReader) Read() ([]string, error) {
	record, err := t.r.Read()
	if err != nil {
		return nil, err
	}

	if !t.seenHeader {
		t.seenHeader = true
		for i, name := range record {
			record[i] = strings.ReplaceAll(name, " ", "")
		}
		return record, nil
	}

	for i, cell := range record {
		record[i] = strings.TrimSpace(cell)
	}
	return record, nil
}

func (t *trimReader) ReadAll() ([][]string, error) {
	records := [][]string{}
	for {
		record, err := t.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}
