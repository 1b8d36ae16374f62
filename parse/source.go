package parse

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tidbyt.dev/combine/downloader"
	"tidbyt.dev/combine/model"
	"tidbyt.dev/combine/report"
)

// DirSource is a feed unpacked into a directory. The directory name
// is the feed name.
type DirSource struct {
	FeedName string
	Path     string
	Reporter report.Reporter
}

func (s *DirSource) Name() string { return s.FeedName }

func (s *DirSource) Load(ctx context.Context) (*model.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseFeed(s.FeedName, os.DirFS(s.Path), s.Reporter)
}

// ZipSource is a feed archive on disk. The archive name without its
// extension is the feed name.
type ZipSource struct {
	FeedName string
	Path     string
	Reporter report.Reporter
}

func (s *ZipSource) Name() string { return s.FeedName }

func (s *ZipSource) Load(ctx context.Context) (*model.Feed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := zip.OpenReader(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}
	defer rc.Close()

	return ParseFeed(s.FeedName, &rc.Reader, s.Reporter)
}

// RemoteSource is a feed archive fetched over HTTP.
type RemoteSource struct {
	FeedName   string
	URL        string
	Headers    map[string]string
	Downloader downloader.Downloader
	Options    downloader.GetOptions
	Reporter   report.Reporter
}

func (s *RemoteSource) Name() string { return s.FeedName }

func (s *RemoteSource) Load(ctx context.Context) (*model.Feed, error) {
	d := s.Downloader
	if d == nil {
		d = downloader.NewMemoryDownloader()
	}

	options := s.Options
	if options.Timeout == 0 {
		options.Timeout = 60 * time.Second
	}

	body, err := d.Get(ctx, s.URL, s.Headers, options)
	if err != nil {
		return nil, fmt.Errorf("downloading feed %s: %w", s.FeedName, err)
	}

	reader, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("unzipping feed %s: %w", s.FeedName, err)
	}

	return ParseFeed(s.FeedName, reader, s.Reporter)
}

// Source is satisfied by all feed sources in this package. It mirrors
// combine.Source, which can't be imported here without a cycle.
type Source interface {
	Name() string
	Load(ctx context.Context) (*model.Feed, error)
}

// Lists the feeds in dir. Every subdirectory is a feed. When there
// are no subdirectories, every .zip archive is a feed. Feeds are
// returned sorted by name, which fixes the order of the combined
// output.
func Discover(dir string, reporter report.Reporter) ([]Source, error) {
	if reporter == nil {
		reporter = report.Nop
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading feed dir: %w", err)
	}

	names := []string{}
	isDir := map[string]bool{}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") || e.Name() == "__MACOSX" {
			continue
		}
		if e.IsDir() {
			names = append(names, e.Name())
			isDir[e.Name()] = true
		}
	}

	if len(names) == 0 {
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".zip") {
				continue
			}
			names = append(names, e.Name())
		}
	}

	sort.Strings(names)

	sources := []Source{}
	for _, name := range names {
		path := filepath.Join(dir, name)
		if isDir[name] {
			sources = append(sources, &DirSource{FeedName: name, Path: path, Reporter: reporter})
			continue
		}
		feedName := strings.TrimSuffix(name, filepath.Ext(name))
		sources = append(sources, &ZipSource{FeedName: feedName, Path: path, Reporter: reporter})
	}

	if len(sources) == 0 {
		reporter.Report(slog.LevelWarn, "No feeds found", "dir", dir)
	}

	return sources, nil
}
