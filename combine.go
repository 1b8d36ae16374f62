// Package combine merges several GTFS feeds into a single feed
// covering one service date.
package combine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"tidbyt.dev/combine/model"
	"tidbyt.dev/combine/report"
)

var (
	ErrNoActiveServices = errors.New("no active services")
	ErrNoFeeds          = errors.New("no feeds")
	ErrDuplicateFeed    = errors.New("duplicate feed name")
)

// A feed to be combined.
type Source interface {
	Name() string
	Load(ctx context.Context) (*model.Feed, error)
}

type Combiner struct {
	// The service date to restrict the output to.
	Date time.Time

	// Departure times of trips expanded from frequencies. Defaults
	// to NoDwell.
	Dwell DwellPolicy

	// Number of feeds processed concurrently. Values below 2 process
	// feeds one at a time.
	Workers int

	Reporter report.Reporter
}

// Loads and processes every source, then concatenates the results in
// source order. The returned feed has a single calendar record for
// Date, and all trips refer to it. Any error aborts the whole run.
func (c *Combiner) Combine(ctx context.Context, sources []Source) (*model.Feed, error) {
	if len(sources) == 0 {
		return nil, ErrNoFeeds
	}

	// feed names prefix every ID, so they must be unique
	names := map[string]bool{}
	for _, src := range sources {
		if names[src.Name()] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateFeed, src.Name())
		}
		names[src.Name()] = true
	}

	reporter := c.Reporter
	if reporter == nil {
		reporter = report.Nop
	}

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	feeds := make([]*model.Feed, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			feed, err := c.process(gctx, src, reporter)
			if err != nil {
				return err
			}
			feeds[i] = feed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := &model.Feed{
		Name:      "combined",
		Calendars: []model.Calendar{ServiceCalendar(c.Date)},
	}
	for _, feed := range feeds {
		combined.Agencies = append(combined.Agencies, feed.Agencies...)
		combined.Stops = append(combined.Stops, feed.Stops...)
		combined.Routes = append(combined.Routes, feed.Routes...)
		combined.Trips = append(combined.Trips, feed.Trips...)
		combined.StopTimes = append(combined.StopTimes, feed.StopTimes...)
		combined.Shapes = append(combined.Shapes, feed.Shapes...)
	}

	reporter.Report(slog.LevelInfo, "Combined feeds",
		"feeds", len(feeds),
		"trips", len(combined.Trips),
		"stop_times", len(combined.StopTimes),
		"service_date", DateInt(c.Date),
	)

	return combined, nil
}

// Restricts a single feed to the service date and namespaces its IDs.
func (c *Combiner) process(ctx context.Context, src Source, reporter report.Reporter) (*model.Feed, error) {
	name := src.Name()
	date := DateInt(c.Date)

	reporter.Report(slog.LevelInfo, "Loading feed", "feed", name)

	feed, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading feed %s: %w", name, err)
	}
	feed.Name = name

	services := ActiveServices(feed.Calendars, feed.CalendarDates, c.Date.Weekday(), date)
	if len(services) == 0 {
		return nil, fmt.Errorf("%w: feed %s has no service on %d", ErrNoActiveServices, name, date)
	}

	if len(feed.Frequencies) > 0 {
		before := len(feed.Trips)
		feed.Trips, feed.StopTimes, err = ExpandFrequencies(feed.Frequencies, feed.Trips, feed.StopTimes, c.Dwell)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", name, err)
		}
		reporter.Report(slog.LevelInfo, "Expanded frequencies",
			"feed", name,
			"rules", len(feed.Frequencies),
			"trips_before", before,
			"trips_after", len(feed.Trips),
		)
	}

	if len(feed.Agencies) > 0 {
		for i := range feed.Routes {
			if feed.Routes[i].AgencyID == "" {
				feed.Routes[i].AgencyID = feed.Agencies[0].ID
			}
		}
	}

	hasShapes := len(feed.Shapes) > 0

	NamespaceFeed(feed)

	trips := make([]model.Trip, 0, len(feed.Trips))
	tripIDs := map[string]bool{}
	routeIDs := map[string]bool{}
	for _, trip := range feed.Trips {
		if !services[trip.ServiceID] {
			continue
		}
		trip.ServiceID = ServiceID
		trips = append(trips, trip)
		tripIDs[trip.ID] = true
		routeIDs[trip.RouteID] = true
	}
	if len(trips) == 0 {
		reporter.Report(slog.LevelWarn, "No trips run on service date", "feed", name, "service_date", date)
	}
	feed.Trips = trips

	stopTimes := make([]model.StopTime, 0, len(feed.StopTimes))
	for _, st := range feed.StopTimes {
		if tripIDs[st.TripID] {
			stopTimes = append(stopTimes, st)
		}
	}
	feed.StopTimes = stopTimes

	if NeedsInterpolation(feed.StopTimes) {
		reporter.Report(slog.LevelInfo, "Interpolating stop times", "feed", name)
		err = InterpolateStopTimes(feed.StopTimes)
		if err != nil {
			return nil, fmt.Errorf("interpolating stop times of feed %s: %w", name, err)
		}
	}

	if !hasShapes {
		reporter.Report(slog.LevelWarn, fmt.Sprintf("Warning! Feed %s has no shapes, inferring them from stops.", name))
		feed.Shapes, feed.Trips, err = InferShapes(feed.Stops, feed.StopTimes, feed.Trips)
		if err != nil {
			return nil, fmt.Errorf("inferring shapes of feed %s: %w", name, err)
		}
	}

	stopIDs := map[string]bool{}
	for _, st := range feed.StopTimes {
		stopIDs[st.StopID] = true
	}
	stops := make([]model.Stop, 0, len(stopIDs))
	for _, stop := range feed.Stops {
		if stopIDs[stop.ID] {
			stops = append(stops, stop)
		}
	}
	feed.Stops = stops

	routes := make([]model.Route, 0, len(routeIDs))
	for _, route := range feed.Routes {
		if !routeIDs[route.ID] {
			continue
		}
		if route.ShortName == "" {
			route.ShortName = route.ID
		}
		routes = append(routes, route)
	}
	feed.Routes = routes

	shapeIDs := map[string]bool{}
	for _, trip := range feed.Trips {
		shapeIDs[trip.ShapeID] = true
	}
	shapes := make([]model.ShapePoint, 0, len(feed.Shapes))
	for _, sp := range feed.Shapes {
		if shapeIDs[sp.ShapeID] {
			shapes = append(shapes, sp)
		}
	}
	feed.Shapes = shapes

	feed.Calendars = nil
	feed.CalendarDates = nil
	feed.Frequencies = nil

	reporter.Report(slog.LevelInfo, "Processed feed",
		"feed", name,
		"trips", len(feed.Trips),
		"stop_times", len(feed.StopTimes),
		"stops", len(feed.Stops),
		"routes", len(feed.Routes),
		"shapes", len(feed.Shapes),
	)

	return feed, nil
}
