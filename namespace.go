package combine

import (
	"tidbyt.dev/combine/model"
)

// Prefixes id with the feed name. Empty IDs stay empty, so that
// absent references never start matching each other.
func Namespaced(feed string, id string) string {
	if id == "" {
		return ""
	}
	return feed + "_" + id
}

// Namespaces one identifier column, selected by column, of every row.
func Namespace[T any](rows []T, feed string, column func(*T) *string) {
	for i := range rows {
		p := column(&rows[i])
		*p = Namespaced(feed, *p)
	}
}

// Namespaces every cross-referencing identifier of the feed: trip,
// route, shape and stop IDs, wherever they appear. Agency and service
// IDs are left alone; services are replaced wholesale and agencies
// are copied verbatim.
func NamespaceFeed(feed *model.Feed) {
	name := feed.Name

	Namespace(feed.Trips, name, func(t *model.Trip) *string { return &t.ID })
	Namespace(feed.Trips, name, func(t *model.Trip) *string { return &t.RouteID })
	Namespace(feed.Trips, name, func(t *model.Trip) *string { return &t.ShapeID })

	Namespace(feed.StopTimes, name, func(st *model.StopTime) *string { return &st.TripID })
	Namespace(feed.StopTimes, name, func(st *model.StopTime) *string { return &st.StopID })

	Namespace(feed.Stops, name, func(s *model.Stop) *string { return &s.ID })
	Namespace(feed.Routes, name, func(r *model.Route) *string { return &r.ID })
	Namespace(feed.Shapes, name, func(sp *model.ShapePoint) *string { return &sp.ShapeID })
}
