package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

func legalRouteType(t model.RouteType) bool {
	if t >= 0 && t <= 7 {
		return true
	}
	if t >= 11 && t <= 12 {
		return true
	}
	return false
}

func ParseRoutes(data io.Reader) ([]model.Route, error) {
	routes, err := unmarshal[model.Route](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling routes: %w", err)
	}

	routeIDs := map[string]bool{}
	for _, r := range routes {
		// ID is required
		if r.ID == "" {
			return nil, fmt.Errorf("route has no route_id")
		}
		if routeIDs[r.ID] {
			return nil, fmt.Errorf("repeated route_id: '%s'", r.ID)
		}
		routeIDs[r.ID] = true

		if !legalRouteType(r.Type) {
			return nil, fmt.Errorf("route_id '%s' has invalid route_type: %d", r.ID, r.Type)
		}
	}

	return routes, nil
}
