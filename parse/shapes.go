package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

func ParseShapes(data io.Reader) ([]model.ShapePoint, error) {
	points, err := unmarshal[model.ShapePoint](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling shapes csv: %w", err)
	}

	for i, p := range points {
		if p.ShapeID == "" {
			return nil, fmt.Errorf("missing shape_id (row %d)", i+1)
		}
	}

	return points, nil
}
