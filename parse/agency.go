package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

func ParseAgency(data io.Reader) ([]model.Agency, error) {
	agencies, err := unmarshal[model.Agency](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling agency csv: %w", err)
	}

	seen := map[string]bool{}
	for _, a := range agencies {
		if a.ID == "" {
			// agency_id is only required with multiple
			// agencies
			if len(agencies) > 1 {
				return nil, fmt.Errorf("missing agency_id")
			}
			continue
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicated agency_id: '%s'", a.ID)
		}
		seen[a.ID] = true
	}

	return agencies, nil
}
