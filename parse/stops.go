package parse

import (
	"fmt"
	"io"

	"tidbyt.dev/combine/model"
)

func ParseStops(data io.Reader) ([]model.Stop, error) {
	stops, err := unmarshal[model.Stop](data)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling stops csv: %w", err)
	}

	stopIDs := map[string]bool{}
	for _, st := range stops {
		if st.ID == "" {
			return nil, fmt.Errorf("empty stop_id")
		}
		if stopIDs[st.ID] {
			return nil, fmt.Errorf("repeated stop_id '%s'", st.ID)
		}
		stopIDs[st.ID] = true
	}

	return stops, nil
}
