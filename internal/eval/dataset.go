package eval

import (
	"encoding/json"
	"fmt"
	"os"
)

// Row is one query of an evaluation dataset.
type Row struct {
	// ID identifies the row within the dataset.
	ID int `json:"id"`

	// Question is the user query fed through the pipeline.
	Question string `json:"question"`

	// ExpectedProperties is the raw expected-properties value; parsed with
	// ParseExpectedProperties before use. Optional: rows without it skip
	// retrieval metrics.
	ExpectedProperties any `json:"expected_properties,omitempty"`
}

// LoadDataset reads a JSON dataset file: an array of rows. limit > 0 caps
// the number of rows returned (useful for smoke tests).
func LoadDataset(path string, limit int) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("eval: failed to read dataset %s: %w", path, err)
	}
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("eval: failed to parse dataset %s: %w", path, err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// ParseExpectedProperties coerces a raw expected_properties value into a
// map. Accepts nil or an empty string (empty map), a JSON object value, or
// a string holding encoded JSON. Anything else is a validation error
// carrying the offending value.
func ParseExpectedProperties(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return map[string]any{}, nil
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, fmt.Errorf("eval: could not parse expected_properties %q: %w", v, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("eval: expected_properties must be a map, got %T: %v", raw, raw)
	}
}
