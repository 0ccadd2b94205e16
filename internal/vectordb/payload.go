package vectordb

import (
	"encoding/json"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/ladleworks/ladle/internal/recipe"
)

// entryToPayload flattens an index entry into the generic map shape
// qdrant.NewValueMap accepts. A JSON round trip keeps the payload field
// names in lockstep with the IndexEntry json tags the filters match on.
func entryToPayload(entry *recipe.IndexEntry) (map[string]any, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("vectordb: failed to encode payload for %q: %w", entry.RecipeID, err)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("vectordb: failed to decode payload for %q: %w", entry.RecipeID, err)
	}
	return payload, nil
}

// payloadToEntry rebuilds an index entry from a stored Qdrant payload.
func payloadToEntry(payload map[string]*qdrant.Value) (*recipe.IndexEntry, error) {
	if payload == nil {
		return nil, nil
	}
	plain := make(map[string]any, len(payload))
	for k, v := range payload {
		plain[k] = valueToAny(v)
	}
	raw, err := json.Marshal(plain)
	if err != nil {
		return nil, fmt.Errorf("vectordb: failed to re-encode payload: %w", err)
	}
	var entry recipe.IndexEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("vectordb: payload does not decode as index entry: %w", err)
	}
	return &entry, nil
}

// valueToAny converts a Qdrant payload value into its plain Go equivalent.
func valueToAny(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		out := make([]any, 0, len(items))
		for _, item := range items {
			out = append(out, valueToAny(item))
		}
		return out
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		out := make(map[string]any, len(fields))
		for k, item := range fields {
			out[k] = valueToAny(item)
		}
		return out
	}
	return nil
}
