package domain

import (
	"encoding/json"
	"fmt"
)

// DecodeRawBatch parses a source payload into raw records. The payload is
// either a JSON array of objects or an object wrapping that array under
// "records" or "data". Array elements that are not objects become empty
// records, which the validity filter drops.
func DecodeRawBatch(data []byte) ([]RawRecord, error) {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode raw batch: %w", err)
	}

	var items []any
	switch t := top.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, key := range []string{"records", "data"} {
			if arr, ok := t[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, fmt.Errorf("decode raw batch: object payload has no records array")
		}
	default:
		return nil, fmt.Errorf("decode raw batch: unexpected payload type %T", top)
	}

	batch := make([]RawRecord, len(items))
	for i, item := range items {
		if obj, ok := item.(map[string]any); ok {
			batch[i] = RawRecord(obj)
			continue
		}
		batch[i] = RawRecord{}
	}
	return batch, nil
}
