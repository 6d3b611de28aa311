package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var errPatchNotObject = errors.New("patch must be a JSON object")

// shallowMerge overlays the top-level keys of patch on the JSON form of cur
// and decodes the result into a fresh value, so nothing in cur is shared
// with or modified by the merged record.
func shallowMerge[T any](cur T, patch json.RawMessage) (T, error) {
	var zero T

	patch = bytes.TrimSpace(patch)
	if len(patch) == 0 || patch[0] != '{' {
		return zero, errPatchNotObject
	}

	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil {
		return zero, fmt.Errorf("decode patch: %w", err)
	}
	delete(overlay, "_id")

	base, err := json.Marshal(cur)
	if err != nil {
		return zero, fmt.Errorf("encode record: %w", err)
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &fields); err != nil {
		return zero, fmt.Errorf("decode record: %w", err)
	}

	for k, v := range overlay {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("encode merged: %w", err)
	}

	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("decode merged: %w", err)
	}

	return out, nil
}
