package db

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeFlags parses a stored flags bag; an empty column decodes to the
// zero value.
func DecodeFlags(raw json.RawMessage) (PostFlags, error) {
	var flags PostFlags
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return flags, nil
	}
	if err := json.Unmarshal(trimmed, &flags); err != nil {
		return PostFlags{}, fmt.Errorf("decode post flags: %w", err)
	}
	return flags, nil
}

// EncodeFlags marshals a flags patch. Only the keys set on the struct are
// emitted, so a jsonb concatenation leaves the rest of the stored bag
// untouched.
func EncodeFlags(flags PostFlags) (json.RawMessage, error) {
	encoded, err := json.Marshal(flags)
	if err != nil {
		return nil, fmt.Errorf("encode post flags: %w", err)
	}
	return encoded, nil
}

func BoolFlag(value bool) *bool { return &value }
