package util

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON marshals a value with consistent error wrapping. The hub uses
// this for every outbound envelope, so encode failures all read the same in
// the logs.
func MarshalJSON(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("JSON marshal error: %w", err)
	}
	return data, nil
}
