package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// envelope is the upstream response wrapper. Only data is read; status and
// any other top-level fields are ignored.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrap decodes the envelope in body and then its data into T.
// It returns (nil, nil) when data is missing or null.
func unwrap[T any](body []byte) (*T, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if len(env.Data) == 0 || bytes.Equal(bytes.TrimSpace(env.Data), []byte("null")) {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	return &out, nil
}
