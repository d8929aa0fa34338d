package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// FindJSONObject returns the first top-level JSON object embedded in raw.
// Leading or trailing prose and markdown code fences are tolerated; anything
// after the object is ignored.
func FindJSONObject(raw string) (json.RawMessage, error) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return nil, ErrLLMResponseJSONFind
	}
	dec := json.NewDecoder(strings.NewReader(raw[start:]))
	var obj json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLLMResponseJSONFind, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(obj), []byte("{")) {
		return nil, ErrLLMResponseJSONFind
	}
	return obj, nil
}
