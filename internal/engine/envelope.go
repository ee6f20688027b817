// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexTotal unmarshals a match count that the service reports either as a
// JSON string or as a number. Anything unparsable counts as zero.
type flexTotal int

func (f *flexTotal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexTotal(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		*f = 0
		return nil
	}
	*f = flexTotal(n)
	return nil
}

// searchEnvelope is the paginated wrapper around search results.
type searchEnvelope struct {
	Results struct {
		TotalResults flexTotal `json:"opensearch:totalResults"`
		Cursor       struct {
			Next string `json:"@next"`
		} `json:"cursor"`
		Entry []json.RawMessage `json:"entry"`
	} `json:"search-results"`
}

func (env *searchEnvelope) total() int {
	return int(env.Results.TotalResults)
}

func (env *searchEnvelope) entries() []json.RawMessage {
	return env.Results.Entry
}

func (env *searchEnvelope) nextCursor() string {
	return env.Results.Cursor.Next
}

func parseEnvelope(api string, body []byte) (*searchEnvelope, error) {
	var env searchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing %s search envelope: %w", api, err)
	}
	return &env, nil
}
