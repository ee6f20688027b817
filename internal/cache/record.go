// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformed marks a cache file whose contents do not parse as the JSON
// shape the file is supposed to hold. Callers treat it as a cache miss.
var ErrMalformed = errors.New("malformed cache file")

// ReadSearch loads a search cache file: one compact JSON document per line,
// in service-return order. An empty file is a valid zero-result cache.
// A line that fails to parse wraps ErrMalformed (R2.4).
func ReadSearch(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []json.RawMessage
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		raw := json.RawMessage(line)
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: %s line %d", ErrMalformed, path, i+1)
		}
		entries = append(entries, raw)
	}
	return entries, nil
}

// ReadRetrieval loads a retrieval cache file holding exactly one JSON
// document. An empty or unparsable file wraps ErrMalformed.
func ReadRetrieval(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc := json.RawMessage(bytes.TrimSpace(data))
	if len(doc) == 0 || !json.Valid(doc) {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, path)
	}
	return doc, nil
}

// Write persists entries as newline-separated compact JSON. The file is
// staged in a temp file in the destination directory and renamed into
// place, so readers never observe a partial write (R2.5). Zero entries
// produce an empty file; a retrieval record is the one-entry case.
func Write(path string, entries []json.RawMessage) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	var buf bytes.Buffer
	for i, entry := range entries {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if err := json.Compact(&buf, entry); err != nil {
			return fmt.Errorf("compacting entry %d: %w", i, err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting cache file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("placing cache file: %w", err)
	}
	return nil
}
