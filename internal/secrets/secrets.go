// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API credentials from a directory of plain-text
// files. Each file in the directory represents one secret: the filename
// is the key name and the file contents (trimmed) are the value.
//
// Supported key files: api-keys (comma-separated), insttoken.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File names recognized inside the secrets directory.
const (
	APIKeysFile   = "api-keys"
	InstTokenFile = "insttoken"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// APIKeys returns the keys listed in the api-keys file, split on commas
// with whitespace trimmed. Nil when the file is absent or empty.
func APIKeys(secrets map[string]string) []string {
	raw, ok := secrets[APIKeysFile]
	if !ok {
		return nil
	}
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if k := strings.TrimSpace(part); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// InstToken returns the institutional token, or "" when not configured.
func InstToken(secrets map[string]string) string {
	return secrets[InstTokenFile]
}
