// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Init writes a fresh configuration file at path, or the default location
// when path is empty. With keys provided it runs without prompting, which
// suits CI setups; otherwise it asks on in/out for the API keys and an
// optional institutional token. An existing file is never overwritten.
func Init(path string, keys []string, insttoken string, in io.Reader, out io.Writer) (types.Config, error) {
	if path == "" {
		path = DefaultConfigFile()
	}
	if _, err := os.Stat(path); err == nil {
		return types.Config{}, fmt.Errorf("configuration file %s already exists", path)
	} else if !os.IsNotExist(err) {
		return types.Config{}, fmt.Errorf("checking configuration file: %w", err)
	}

	if len(keys) == 0 {
		var err error
		keys, insttoken, err = promptCredentials(in, out)
		if err != nil {
			return types.Config{}, err
		}
	}

	cfg := types.Config{
		Cache: types.CacheConfig{BaseDir: DefaultCacheDir()},
		Auth:  types.AuthConfig{APIKeys: keys, InstToken: insttoken},
		Requests: types.RequestsConfig{
			Timeout:          DefaultTimeout,
			Retries:          DefaultRetries,
			MaxSearchEntries: DefaultMaxSearchEntries,
			UserAgent:        DefaultUserAgent,
			Throttle:         true,
		},
		Logging: types.LoggingConfig{Level: DefaultLogLevel, MaxSizeMB: 10, MaxBackups: 3},
		Journal: types.JournalConfig{Enabled: false, Path: DefaultJournalPath()},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return types.Config{}, fmt.Errorf("encoding configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return types.Config{}, fmt.Errorf("creating configuration directory: %w", err)
	}
	// The file carries API keys, so keep it private.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return types.Config{}, fmt.Errorf("writing configuration file: %w", err)
	}

	fmt.Fprintf(out, "configuration file created at %s\n", path)
	return cfg, nil
}

func promptCredentials(in io.Reader, out io.Writer) ([]string, string, error) {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Please enter your API key(s), obtained from https://dev.elsevier.com/apikey.")
	fmt.Fprint(out, "Separate multiple keys by comma: ")
	line, err := readLine(reader)
	if err != nil {
		return nil, "", fmt.Errorf("reading API keys: %w", err)
	}
	keys := SplitKeys(line)
	if len(keys) == 0 {
		return nil, "", fmt.Errorf("at least one API key is required")
	}

	fmt.Fprint(out, "If you use InstToken authentication, enter the token, otherwise press Enter: ")
	token, err := readLine(reader)
	if err != nil {
		return nil, "", fmt.Errorf("reading InstToken: %w", err)
	}

	return keys, strings.TrimSpace(token), nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// SplitKeys splits a comma-separated key list, trimming whitespace and
// dropping empty items.
func SplitKeys(s string) []string {
	var keys []string
	for _, part := range strings.Split(s, ",") {
		if k := strings.TrimSpace(part); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
