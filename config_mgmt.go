package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// loadConfigurations parses every *.json file in dir, in name order. construct receives the file
// name without extension and returns the value to decode into.
func loadConfigurations[T any](dir string, kind string, construct func(name string) *T) ([]T, error) {
	if err := os.MkdirAll(dir, DefaultDirectoryPermissions); err != nil {
		return nil, fmt.Errorf("failed to ensure %s configuration directory exists: %w", kind, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory listing for %s configurations: %w", kind, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var retCfgs []T

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		fullPath := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(fullPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s configuration file '%s': %w", kind, fullPath, err)
		}

		cfg := construct(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))

		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s configuration file '%s': %w", kind, fullPath, err)
		}

		retCfgs = append(retCfgs, *cfg)
	}

	return retCfgs, nil
}

// resolvePath makes relative paths relative to base.
func resolvePath(base string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(base, path)
}
