// Package roster discovers the guild's worker descriptors from a directory
// of YAML files, one worker per file.
package roster

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Worker describes one guild member available for delegation.
type Worker struct {
	Name         string   `yaml:"name" json:"name"`
	DisplayTitle string   `yaml:"display_title" json:"workerDisplayTitle"`
	Role         string   `yaml:"role" json:"role,omitempty"`
	Description  string   `yaml:"description" json:"description,omitempty"`
	Skills       []string `yaml:"skills" json:"skills,omitempty"`
}

// Validate checks the descriptor carries the required identity fields.
func (w Worker) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("roster: worker descriptor missing name")
	}
	return nil
}

// Normalized trims identity fields and defaults the display title to the name.
func (w Worker) Normalized() Worker {
	w.Name = strings.TrimSpace(w.Name)
	w.DisplayTitle = strings.TrimSpace(w.DisplayTitle)
	if w.DisplayTitle == "" {
		w.DisplayTitle = w.Name
	}
	w.Role = strings.TrimSpace(w.Role)
	return w
}

// ParseWorkerYAML decodes and validates a single worker descriptor payload.
func ParseWorkerYAML(data []byte) (Worker, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Worker{}, fmt.Errorf("roster: descriptor payload is empty")
	}
	var w Worker
	if err := yaml.Unmarshal(data, &w); err != nil {
		return Worker{}, fmt.Errorf("roster: decode descriptor: %w", err)
	}
	if err := w.Validate(); err != nil {
		return Worker{}, err
	}
	return w.Normalized(), nil
}

// LoadWorkerFile reads a YAML file from disk and returns the parsed worker.
func LoadWorkerFile(path string) (Worker, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Worker{}, fmt.Errorf("roster: read %s: %w", path, err)
	}
	w, err := ParseWorkerYAML(data)
	if err != nil {
		return Worker{}, fmt.Errorf("roster: %s: %w", path, err)
	}
	return w, nil
}

// LoadDir scans a directory for *.yaml worker descriptors. A missing
// directory means an empty roster; duplicate worker names are an error.
func LoadDir(dir string) ([]Worker, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("roster: read %s: %w", trimmed, err)
	}
	seen := make(map[string]string)
	var workers []Worker
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		w, err := LoadWorkerFile(path)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(w.Name)
		if existing, ok := seen[key]; ok {
			return nil, fmt.Errorf("roster: duplicate worker %s (%s and %s)", w.Name, existing, path)
		}
		seen[key] = path
		workers = append(workers, w)
	}
	sort.Slice(workers, func(i, j int) bool {
		return strings.ToLower(workers[i].Name) < strings.ToLower(workers[j].Name)
	})
	return workers, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
