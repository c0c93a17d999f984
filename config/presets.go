package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"househunt/internal/models"
)

// ErrNoPresets is returned when the preset file holds no criteria
var ErrNoPresets = errors.New("no criteria presets configured")

// PresetStore loads and saves the starter criteria offered to new users.
type PresetStore struct {
	path    string
	mu      sync.RWMutex
	presets []models.Criterion
}

type presetFile struct {
	Criteria []models.Criterion `json:"criteria"`
}

func NewPresetStore(path string) *PresetStore {
	return &PresetStore{path: path}
}

// Load reads the preset file. Every criterion is sanitized on the way in.
func (s *PresetStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read presets file: %w", err)
	}

	var file presetFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse presets: %w", err)
	}

	for i := range file.Criteria {
		file.Criteria[i].Sanitize()
		if file.Criteria[i].Position == 0 {
			file.Criteria[i].Position = i
		}
	}
	s.presets = file.Criteria
	return nil
}

// Save writes the current presets back to disk
func (s *PresetStore) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	absPath, err := filepath.Abs(s.path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	data, err := json.MarshalIndent(presetFile{Criteria: s.presets}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	if err := os.WriteFile(absPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets file: %w", err)
	}
	return nil
}

// Criteria returns a copy of the loaded presets
func (s *PresetStore) Criteria() ([]models.Criterion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.presets) == 0 {
		return nil, ErrNoPresets
	}
	out := make([]models.Criterion, len(s.presets))
	copy(out, s.presets)
	return out, nil
}

// Set replaces the presets in memory; call Save to persist them.
func (s *PresetStore) Set(criteria []models.Criterion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.presets = make([]models.Criterion, len(criteria))
	for i, c := range criteria {
		c.Sanitize()
		s.presets[i] = c
	}
}
