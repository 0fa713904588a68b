package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// State describes the last successful load.
type State struct {
	RunID       string    `json:"run_id"`
	FinishedAt  time.Time `json:"finished_at"`
	Territories int       `json:"territories"`
	Entries     int       `json:"entries"`
}

// LoadState returns the zero State when no state file exists yet.
func LoadState(path string) (State, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	var s State
	if err := json.Unmarshal(b, &s); err != nil {
		return State{}, fmt.Errorf("decode state %s: %w", path, err)
	}
	return s, nil
}

func SaveState(path string, s State) error {
	b, err := json.MarshalIndent(s, "", " ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
