package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thatsimonsguy/ihp-controller/internal/ihp"
)

// Checkpoint is the runtime state of every unit at the end of a run.
type Checkpoint struct {
	SavedAt time.Time   `json:"saved_at"`
	Step    int         `json:"step"`
	Units   []ihp.State `json:"units"`
}

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() (*Checkpoint, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", s.path, err)
	}
	return &cp, nil
}

// Save writes to a temp file and renames it into place.
func (s *Store) Save(cp *Checkpoint) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmpPath := s.path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		return err
	}
	file.Sync()
	file.Close()

	return os.Rename(tmpPath, s.path)
}

// Restore pushes saved unit state back into sys. Units missing from sys are
// skipped and returned by name.
func Restore(sys *ihp.System, cp *Checkpoint) (skipped []string, err error) {
	for _, st := range cp.Units {
		if err := sys.Restore(st); err != nil {
			var le *ihp.LookupError
			if errors.As(err, &le) {
				skipped = append(skipped, st.Name)
				continue
			}
			return skipped, err
		}
	}
	return skipped, nil
}
