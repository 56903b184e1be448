// Package daemon tracks a running tracker server through a state file.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNotRunning is returned when no live server is recorded.
var ErrNotRunning = errors.New("server not running")

// Record describes a running server.
type Record struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"startedAt"`
}

// Uptime returns how long the server has been running.
func (r *Record) Uptime() time.Duration {
	return time.Since(r.StartedAt).Truncate(time.Second)
}

// StateFile manages the server state file.
type StateFile struct {
	Path string
}

// NewStateFile creates a StateFile for the given path.
func NewStateFile(path string) *StateFile {
	return &StateFile{Path: path}
}

// Write records the current process as serving on addr.
func (s *StateFile) Write(addr string) error {
	return s.WriteRecord(Record{PID: os.Getpid(), Addr: addr, StartedAt: time.Now().UTC()})
}

// WriteRecord writes rec to the state file.
func (s *StateFile) WriteRecord(rec Record) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, append(data, '\n'), 0o644)
}

// Read loads the recorded server.
func (s *StateFile) Read() (*Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid state file content: %w", err)
	}
	if rec.PID <= 0 {
		return nil, fmt.Errorf("invalid state file content: pid %d", rec.PID)
	}
	return &rec, nil
}

// Remove deletes the state file. A missing file is not an error.
func (s *StateFile) Remove() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Running returns the recorded server if its process is alive. A stale
// file left by a crashed server is removed.
func (s *StateFile) Running() (*Record, error) {
	rec, err := s.Read()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotRunning
	}
	if err != nil {
		return nil, err
	}
	if !alive(rec.PID) {
		_ = s.Remove()
		return nil, ErrNotRunning
	}
	return rec, nil
}

// Stop asks the recorded server to shut down and waits until it exits or
// ctx is done.
func (s *StateFile) Stop(ctx context.Context) (*Record, error) {
	rec, err := s.Running()
	if err != nil {
		return nil, err
	}
	if err := terminate(rec.PID); err != nil {
		return rec, fmt.Errorf("signal process %d: %w", rec.PID, err)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if !alive(rec.PID) {
			_ = s.Remove()
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return rec, fmt.Errorf("waiting for process %d to exit: %w", rec.PID, ctx.Err())
		case <-ticker.C:
		}
	}
}
