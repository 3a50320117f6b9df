// Package jsonl is an append-only JSON Lines sink for security events.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"leadgate/internal/security/events/models"
)

type Store struct {
	path string
	mu   sync.Mutex
}

// New ensures the parent directory exists.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create events dir: %w", err)
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) Name() string { return "jsonl" }

// Append writes one line per event. The file is opened per batch so log
// rotation by an external tool is picked up without a restart.
func (s *Store) Append(_ context.Context, events []models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush events file: %w", err)
	}
	return nil
}

// ReadAll returns every event in the file. A missing file is not an error.
func ReadAll(path string) ([]models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	var out []models.Event
	for {
		var e models.Event
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return out, fmt.Errorf("decode events: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
