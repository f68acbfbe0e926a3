// Package template persists named watermark settings bags. The core treats a
// bag as an opaque record; it is stored verbatim and returned verbatim.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrTemplateNotFound is returned when no template exists under a name.
var ErrTemplateNotFound = errors.New("template not found")

// Store is a file-backed template store: one JSON document mapping template
// names to settings bags. Writes go through a temp file plus rename so a
// crash cannot leave a half-written store behind.
type Store struct {
	mu        sync.Mutex
	path      string
	templates map[string]json.RawMessage
}

// NewStore loads the store at path, starting empty if the file is missing.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, templates: make(map[string]json.RawMessage)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(data, &s.templates); err != nil {
		return nil, fmt.Errorf("parse template store: %w", err)
	}
	return s, nil
}

// Get returns the settings bag stored under name.
func (s *Store) Get(name string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bag, ok := s.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	return bag, nil
}

// Put stores a settings bag under name, replacing any existing one.
func (s *Store) Put(name string, bag json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.templates[name] = bag
	return s.saveLocked()
}

// Delete removes the template stored under name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[name]; !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	delete(s.templates, name)
	return s.saveLocked()
}

// List returns all template names in sorted order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.templates, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write template store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace template store: %w", err)
	}
	return nil
}
