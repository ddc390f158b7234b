// internal/directory/directory.go
//
// Participant directory: maps a participant name to the opaque handle the
// transport delivers to, plus the name of their last game partner.
//
// Persistence is a single flat JSON file, loaded at startup and rewritten in
// full on every update. Last writer wins on concurrent rewrite — acceptable
// for a single-process deployment.

package directory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is one participant's persisted record.
type Entry struct {
	Handle      string `json:"handle"`
	LastPartner string `json:"lastPartner,omitempty"`
}

// Directory resolves participant names to delivery handles and remembers
// last-paired partners.
type Directory interface {
	// Resolve returns the participant's delivery handle, if known.
	Resolve(name string) (string, bool)

	// LastPartner returns the participant's most recent game partner, if any.
	LastPartner(name string) (string, bool)

	// Record stores the participant's handle and, when lastPartner is
	// non-empty, their last partner. The backing file is rewritten in full.
	Record(name, handle, lastPartner string) error
}

// File is the JSON-file-backed Directory.
type File struct {
	path string
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]Entry
}

// Open loads the directory from path. A missing file yields an empty
// directory; a corrupt file is an error so a deployment notices it.
func Open(path string, log zerolog.Logger) (*File, error) {
	f := &File{path: path, log: log, entries: make(map[string]Entry)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	if err := json.Unmarshal(data, &f.entries); err != nil {
		return nil, fmt.Errorf("parse directory file %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("entries", len(f.entries)).Msg("directory loaded")
	return f, nil
}

func (f *File) Resolve(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[name]
	if !ok || e.Handle == "" {
		return "", false
	}
	return e.Handle, true
}

func (f *File) LastPartner(name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[name]
	if !ok || e.LastPartner == "" {
		return "", false
	}
	return e.LastPartner, true
}

func (f *File) Record(name, handle, lastPartner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[name]
	e.Handle = handle
	if lastPartner != "" {
		e.LastPartner = lastPartner
	}
	f.entries[name] = e
	return f.rewrite()
}

// rewrite persists the whole entry map. Caller holds f.mu.
func (f *File) rewrite() error {
	if dir := filepath.Dir(f.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(f.entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write directory file: %w", err)
	}
	return nil
}
