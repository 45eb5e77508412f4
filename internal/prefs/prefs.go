package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JSON-backed preferences. Single file, human-readable, next to the
// credentials. Written whole on every change.

const fileName = "prefs.json"

// ViewMode is the calendar layout.
type ViewMode string

const (
	Week  ViewMode = "week"
	Month ViewMode = "month"
)

func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(strings.ToLower(strings.TrimSpace(s))); m {
	case Week, Month:
		return m, nil
	}
	return "", fmt.Errorf("unknown view mode %q (want week or month)", s)
}

// Toggle flips between week and month.
func (m ViewMode) Toggle() ViewMode {
	if m == Month {
		return Week
	}
	return Month
}

type Prefs struct {
	ViewMode ViewMode `json:"view_mode" yaml:"view_mode"`
}

func Defaults() Prefs { return Prefs{ViewMode: Week} }

// Store reads and writes prefs.json in Dir.
type Store struct {
	Dir string
}

func (s Store) path() string { return filepath.Join(s.Dir, fileName) }

// Load returns the saved preferences, or the defaults when there is no
// file yet. Unknown view modes fall back to the default.
func (s Store) Load() (Prefs, error) {
	p := Defaults()
	b, err := os.ReadFile(s.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read file: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return Defaults(), fmt.Errorf("json unmarshal: %w", err)
	}
	if _, err := ParseViewMode(string(p.ViewMode)); err != nil {
		p.ViewMode = Week
	}
	return p, nil
}

func (s Store) Save(p Prefs) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(s.path(), b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// SetViewMode loads, updates and saves in one step.
func (s Store) SetViewMode(m ViewMode) (Prefs, error) {
	p, err := s.Load()
	if err != nil {
		return p, err
	}
	p.ViewMode = m
	return p, s.Save(p)
}
