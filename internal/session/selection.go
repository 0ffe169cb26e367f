package session

import (
	"errors"
	"fmt"
)

var ErrUnknownCategory = errors.New("unknown category")

// ReimportMode decides what happens to the selector when a second export is imported.
type ReimportMode int

const (
	// ReimportReplace discards the previous selector.
	ReimportReplace ReimportMode = iota
	// ReimportAccumulate appends a new entry per category, keeping the old ones.
	ReimportAccumulate
)

func ParseReimportMode(s string) (ReimportMode, error) {
	switch s {
	case "", "replace":
		return ReimportReplace, nil
	case "accumulate":
		return ReimportAccumulate, nil
	default:
		return ReimportReplace, fmt.Errorf("unknown reimport mode %q", s)
	}
}

func (m ReimportMode) String() string {
	if m == ReimportAccumulate {
		return "accumulate"
	}
	return "replace"
}

// Entry is one row of the selector.
type Entry struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	Active   bool   `json:"active"`
}

// Selection maps categories to their active flag. Several entries may share a
// category; they all reflect the same flag.
type Selection struct {
	entries []string
	order   []string
	active  map[string]bool
}

func (s *Selection) reset() {
	s.entries = nil
	s.order = nil
	s.active = nil
}

// add appends an entry per category, each one active.
func (s *Selection) add(categories []string) {
	if s.active == nil {
		s.active = make(map[string]bool, len(categories))
	}
	for _, category := range categories {
		if _, known := s.active[category]; !known {
			s.order = append(s.order, category)
		}
		s.active[category] = true
		s.entries = append(s.entries, category)
	}
}

func (s *Selection) set(category string, active bool) error {
	if _, known := s.active[category]; !known {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	s.active[category] = active
	return nil
}

// Active lists the active categories in the order they were first added.
func (s *Selection) Active() []string {
	var active []string
	for _, category := range s.order {
		if s.active[category] {
			active = append(active, category)
		}
	}
	return active
}

func (s *Selection) IsActive(category string) bool {
	return s.active[category]
}

func (s *Selection) Entries() []Entry {
	entries := make([]Entry, len(s.entries))
	for i, category := range s.entries {
		entries[i] = Entry{ID: i, Category: category, Active: s.active[category]}
	}
	return entries
}
