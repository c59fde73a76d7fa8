package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Filters defines the structure for mail ignore rules. Messages matching
// a rule are never replied to. Sensible defaults cover the addresses an
// auto-replier must not answer (no-reply senders, list mail).
type Filters struct {
	IgnoreSenders           []string `json:"ignoreSenders"`
	IgnoreKeywordsInSubject []string `json:"ignoreKeywordsInSubject"`
}

// DefaultFilters returns the built-in ignore rules.
func DefaultFilters() Filters {
	return Filters{
		IgnoreSenders:           []string{"no-reply", "noreply", "mailer-daemon", "postmaster"},
		IgnoreKeywordsInSubject: []string{"unsubscribe", "auto-reply", "automatic reply", "out of office"},
	}
}

// FilterManager handles loading, saving, and matching ignore rules.
type FilterManager struct {
	filePath string
	filters  Filters
	mu       sync.RWMutex
}

// NewFilterManager creates a filter manager backed by the JSON file at
// filePath. An empty filePath yields the built-in defaults with no
// persistence. A missing file is created with the defaults.
func NewFilterManager(filePath string) (*FilterManager, error) {
	m := &FilterManager{
		filePath: filePath,
		filters:  DefaultFilters(),
	}
	if filePath == "" {
		return m, nil
	}
	if err := m.load(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FilterManager) load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create the file with the defaults so operators can edit it
			return m.save()
		}
		return fmt.Errorf("failed to read filter file: %w", err)
	}

	var filters Filters
	if err := json.Unmarshal(data, &filters); err != nil {
		return fmt.Errorf("failed to parse filter file %s: %w", m.filePath, err)
	}
	m.filters = filters
	return nil
}

// save writes the current rules; callers must hold the lock.
func (m *FilterManager) save() error {
	data, err := json.MarshalIndent(m.filters, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.filePath, data, 0644)
}

// Filters returns a copy of the current rules.
func (m *FilterManager) Filters() Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filters
}

// ShouldIgnore reports whether a message from the given sender with the
// given subject matches an ignore rule. Matching is case-insensitive
// substring.
func (m *FilterManager) ShouldIgnore(from, subject string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lowerFrom := strings.ToLower(from)
	for _, s := range m.filters.IgnoreSenders {
		if s != "" && strings.Contains(lowerFrom, strings.ToLower(s)) {
			return true
		}
	}

	lowerSubject := strings.ToLower(subject)
	for _, k := range m.filters.IgnoreKeywordsInSubject {
		if k != "" && strings.Contains(lowerSubject, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// AddIgnoreSender adds a sender rule and persists the file.
func (m *FilterManager) AddIgnoreSender(sender string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.filters.IgnoreSenders {
		if s == sender {
			return nil
		}
	}
	m.filters.IgnoreSenders = append(m.filters.IgnoreSenders, sender)
	if m.filePath == "" {
		return nil
	}
	return m.save()
}

// AddIgnoreKeywordInSubject adds a subject keyword rule and persists the
// file.
func (m *FilterManager) AddIgnoreKeywordInSubject(keyword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.filters.IgnoreKeywordsInSubject {
		if k == keyword {
			return nil
		}
	}
	m.filters.IgnoreKeywordsInSubject = append(m.filters.IgnoreKeywordsInSubject, keyword)
	if m.filePath == "" {
		return nil
	}
	return m.save()
}
