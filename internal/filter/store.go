package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultPath is the filter file used when no other location is configured.
const DefaultPath = "saved_filters.json"

// Names of the rules seeded on first use.
const (
	HighValueRule        = "High Value Opportunities"
	ClosingSoonRule      = "Closing Soon"
	NewOpportunitiesRule = "New Opportunities"
)

var ErrRuleNotFound = errors.New("filter not found")

// StoreLoadError means the filter file exists but does not decode.
type StoreLoadError struct {
	Path string
	Err  error
}

func (e *StoreLoadError) Error() string {
	return fmt.Sprintf("load filters from %s: %v", e.Path, e.Err)
}

func (e *StoreLoadError) Unwrap() error {
	return e.Err
}

// Store keeps rules keyed by name and rewrites the whole file on every change.
// It is not safe for concurrent use; concurrent writers overwrite each other.
type Store struct {
	path  string
	now   func() time.Time
	rules map[string]Rule
}

// NewStore returns an empty store backed by path. Call Load before use.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{
		path:  path,
		now:   time.Now,
		rules: make(map[string]Rule),
	}
}

// Open creates a store and loads it. On a *StoreLoadError the returned store
// is usable but empty.
func Open(path string) (*Store, error) {
	s := NewStore(path)
	return s, s.Load()
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the filter file. A missing file is seeded with DefaultRules and
// written immediately. Rules are keyed by their name field; the file key is
// only used when the name is blank.
func (s *Store) Load() error {
	s.rules = make(map[string]Rule)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("[Filters] %s not found, creating default filters", s.path)
		s.rules = DefaultRules(s.now())
		return s.save()
	}
	if err != nil {
		return fmt.Errorf("read filters: %w", err)
	}

	var rules map[string]Rule
	if err := json.Unmarshal(data, &rules); err != nil {
		return &StoreLoadError{Path: s.path, Err: err}
	}

	for key, r := range rules {
		if r.Name == "" {
			r.Name = key
		}
		if r.Name != key {
			log.Printf("[Filters] Filter stored under %q is named %q", key, r.Name)
		}
		if _, dup := s.rules[r.Name]; dup {
			log.Printf("[Filters] Warning: duplicate filter %q in %s", r.Name, s.path)
		}
		s.rules[r.Name] = r.normalized()
	}
	return nil
}

// Reseed replaces every rule with the defaults and persists them.
func (s *Store) Reseed() error {
	s.rules = DefaultRules(s.now())
	return s.save()
}

// Add inserts or replaces the rule with the same name.
func (s *Store) Add(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	r = r.normalized()
	s.rules[r.Name] = r
	return s.save()
}

// Remove deletes a rule. Removing an unknown name changes nothing and
// reports false.
func (s *Store) Remove(name string) (bool, error) {
	if _, ok := s.rules[name]; !ok {
		return false, nil
	}
	delete(s.rules, name)
	return true, s.save()
}

// Get looks up one rule by name.
func (s *Store) Get(name string) (Rule, bool) {
	r, ok := s.rules[name]
	return r, ok
}

// Lookup is Get with an ErrRuleNotFound error for unknown names.
func (s *Store) Lookup(name string) (Rule, error) {
	r, ok := s.rules[name]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrRuleNotFound, name)
	}
	return r, nil
}

// All returns a copy of the name to rule mapping.
func (s *Store) All() map[string]Rule {
	out := make(map[string]Rule, len(s.rules))
	for k, v := range s.rules {
		out[k] = v
	}
	return out
}

// Names returns rule names in sorted order for display.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored rules.
func (s *Store) Len() int {
	return len(s.rules)
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.rules, "", "  ")
	if err != nil {
		return fmt.Errorf("encode filters: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create filter dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write filters: %w", err)
	}
	return nil
}

// DefaultRules returns the three built-in rules, with dates relative to now.
func DefaultRules(now time.Time) map[string]Rule {
	today := NewDate(now)
	inThirtyDays := Date{today.AddDate(0, 0, 30)}

	return map[string]Rule{
		HighValueRule: {
			Name:      HighValueRule,
			Keywords:  []string{"grant", "funding"},
			MinAmount: Float(500000),
		},
		ClosingSoonRule: {
			Name:     ClosingSoonRule,
			Keywords: []string{},
			EndDate:  &inThirtyDays,
		},
		NewOpportunitiesRule: {
			Name:      NewOpportunitiesRule,
			Keywords:  []string{},
			StartDate: &today,
		},
	}
}
