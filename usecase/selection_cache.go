package usecase

import (
	"sort"
	"sync"
)

// SelectionCache remembers, per scraper key, which titles were already picked
// in the current scrape session
type SelectionCache struct {
	mu       sync.Mutex
	active   string
	selected map[string]map[string]struct{}
}

func NewSelectionCache() *SelectionCache {
	return &SelectionCache{selected: make(map[string]map[string]struct{})}
}

// Activate switches the active key, creating its set on first use
func (s *SelectionCache) Activate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = key
	if _, ok := s.selected[key]; !ok {
		s.selected[key] = make(map[string]struct{})
	}
}

func (s *SelectionCache) ActiveKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Selected returns the active key's titles, sorted
func (s *SelectionCache) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.selected[s.active]))
	for title := range s.selected[s.active] {
		out = append(out, title)
	}
	sort.Strings(out)
	return out
}

func (s *SelectionCache) Contains(title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.selected[s.active][title]
	return ok
}

func (s *SelectionCache) Record(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.selected[s.active]
	if !ok {
		set = make(map[string]struct{})
		s.selected[s.active] = set
	}
	set[title] = struct{}{}
}

// Reset clears every key and the active pointer
func (s *SelectionCache) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
	s.selected = make(map[string]map[string]struct{})
}
