package grep

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"grepbot/internal/model"
)

// Store holds the set of active subscriptions. It is safe for concurrent use.
// The zero value is an empty store.
type Store struct {
	mu   sync.RWMutex
	subs map[key]Subscription
}

// NewStore creates a store populated with the given greps.
// It fails on the first pattern that does not compile.
func NewStore(greps ...model.Grep) (*Store, error) {
	s := &Store{subs: make(map[key]Subscription, len(greps))}
	for _, g := range greps {
		if _, err := s.Insert(g.UserID, g.Pattern); err != nil {
			return nil, fmt.Errorf("load grep %q for user %d: %w", g.Pattern, g.UserID, err)
		}
	}
	return s, nil
}

// All returns every subscription in unspecified order.
func (s *Store) All() []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		out = append(out, sub)
	}
	return out
}

// ByUser returns the subscriptions owned by userID, sorted by pattern.
func (s *Store) ByUser(userID int64) []Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Subscription
	for _, sub := range s.subs {
		if sub.UserID == userID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

// Contains reports whether userID already subscribes to exactly pattern.
func (s *Store) Contains(userID int64, pattern string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subs[key{pattern: pattern, userID: userID}]
	return ok
}

// Insert compiles pattern and adds it for userID. It returns false with a
// nil error when the subscription already exists, and an
// *InvalidPatternError when the pattern does not compile.
func (s *Store) Insert(userID int64, pattern string) (bool, error) {
	sub, err := Compile(userID, pattern)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.key()]; ok {
		return false, nil
	}
	if s.subs == nil {
		s.subs = make(map[key]Subscription)
	}
	s.subs[sub.key()] = sub
	return true, nil
}

// Remove deletes the exact (userID, pattern) subscription and reports
// whether it existed.
func (s *Store) Remove(userID int64, pattern string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key{pattern: pattern, userID: userID}
	if _, ok := s.subs[k]; !ok {
		return false
	}
	delete(s.subs, k)
	return true
}

// Len returns the number of subscriptions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Snapshot returns the serializable form of every subscription.
func (s *Store) Snapshot() []model.Grep {
	subs := s.All()
	out := make([]model.Grep, len(subs))
	for i, sub := range subs {
		out[i] = sub.Grep()
	}
	return out
}

// MarshalJSON encodes the store as an array of [pattern, user_id] pairs.
func (s *Store) MarshalJSON() ([]byte, error) {
	return MarshalGreps(s.Snapshot())
}

// UnmarshalJSON replaces the store contents with the decoded pairs.
func (s *Store) UnmarshalJSON(data []byte) error {
	greps, err := UnmarshalGreps(data)
	if err != nil {
		return err
	}
	loaded, err := NewStore(greps...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = loaded.subs
	return nil
}

// MarshalGreps encodes greps as an array of [pattern, user_id] pairs.
func MarshalGreps(greps []model.Grep) ([]byte, error) {
	pairs := make([][2]any, len(greps))
	for i, g := range greps {
		pairs[i] = [2]any{g.Pattern, g.UserID}
	}
	return json.Marshal(pairs)
}

// UnmarshalGreps decodes an array of [pattern, user_id] pairs.
// Patterns are not compiled.
func UnmarshalGreps(data []byte) ([]model.Grep, error) {
	var pairs [][2]json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("decode greps: %w", err)
	}
	greps := make([]model.Grep, 0, len(pairs))
	for i, p := range pairs {
		var g model.Grep
		if err := json.Unmarshal(p[0], &g.Pattern); err != nil {
			return nil, fmt.Errorf("decode pattern at %d: %w", i, err)
		}
		if err := json.Unmarshal(p[1], &g.UserID); err != nil {
			return nil, fmt.Errorf("decode user id at %d: %w", i, err)
		}
		greps = append(greps, g)
	}
	return greps, nil
}
