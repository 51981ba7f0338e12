package token

import "sync"

// Store holds the current access token of one application. All mutations are
// serialised, so the read-decide-write of a recovery cannot interleave with a
// concurrent Set.
type Store struct {
	appID string

	mu      sync.RWMutex // protects current
	current *AccessToken
}

// NewStore creates an empty store for appID.
func NewStore(appID string) *Store {
	return &Store{appID: appID}
}

func (s *Store) AppID() string {
	return s.appID
}

// Get returns the current token, if any.
func (s *Store) Get() (AccessToken, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return AccessToken{}, false
	}
	return *s.current, true
}

// Value returns the current token value or an empty string.
func (s *Store) Value() string {
	tok, _ := s.Get()
	return tok.Value
}

// Set replaces the current token. An empty value clears the store.
func (s *Store) Set(value string, source Source) {
	s.Put(AccessToken{Value: value, Source: source})
}

// Put replaces the current token, keeping its expiry.
func (s *Store) Put(tok AccessToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.Value == "" {
		s.current = nil
		return
	}
	s.current = &tok
}

// Clear removes the current token.
func (s *Store) Clear() {
	s.Put(AccessToken{})
}

// SeedIfEmpty sets the token only when the store holds none.
func (s *Store) SeedIfEmpty(value string, source Source) bool {
	if value == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return false
	}
	s.current = &AccessToken{Value: value, Source: source}
	return true
}

// IsStale reports whether a current token exists and differs from candidate.
func (s *Store) IsStale(candidate string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isStale(candidate)
}

// SwapIfStale replaces the current token with candidate when IsStale holds,
// as a single step. It returns the replaced token and whether a swap happened.
func (s *Store) SwapIfStale(candidate string, source Source) (AccessToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isStale(candidate) {
		return AccessToken{}, false
	}
	previous := *s.current
	s.current = &AccessToken{Value: candidate, Source: source}
	return previous, true
}

func (s *Store) isStale(candidate string) bool {
	return s.current != nil && candidate != "" && s.current.Value != candidate
}
