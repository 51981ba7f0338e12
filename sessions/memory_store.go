package sessions

import (
	"context"
	"sync"
)

var _ Store = (*InMemoryStore)(nil)

type InMemoryStore struct {
	values map[string]map[string]string // app ID to key to value
	lock   sync.RWMutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[string]map[string]string)}
}

func (s *InMemoryStore) Get(_ context.Context, appID string, keyPath ...string) (string, bool, error) {
	key, err := joinKey(keyPath)
	if err != nil {
		return "", false, err
	}

	s.lock.RLock()
	defer s.lock.RUnlock()
	value, ok := s.values[appID][key]
	return value, ok, nil
}

func (s *InMemoryStore) Set(_ context.Context, appID string, value string, keyPath ...string) error {
	key, err := joinKey(keyPath)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	app, ok := s.values[appID]
	if !ok {
		app = make(map[string]string)
		s.values[appID] = app
	}
	app[key] = value
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, appID string, keyPath ...string) error {
	key, err := joinKey(keyPath)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.values[appID], key)
	return nil
}
