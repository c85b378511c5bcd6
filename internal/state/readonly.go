package state

import "wardwatch/internal/model"

// ReadOnlyStore delegates Load to the real backend and drops Save. Dry
// runs still diff against the persisted seen set, they just never
// commit to it.
type ReadOnlyStore struct {
	inner model.SeenStore
}

func NewReadOnlyStore(inner model.SeenStore) *ReadOnlyStore {
	return &ReadOnlyStore{inner: inner}
}

func (s *ReadOnlyStore) Load() (map[string]struct{}, error) { return s.inner.Load() }

func (s *ReadOnlyStore) Save(urls map[string]struct{}) error { return nil }
