package store

import (
	"fmt"
	"reflect"
	"sync"

	bridge "github.com/wippyai/bridge-runtime"
	"github.com/wippyai/bridge-runtime/errors"
)

// Store maps handles to live values for one session.
type Store struct {
	mu         sync.RWMutex
	objects    map[string]any
	identities map[any]string
	resources  map[int]bridge.Resource
	next       uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		objects:    make(map[string]any),
		identities: make(map[any]string),
		resources:  make(map[int]bridge.Resource),
	}
}

// EncodeObject returns the handle for v, issuing one on first sight.
// Comparable values (pointers in practice) are deduplicated by identity;
// non-comparable values get a fresh handle per encode because Go gives them
// no identity to key on.
func (s *Store) EncodeObject(v any) string {
	comparable := v != nil && reflect.TypeOf(v).Comparable()

	s.mu.Lock()
	defer s.mu.Unlock()

	if comparable {
		if h, ok := s.identities[v]; ok {
			return h
		}
	}

	s.next++
	h := fmt.Sprintf("%016x", s.next)
	s.objects[h] = v
	if comparable {
		s.identities[v] = h
	}
	return h
}

// DecodeObject resolves an object handle.
func (s *Store) DecodeObject(handle string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.objects[handle]
	if !ok {
		return nil, errors.HandleNotFound(handle)
	}
	return v, nil
}

// EncodeResource records r under its own integer identity and returns it.
func (s *Store) EncodeResource(r bridge.Resource) int {
	id := r.ResourceID()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resources[id] = r
	return id
}

// DecodeResource resolves a resource handle.
func (s *Store) DecodeResource(id int) (bridge.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.resources[id]
	if !ok {
		return nil, errors.HandleNotFound(id)
	}
	return r, nil
}

// RemoveObject drops an object handle. Explicit release only; the dispatch
// loop never calls this.
func (s *Store) RemoveObject(handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.objects[handle]
	if !ok {
		return false
	}
	delete(s.objects, handle)
	if v != nil && reflect.TypeOf(v).Comparable() {
		delete(s.identities, v)
	}
	return true
}

// RemoveResource drops a resource handle. Explicit release only.
func (s *Store) RemoveResource(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[id]; !ok {
		return false
	}
	delete(s.resources, id)
	return true
}

// Objects returns the number of live object handles.
func (s *Store) Objects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Resources returns the number of live resource handles.
func (s *Store) Resources() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}
