// Package testutils provides shared helpers for tests: in-memory snapshots,
// a chain fixture builder and a mock runtime endpoint.
package testutils

import (
	"sync"

	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

// MemorySnapshot is a map-backed statedb.Snapshot for tests. Unlike a real
// snapshot it can be written to and handed out repeatedly.
type MemorySnapshot struct {
	mu       sync.RWMutex
	data     map[string][]byte
	releases int
}

// NewMemorySnapshot creates an empty snapshot.
func NewMemorySnapshot() *MemorySnapshot {
	return &MemorySnapshot{data: make(map[string][]byte)}
}

// Put stores a raw physical key.
func (s *MemorySnapshot) Put(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[string(key)] = append([]byte(nil), value...)
}

// PutColumn stores a value under a logical column key.
func (s *MemorySnapshot) PutColumn(col statedb.Column, key, value []byte) {
	s.Put(statedb.PrefixedKey(col, key), value)
}

// Delete removes a logical column key.
func (s *MemorySnapshot) Delete(col statedb.Column, key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(statedb.PrefixedKey(col, key)))
}

func (s *MemorySnapshot) Get(key []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (s *MemorySnapshot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
}

// Releases reports how many times Release has been called.
func (s *MemorySnapshot) Releases() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.releases
}

// StaticProvider hands out the same snapshot on every call, or a fixed
// error.
type StaticProvider struct {
	Snap statedb.Snapshot
	Err  error
}

func (p *StaticProvider) GetSnapshot() (statedb.Snapshot, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Snap, nil
}
