package statedb

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

// Snapshot is an immutable point-in-time view of the trusted database.
// Get returns (nil, false, nil) for missing keys.
type Snapshot interface {
	Get(key []byte) ([]byte, bool, error)
	Release()
}

// Provider hands out snapshots of the trusted database.
type Provider interface {
	GetSnapshot() (Snapshot, error)
}

// LevelDBProvider serves snapshots from a LevelDB database. The runtime owns
// the write side of the database; the gateway only ever reads it.
type LevelDBProvider struct {
	db *leveldb.DB
}

// NewLevelDBProvider opens the database at the given path. An empty path
// uses in-memory storage.
func NewLevelDBProvider(path string) (*LevelDBProvider, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		db, err = leveldb.Open(leveldbstorage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &LevelDBProvider{db: db}, nil
}

// GetSnapshot returns a consistent read-only view of the current database
// version.
func (p *LevelDBProvider) GetSnapshot() (Snapshot, error) {
	snap, err := p.db.GetSnapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire snapshot: %w", err)
	}
	return &levelDBSnapshot{snap: snap}, nil
}

// Close releases the underlying database.
func (p *LevelDBProvider) Close() error {
	return p.db.Close()
}

type levelDBSnapshot struct {
	snap *leveldb.Snapshot
}

func (s *levelDBSnapshot) Get(key []byte) ([]byte, bool, error) {
	data, err := s.snap.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("snapshot get %x: %w", key, err)
	}
	return data, true, nil
}

func (s *levelDBSnapshot) Release() {
	s.snap.Release()
}
