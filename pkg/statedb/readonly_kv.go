package statedb

import (
	"errors"

	"github.com/ethereum/go-ethereum/ethdb"
)

var errKeyNotFound = errors.New("statedb: key not found")

// readonlyKV exposes the state column of a snapshot as an ethdb key-value
// store so that the trie layer can read from it. State trie nodes live in
// the reserved column. Any write-shaped call panics: the snapshot is
// immutable and reaching a write path is a bug, not a recoverable error.
type readonlyKV struct {
	db *StateDB
}

var _ ethdb.KeyValueStore = (*readonlyKV)(nil)

func (kv *readonlyKV) Has(key []byte) (bool, error) {
	_, ok, err := kv.db.Get(ColumnNone, key)
	return ok, err
}

func (kv *readonlyKV) Get(key []byte) ([]byte, error) {
	data, ok, err := kv.db.Get(ColumnNone, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errKeyNotFound
	}
	return data, nil
}

func (kv *readonlyKV) Close() error {
	return nil
}

func (kv *readonlyKV) Put(key []byte, value []byte) error {
	panic("statedb: write to read-only snapshot")
}

func (kv *readonlyKV) Delete(key []byte) error {
	panic("statedb: delete on read-only snapshot")
}

func (kv *readonlyKV) DeleteRange(start, end []byte) error {
	panic("statedb: delete on read-only snapshot")
}

func (kv *readonlyKV) NewBatch() ethdb.Batch {
	panic("statedb: batch write to read-only snapshot")
}

func (kv *readonlyKV) NewBatchWithSize(size int) ethdb.Batch {
	panic("statedb: batch write to read-only snapshot")
}

func (kv *readonlyKV) NewIterator(prefix []byte, start []byte) ethdb.Iterator {
	panic("statedb: iteration over snapshot is not supported")
}

func (kv *readonlyKV) Stat() (string, error) {
	return "", errors.New("statedb: stats are not supported on snapshots")
}

func (kv *readonlyKV) Compact(start []byte, limit []byte) error {
	panic("statedb: compaction of read-only snapshot")
}
