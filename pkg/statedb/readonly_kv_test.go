package statedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSnapshot map[string][]byte

func (s mapSnapshot) Get(key []byte) ([]byte, bool, error) {
	value, ok := s[string(key)]
	return value, ok, nil
}

func (s mapSnapshot) Release() {}

func TestReadonlyKVReads(t *testing.T) {
	snap := mapSnapshot{
		string(PrefixedKey(ColumnNone, []byte("node"))): []byte("value"),
	}
	kv := &readonlyKV{db: &StateDB{snap: snap, codec: SnappyCodec()}}

	value, err := kv.Get([]byte("node"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), value)

	ok, err := kv.Has([]byte("node"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = kv.Get([]byte("missing"))
	assert.Error(t, err)
	ok, err = kv.Has([]byte("missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, kv.Close())
}

func TestReadonlyKVRejectsWrites(t *testing.T) {
	kv := &readonlyKV{db: &StateDB{snap: mapSnapshot{}, codec: SnappyCodec()}}

	assert.Panics(t, func() { _ = kv.Put([]byte("k"), []byte("v")) })
	assert.Panics(t, func() { _ = kv.Delete([]byte("k")) })
	assert.Panics(t, func() { _ = kv.DeleteRange([]byte("a"), []byte("z")) })
	assert.Panics(t, func() { kv.NewBatch() })
	assert.Panics(t, func() { kv.NewBatchWithSize(16) })
	assert.Panics(t, func() { kv.NewIterator(nil, nil) })
	assert.Panics(t, func() { _ = kv.Compact(nil, nil) })
}
