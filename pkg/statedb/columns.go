// Package statedb reads chain and account state out of one immutable
// snapshot of the trusted key/value database.
//
// The underlying store has no notion of columns, so logical namespacing is
// emulated: every key is prefixed with its fixed-width little-endian column
// id before lookup. The prefix scheme is part of the persisted layout; any
// store written with the same scheme can be substituted.
package statedb

import (
	"encoding/binary"
)

// Column identifies a logical key namespace within the flat store.
type Column uint32

const (
	// ColumnNone is the reserved all-zero prefix used for keys written
	// without a column. State trie nodes and contract code live here.
	ColumnNone Column = 0
	// ColumnHeaders maps block hash to the compressed header record.
	ColumnHeaders Column = 1
	// ColumnBodies maps block hash to the compressed body record.
	ColumnBodies Column = 2
	// ColumnExtra holds the chain indices, see schema.go.
	ColumnExtra Column = 3
)

const columnPrefixLen = 4

// PrefixedKey returns the physical key for a logical (column, key) pair.
func PrefixedKey(col Column, key []byte) []byte {
	out := make([]byte, columnPrefixLen+len(key))
	binary.LittleEndian.PutUint32(out, uint32(col))
	copy(out[columnPrefixLen:], key)
	return out
}
