// Package eth holds the block/transaction addressing and filtering types
// shared by the gateway's local and remote read paths.
package eth

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type blockIDKind uint8

const (
	blockIDLatest blockIDKind = iota
	blockIDEarliest
	blockIDNumber
	blockIDHash
)

// BlockID addresses a block by latest/earliest/number/hash.
// The zero value is Latest.
type BlockID struct {
	kind   blockIDKind
	number uint64
	hash   common.Hash
}

func LatestBlock() BlockID {
	return BlockID{kind: blockIDLatest}
}

func EarliestBlock() BlockID {
	return BlockID{kind: blockIDEarliest}
}

func BlockNumber(number uint64) BlockID {
	return BlockID{kind: blockIDNumber, number: number}
}

func BlockHash(hash common.Hash) BlockID {
	return BlockID{kind: blockIDHash, hash: hash}
}

func (id BlockID) IsLatest() bool   { return id.kind == blockIDLatest }
func (id BlockID) IsEarliest() bool { return id.kind == blockIDEarliest }

// Number returns the block number and true when the id addresses by number.
func (id BlockID) Number() (uint64, bool) {
	return id.number, id.kind == blockIDNumber
}

// Hash returns the block hash and true when the id addresses by hash.
func (id BlockID) Hash() (common.Hash, bool) {
	return id.hash, id.kind == blockIDHash
}

func (id BlockID) String() string {
	switch id.kind {
	case blockIDLatest:
		return "latest"
	case blockIDEarliest:
		return "earliest"
	case blockIDNumber:
		return fmt.Sprintf("#%d", id.number)
	default:
		return id.hash.Hex()
	}
}

// TransactionID addresses a transaction by hash or by (block, index).
type TransactionID struct {
	byHash bool
	hash   common.Hash
	block  BlockID
	index  uint32
}

func TransactionHash(hash common.Hash) TransactionID {
	return TransactionID{byHash: true, hash: hash}
}

func TransactionLocation(block BlockID, index uint32) TransactionID {
	return TransactionID{block: block, index: index}
}

// Hash returns the transaction hash and true when the id addresses by hash.
func (id TransactionID) Hash() (common.Hash, bool) {
	return id.hash, id.byHash
}

// Location returns the (block, index) address and true when the id addresses
// by location.
func (id TransactionID) Location() (BlockID, uint32, bool) {
	return id.block, id.index, !id.byHash
}
