package statedb

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/oasislabs/web3-gateway/pkg/eth"
)

// StateDB is a read-only view of the chain database backed by one snapshot.
// All reads are consistent with a single database version. It exposes no
// write path.
type StateDB struct {
	snap  Snapshot
	codec Codec
}

// New wraps a snapshot. It reports false when the snapshot holds no best
// block hash: an uninitialized database is indistinguishable from "no
// snapshot" and callers fall back to the remote path.
func New(snap Snapshot, codec Codec) (*StateDB, bool) {
	db := &StateDB{snap: snap, codec: codec}
	if _, ok := db.BestBlockHash(); !ok {
		return nil, false
	}
	return db, true
}

// Get reads a raw value from the given column.
func (db *StateDB) Get(col Column, key []byte) ([]byte, bool, error) {
	return db.snap.Get(PrefixedKey(col, key))
}

// Release releases the underlying snapshot.
func (db *StateDB) Release() {
	db.snap.Release()
}

// BestBlockHash returns the hash of the most recent block. Store errors are
// treated as absence.
func (db *StateDB) BestBlockHash() (common.Hash, bool) {
	data, ok, err := db.Get(ColumnExtra, BestBlockKey())
	if err != nil || !ok || len(data) != common.HashLength {
		return common.Hash{}, false
	}
	return common.BytesToHash(data), true
}

// BlockHash returns the hash of the block at the given height.
func (db *StateDB) BlockHash(number uint64) (common.Hash, bool, error) {
	data, ok, err := db.Get(ColumnExtra, BlockHashKey(number))
	if err != nil || !ok {
		return common.Hash{}, false, err
	}
	if len(data) != common.HashLength {
		return common.Hash{}, false, fmt.Errorf("statedb: malformed block hash record for height %d", number)
	}
	return common.BytesToHash(data), true, nil
}

// BlockNumber returns the height of the block with the given hash.
func (db *StateDB) BlockNumber(hash common.Hash) (uint64, bool, error) {
	data, ok, err := db.Get(ColumnExtra, BlockNumberKey(hash))
	if err != nil || !ok {
		return 0, false, err
	}
	number, valid := decodeBlockNumber(data)
	if !valid {
		return 0, false, fmt.Errorf("statedb: malformed block number record for %s", hash.Hex())
	}
	return number, true, nil
}

// Header returns the decoded header of the block with the given hash, or
// nil when no header is stored.
func (db *StateDB) Header(hash common.Hash) (*types.Header, error) {
	data, ok, err := db.Get(ColumnHeaders, hash.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := db.codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("statedb: corrupt header record for %s: %w", hash.Hex(), err)
	}
	header := new(types.Header)
	if err := rlp.DecodeBytes(raw, header); err != nil {
		return nil, fmt.Errorf("statedb: undecodable header for %s: %w", hash.Hex(), err)
	}
	return header, nil
}

// Body returns the decoded body of the block with the given hash, or nil
// when no body is stored.
func (db *StateDB) Body(hash common.Hash) (*types.Body, error) {
	data, ok, err := db.Get(ColumnBodies, hash.Bytes())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := db.codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("statedb: corrupt body record for %s: %w", hash.Hex(), err)
	}
	body := new(types.Body)
	if err := rlp.DecodeBytes(raw, body); err != nil {
		return nil, fmt.Errorf("statedb: undecodable body for %s: %w", hash.Hex(), err)
	}
	return body, nil
}

// Block assembles the full block with the given hash from its stored header
// and body, or nil when either is missing.
func (db *StateDB) Block(hash common.Hash) (*types.Block, error) {
	header, err := db.Header(hash)
	if err != nil || header == nil {
		return nil, err
	}
	body, err := db.Body(hash)
	if err != nil || body == nil {
		return nil, err
	}
	return types.NewBlockWithHeader(header).WithBody(*body), nil
}

// BestBlockNumber returns the height of the best block, or zero when the
// chain records are unreadable.
func (db *StateDB) BestBlockNumber() uint64 {
	hash, ok := db.BestBlockHash()
	if !ok {
		return 0
	}
	header, err := db.Header(hash)
	if err != nil || header == nil {
		return 0
	}
	return header.Number.Uint64()
}

// BestBlockStateRoot returns the state root recorded in the best block's
// header.
func (db *StateDB) BestBlockStateRoot() (common.Hash, bool) {
	hash, ok := db.BestBlockHash()
	if !ok {
		return common.Hash{}, false
	}
	header, err := db.Header(hash)
	if err != nil || header == nil {
		return common.Hash{}, false
	}
	return header.Root, true
}

// TransactionAddress returns the location of the transaction with the given
// hash, or nil when the transaction is unknown.
func (db *StateDB) TransactionAddress(hash common.Hash) (*TxLookupEntry, error) {
	data, ok, err := db.Get(ColumnExtra, TxLookupKey(hash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	entry := new(TxLookupEntry)
	if err := rlp.DecodeBytes(data, entry); err != nil {
		return nil, fmt.Errorf("statedb: undecodable tx lookup entry for %s: %w", hash.Hex(), err)
	}
	return entry, nil
}

// TransactionAt returns the transaction at the given location along with its
// block height. A missing body or out-of-range index yields nil.
func (db *StateDB) TransactionAt(entry *TxLookupEntry) (*types.Transaction, uint64, error) {
	body, err := db.Body(entry.BlockHash)
	if err != nil || body == nil {
		return nil, 0, err
	}
	if entry.Index >= uint64(len(body.Transactions)) {
		return nil, 0, nil
	}
	number, ok, err := db.BlockNumber(entry.BlockHash)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, fmt.Errorf("statedb: block %s has a body but no number record", entry.BlockHash.Hex())
	}
	return body.Transactions[entry.Index], number, nil
}

// BlockReceipts returns the stored receipts of the block with the given
// hash, or nil when none are stored. Only consensus fields are populated.
func (db *StateDB) BlockReceipts(hash common.Hash) (types.Receipts, error) {
	data, ok, err := db.Get(ColumnExtra, ReceiptsKey(hash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var stored []*types.ReceiptForStorage
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, fmt.Errorf("statedb: undecodable receipts for %s: %w", hash.Hex(), err)
	}
	receipts := make(types.Receipts, len(stored))
	for i, receipt := range stored {
		receipts[i] = (*types.Receipt)(receipt)
	}
	return receipts, nil
}

// Logs collects the matching log entries of the given blocks, which must be
// in ascending height order. When limit is positive only the most recent
// limit entries are kept.
func (db *StateDB) Logs(blocks []common.Hash, matches func(*types.Log) bool, limit int) ([]*eth.LocalizedLog, error) {
	var out []*eth.LocalizedLog

	for _, hash := range blocks {
		number, ok, err := db.BlockNumber(hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("statedb: no number record for block %s", hash.Hex())
		}
		body, err := db.Body(hash)
		if err != nil {
			return nil, err
		}
		receipts, err := db.BlockReceipts(hash)
		if err != nil {
			return nil, err
		}
		if body == nil || len(receipts) != len(body.Transactions) {
			return nil, fmt.Errorf("statedb: receipts and body of block %s disagree", hash.Hex())
		}

		blockLogIndex := uint(0)
		for txIndex, receipt := range receipts {
			txHash := body.Transactions[txIndex].Hash()
			for txLogIndex, entry := range receipt.Logs {
				index := blockLogIndex
				blockLogIndex++
				if !matches(entry) {
					continue
				}
				out = append(out, &eth.LocalizedLog{
					Address:     entry.Address,
					Topics:      entry.Topics,
					Data:        entry.Data,
					BlockHash:   hash,
					BlockNumber: number,
					TxHash:      txHash,
					TxIndex:     uint(txIndex),
					TxLogIndex:  uint(txLogIndex),
					Index:       index,
				})
			}
		}
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
