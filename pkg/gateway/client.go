// Package gateway is the state-access core: one façade answering chain and
// account queries from a local database snapshot when one is available and
// from the confidential runtime otherwise. Transaction submission always
// goes to the runtime.
package gateway

import (
	"context"
	goerrors "errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/oasislabs/web3-gateway/pkg/errors"
	"github.com/oasislabs/web3-gateway/pkg/eth"
	"github.com/oasislabs/web3-gateway/pkg/logger"
	"github.com/oasislabs/web3-gateway/pkg/metrics"
	"github.com/oasislabs/web3-gateway/pkg/notify"
	"github.com/oasislabs/web3-gateway/pkg/runtime"
	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

const component = "gateway"

// unresolvedHashHeight is the height assumed for a hash the local chain
// does not know. Comparisons treat such blocks as the genesis block, see
// DESIGN.md.
const unresolvedHashHeight = 0

// maxNotifyHeaders caps how many headers one tick announces. Falling far
// behind yields the most recent window, not the full backlog.
const maxNotifyHeaders = 256

var errNoBestBlock = goerrors.New("gateway: snapshot has no best block")

// Client answers read queries and submits transactions. All methods are
// safe for concurrent use.
type Client struct {
	runtime   runtime.Client
	snapshots statedb.Provider
	codec     statedb.Codec
	executor  Executor
	signer    types.Signer

	storageMu sync.RWMutex
	storage   Storage

	cursorMu sync.Mutex
	notified uint64

	listeners notify.Registry
}

// NewClient builds the façade. The chain id fixes the signature scheme used
// to recover transaction senders from the local chain records.
func NewClient(rt runtime.Client, snapshots statedb.Provider, executor Executor, chainID *big.Int) *Client {
	return &Client{
		runtime:   rt,
		snapshots: snapshots,
		codec:     statedb.SnappyCodec(),
		executor:  executor,
		signer:    types.LatestSignerForChainID(chainID),
	}
}

// SetStorage installs the bulk storage handle used during virtual
// execution.
func (c *Client) SetStorage(storage Storage) {
	c.storageMu.Lock()
	defer c.storageMu.Unlock()
	c.storage = storage
}

// AddListener registers a chain event listener and returns its handle.
func (c *Client) AddListener(ref notify.Ref) uint64 {
	return c.listeners.Add(ref)
}

// RemoveListener drops a previously registered listener.
func (c *Client) RemoveListener(id uint64) {
	c.listeners.Remove(id)
}

// stateDB opens a fresh snapshot view. A nil return means the local path
// is unavailable and the caller falls back to the runtime.
func (c *Client) stateDB() *statedb.StateDB {
	snap, err := c.snapshots.GetSnapshot()
	if err != nil {
		logger.Sugar.Errorw("failed to acquire state snapshot", "error", err)
		metrics.ReadStateFailed()
		return nil
	}
	db, ok := statedb.New(snap, c.codec)
	if !ok {
		snap.Release()
		return nil
	}
	return db
}

// callResult runs one runtime call and records its outcome.
func callResult[T any](call string, fn func() (T, error)) (T, error) {
	result, err := fn()
	if err != nil {
		metrics.RuntimeCallFailed(call)
		logger.Sugar.Errorw("runtime call failed", "call", call, "error", err)
		var zero T
		return zero, err
	}
	metrics.RuntimeCallSucceeded(call)
	return result, nil
}

// BestBlockNumber returns the current chain height.
func (c *Client) BestBlockNumber(ctx context.Context) (uint64, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		return db.BestBlockNumber(), nil
	}
	return callResult("blockHeight", func() (uint64, error) {
		return c.runtime.BlockHeight(ctx)
	})
}

// blockHashAndNumber resolves a block id against the snapshot.
func blockHashAndNumber(db *statedb.StateDB, id eth.BlockID) (common.Hash, uint64, bool, error) {
	switch {
	case id.IsLatest():
		hash, ok := db.BestBlockHash()
		if !ok {
			return common.Hash{}, 0, false, nil
		}
		return hash, db.BestBlockNumber(), true, nil
	case id.IsEarliest():
		hash, ok, err := db.BlockHash(0)
		return hash, 0, ok, err
	default:
		if number, byNumber := id.Number(); byNumber {
			hash, ok, err := db.BlockHash(number)
			return hash, number, ok, err
		}
		hash, _ := id.Hash()
		number, ok, err := db.BlockNumber(hash)
		return hash, number, ok, err
	}
}

// blockRef translates a block id to a runtime reference. Hash-addressed
// blocks cannot be resolved remotely.
func blockRef(id eth.BlockID) (runtime.BlockRef, bool) {
	switch {
	case id.IsLatest():
		return runtime.LatestRef(), true
	case id.IsEarliest():
		return runtime.NumberRef(0), true
	default:
		if number, byNumber := id.Number(); byNumber {
			return runtime.NumberRef(number), true
		}
		return runtime.BlockRef{}, false
	}
}

// Block returns the block addressed by id, or nil when unknown.
func (c *Client) Block(ctx context.Context, id eth.BlockID) (*types.Block, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		hash, _, ok, err := blockHashAndNumber(db, id)
		if err != nil || !ok {
			return nil, err
		}
		return db.Block(hash)
	}

	ref, ok := blockRef(id)
	if !ok {
		return nil, nil
	}
	raw, err := callResult("getBlock", func() ([]byte, error) {
		return c.runtime.Block(ctx, ref)
	})
	if err != nil || raw == nil {
		return nil, err
	}
	block := new(types.Block)
	if err := rlp.DecodeBytes(raw, block); err != nil {
		return nil, errors.NewChainCorrupt(component, "Block", err)
	}
	return block, nil
}

// BlockHash resolves a block id to its hash.
func (c *Client) BlockHash(ctx context.Context, id eth.BlockID) (common.Hash, bool, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		hash, _, ok, err := blockHashAndNumber(db, id)
		return hash, ok, err
	}

	ref, ok := blockRef(id)
	if !ok {
		return common.Hash{}, false, nil
	}
	type hashResult struct {
		hash common.Hash
		ok   bool
	}
	result, err := callResult("getBlockHash", func() (hashResult, error) {
		hash, ok, err := c.runtime.BlockHash(ctx, ref)
		return hashResult{hash: hash, ok: ok}, err
	})
	return result.hash, result.ok, err
}

// Transaction returns the localized transaction addressed by id, or nil
// when unknown.
func (c *Client) Transaction(ctx context.Context, id eth.TransactionID) (*eth.LocalizedTransaction, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		entry, err := c.resolveTransaction(db, id)
		if err != nil || entry == nil {
			return nil, err
		}
		tx, number, err := db.TransactionAt(entry)
		if err != nil || tx == nil {
			return nil, err
		}
		return c.localizeTransaction(tx, entry, number)
	}

	// The runtime only resolves transactions by hash.
	hash, byHash := id.Hash()
	if !byHash {
		return nil, nil
	}
	tx, err := callResult("getTransaction", func() (*runtime.Transaction, error) {
		return c.runtime.Transaction(ctx, hash)
	})
	if err != nil || tx == nil {
		return nil, err
	}
	return tx.Localize(), nil
}

func (c *Client) resolveTransaction(db *statedb.StateDB, id eth.TransactionID) (*statedb.TxLookupEntry, error) {
	if hash, byHash := id.Hash(); byHash {
		return db.TransactionAddress(hash)
	}
	block, index, _ := id.Location()
	hash, _, ok, err := blockHashAndNumber(db, block)
	if err != nil || !ok {
		return nil, err
	}
	return &statedb.TxLookupEntry{BlockHash: hash, Index: uint64(index)}, nil
}

func (c *Client) localizeTransaction(tx *types.Transaction, entry *statedb.TxLookupEntry, number uint64) (*eth.LocalizedTransaction, error) {
	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return nil, errors.NewChainCorrupt(component, "Transaction", err,
			errors.WithTxHash(tx.Hash().Hex()))
	}
	return &eth.LocalizedTransaction{
		Hash:        tx.Hash(),
		BlockHash:   entry.BlockHash,
		BlockNumber: number,
		Index:       uint32(entry.Index),
		From:        from,
		To:          tx.To(),
		Nonce:       tx.Nonce(),
		Value:       tx.Value(),
		Gas:         tx.Gas(),
		GasPrice:    tx.GasPrice(),
		Input:       tx.Data(),
	}, nil
}

// TransactionReceipt returns the localized receipt of the given
// transaction, or nil when unknown.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*eth.LocalizedReceipt, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		entry, err := db.TransactionAddress(hash)
		if err != nil || entry == nil {
			return nil, err
		}
		return c.localizeReceipt(db, entry, hash)
	}

	receipt, err := callResult("getTransactionReceipt", func() (*runtime.Receipt, error) {
		return c.runtime.Receipt(ctx, hash)
	})
	if err != nil || receipt == nil {
		return nil, err
	}
	return receipt.Localize(), nil
}

func (c *Client) localizeReceipt(db *statedb.StateDB, entry *statedb.TxLookupEntry, txHash common.Hash) (*eth.LocalizedReceipt, error) {
	number, ok, err := db.BlockNumber(entry.BlockHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NewChainCorrupt(component, "TransactionReceipt",
			fmt.Errorf("no number record for block %s", entry.BlockHash.Hex()))
	}
	body, err := db.Body(entry.BlockHash)
	if err != nil {
		return nil, err
	}
	receipts, err := db.BlockReceipts(entry.BlockHash)
	if err != nil {
		return nil, err
	}
	if body == nil || len(receipts) != len(body.Transactions) || entry.Index >= uint64(len(receipts)) {
		return nil, errors.NewChainCorrupt(component, "TransactionReceipt",
			fmt.Errorf("records of block %s disagree", entry.BlockHash.Hex()))
	}

	index := int(entry.Index)
	receipt := receipts[index]
	tx := body.Transactions[index]

	gasUsed := receipt.CumulativeGasUsed
	firstLogIndex := uint(0)
	for i := 0; i < index; i++ {
		firstLogIndex += uint(len(receipts[i].Logs))
	}
	if index > 0 {
		gasUsed -= receipts[index-1].CumulativeGasUsed
	}

	out := &eth.LocalizedReceipt{
		TxHash:            txHash,
		TxIndex:           uint32(entry.Index),
		BlockHash:         entry.BlockHash,
		BlockNumber:       number,
		CumulativeGasUsed: receipt.CumulativeGasUsed,
		GasUsed:           gasUsed,
		Bloom:             types.CreateBloom(types.Receipts{receipt}),
		Status:            receipt.Status,
	}
	if tx.To() == nil {
		from, err := types.Sender(c.signer, tx)
		if err != nil {
			return nil, errors.NewChainCorrupt(component, "TransactionReceipt", err,
				errors.WithTxHash(txHash.Hex()))
		}
		created := crypto.CreateAddress(from, tx.Nonce())
		out.ContractAddress = &created
	}
	out.Logs = make([]*eth.LocalizedLog, len(receipt.Logs))
	for i, entryLog := range receipt.Logs {
		out.Logs[i] = &eth.LocalizedLog{
			Address:     entryLog.Address,
			Topics:      entryLog.Topics,
			Data:        entryLog.Data,
			BlockHash:   out.BlockHash,
			BlockNumber: out.BlockNumber,
			TxHash:      txHash,
			TxIndex:     uint(entry.Index),
			TxLogIndex:  uint(i),
			Index:       firstLogIndex + uint(i),
		}
	}
	return out, nil
}

// accountState opens the world state addressed by a block id. It reports
// false when the local path is unavailable; any error with a live snapshot
// is a state failure surfaced to the caller.
func (c *Client) accountState(db *statedb.StateDB, id eth.BlockID, op string) (*statedb.AccountState, error) {
	var root common.Hash
	if id.IsLatest() {
		best, ok := db.BestBlockStateRoot()
		if !ok {
			return nil, errors.NewStateCorrupt(component, op, errNoBestBlock)
		}
		root = best
	} else {
		hash, _, ok, err := blockHashAndNumber(db, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.NewStateUnavailable(component, op,
				fmt.Errorf("block %s is not in the local chain", id))
		}
		header, err := db.Header(hash)
		if err != nil {
			return nil, err
		}
		if header == nil {
			return nil, errors.NewChainCorrupt(component, op,
				fmt.Errorf("indexed block %s has no header", hash.Hex()))
		}
		root = header.Root
	}

	state, err := db.AccountStateAt(root)
	if err != nil {
		metrics.ReadStateFailed()
		logger.Sugar.Errorw("failed to open account state", "operation", op, "root", root.Hex(), "error", err)
		return nil, errors.NewStateCorrupt(component, op, err)
	}
	return state, nil
}

// Balance returns the account balance at the given block.
func (c *Client) Balance(ctx context.Context, addr common.Address, id eth.BlockID) (*big.Int, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		state, err := c.accountState(db, id, "Balance")
		if err != nil {
			return nil, err
		}
		return state.Balance(addr)
	}

	ref, ok := blockRef(id)
	if !ok {
		ref = runtime.LatestRef()
	}
	return callResult("getBalance", func() (*big.Int, error) {
		return c.runtime.AccountBalance(ctx, ref, addr)
	})
}

// Code returns the account bytecode at the given block.
func (c *Client) Code(ctx context.Context, addr common.Address, id eth.BlockID) ([]byte, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		state, err := c.accountState(db, id, "Code")
		if err != nil {
			return nil, err
		}
		return state.Code(addr)
	}

	ref, ok := blockRef(id)
	if !ok {
		ref = runtime.LatestRef()
	}
	return callResult("getCode", func() ([]byte, error) {
		return c.runtime.AccountCode(ctx, ref, addr)
	})
}

// Nonce returns the account nonce at the given block.
func (c *Client) Nonce(ctx context.Context, addr common.Address, id eth.BlockID) (uint64, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		state, err := c.accountState(db, id, "Nonce")
		if err != nil {
			return 0, err
		}
		return state.Nonce(addr)
	}

	ref, ok := blockRef(id)
	if !ok {
		ref = runtime.LatestRef()
	}
	return callResult("getTransactionCount", func() (uint64, error) {
		return c.runtime.AccountNonce(ctx, ref, addr)
	})
}

// StorageAt returns the account storage value at the given block.
func (c *Client) StorageAt(ctx context.Context, addr common.Address, key common.Hash, id eth.BlockID) (common.Hash, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		state, err := c.accountState(db, id, "StorageAt")
		if err != nil {
			return common.Hash{}, err
		}
		return state.StorageAt(addr, key)
	}

	ref, ok := blockRef(id)
	if !ok {
		ref = runtime.LatestRef()
	}
	return callResult("getStorageAt", func() (common.Hash, error) {
		return c.runtime.StorageAt(ctx, ref, addr, key)
	})
}

// executeVirtual runs a request against the latest local state.
func (c *Client) executeVirtual(ctx context.Context, db *statedb.StateDB, req *eth.CallRequest, id eth.BlockID, op string) (*Executed, error) {
	state, err := c.accountState(db, id, op)
	if err != nil {
		return nil, err
	}
	env, err := envInfo(db)
	if err != nil {
		return nil, errors.NewStateCorrupt(component, op, err)
	}

	c.storageMu.RLock()
	defer c.storageMu.RUnlock()
	result, err := c.executor.ExecuteVirtual(ctx, state, env, c.storage, req)
	if err != nil {
		return nil, errors.NewExecutionFailed(component, op, err)
	}
	return result, nil
}

// Call simulates a transaction at the given block and returns its output.
func (c *Client) Call(ctx context.Context, req *eth.CallRequest, id eth.BlockID) ([]byte, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		result, err := c.executeVirtual(ctx, db, req, id, "Call")
		if err != nil {
			return nil, err
		}
		return result.Output, nil
	}

	ref, ok := blockRef(id)
	if !ok {
		ref = runtime.LatestRef()
	}
	result, err := callResult("simulateTransaction", func() (*runtime.SimulateResult, error) {
		return c.runtime.SimulateTransaction(ctx, ref, runtime.SimulateRequestFromCall(req))
	})
	if err != nil {
		return nil, err
	}
	return result.Output, nil
}

// EstimateGas simulates a transaction and returns the gas it consumed,
// refunds included.
func (c *Client) EstimateGas(ctx context.Context, req *eth.CallRequest, id eth.BlockID) (*big.Int, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		result, err := c.executeVirtual(ctx, db, req, id, "EstimateGas")
		if err != nil {
			return nil, err
		}
		return new(big.Int).Add(result.GasUsed, result.Refunded), nil
	}

	ref, ok := blockRef(id)
	if !ok {
		ref = runtime.LatestRef()
	}
	result, err := callResult("simulateTransaction", func() (*runtime.SimulateResult, error) {
		return c.runtime.SimulateTransaction(ctx, ref, runtime.SimulateRequestFromCall(req))
	})
	if err != nil {
		return nil, err
	}
	estimate := new(big.Int).SetUint64(uint64(result.UsedGas))
	return estimate.Add(estimate, new(big.Int).SetUint64(uint64(result.RefundedGas))), nil
}

// SendRawTransaction submits a signed transaction to the runtime and
// returns its hash.
func (c *Client) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	result, err := callResult("executeRawTransaction", func() (*runtime.ExecuteResult, error) {
		return c.runtime.ExecuteRawTransaction(ctx, raw)
	})
	if err != nil {
		return common.Hash{}, err
	}
	if result.CreatedContract {
		metrics.ContractCreated()
	}
	return result.Hash, nil
}

// blockIDHeight resolves a block id to a height for comparisons. db may be
// nil, in which case latest compares above everything.
func blockIDHeight(db *statedb.StateDB, id eth.BlockID) uint64 {
	switch {
	case id.IsLatest():
		if db == nil {
			return ^uint64(0)
		}
		return db.BestBlockNumber()
	case id.IsEarliest():
		return 0
	default:
		if number, byNumber := id.Number(); byNumber {
			return number
		}
		hash, _ := id.Hash()
		if db != nil {
			if number, ok, err := db.BlockNumber(hash); err == nil && ok {
				return number
			}
		}
		return unresolvedHashHeight
	}
}

// MaxBlockID returns whichever id addresses the higher block. Latest always
// dominates as the maximum and Earliest always yields, before any height is
// resolved.
func (c *Client) MaxBlockID(a, b eth.BlockID) eth.BlockID {
	switch {
	case a.IsLatest():
		return a
	case b.IsLatest():
		return b
	case a.IsEarliest():
		return b
	case b.IsEarliest():
		return a
	}

	db := c.stateDB()
	if db != nil {
		defer db.Release()
	}
	if blockIDHeight(db, a) >= blockIDHeight(db, b) {
		return a
	}
	return b
}

// MinBlockID returns whichever id addresses the lower block. Earliest always
// dominates as the minimum and Latest always yields, before any height is
// resolved.
func (c *Client) MinBlockID(a, b eth.BlockID) eth.BlockID {
	switch {
	case a.IsEarliest():
		return a
	case b.IsEarliest():
		return b
	case a.IsLatest():
		return b
	case b.IsLatest():
		return a
	}

	db := c.stateDB()
	if db != nil {
		defer db.Release()
	}
	if blockIDHeight(db, a) <= blockIDHeight(db, b) {
		return a
	}
	return b
}

// NewBlocks announces blocks confirmed since the previous tick. Without a
// local snapshot the tick is a no-op; at constant height it does nothing.
func (c *Client) NewBlocks() {
	c.cursorMu.Lock()
	defer c.cursorMu.Unlock()

	db := c.stateDB()
	if db == nil {
		return
	}
	defer db.Release()

	current := db.BestBlockNumber()
	if current <= c.notified {
		return
	}
	from := c.notified + 1

	wantHeads := false
	c.listeners.Notify(func(l notify.ChainNotify) {
		if l.HasHeadSubscribers() {
			wantHeads = true
		}
	})

	var headers []*types.Header
	if wantHeads {
		var err error
		headers, err = headersSince(db, from, current, maxNotifyHeaders)
		if err != nil {
			logger.Sugar.Errorw("failed to read confirmed headers", "from", from, "to", current, "error", err)
			return
		}
	}

	c.listeners.Notify(func(l notify.ChainNotify) {
		if wantHeads && l.HasHeadSubscribers() {
			l.NotifyHeads(headers)
		}
		l.NotifyLogs(eth.BlockNumber(from), eth.BlockNumber(current))
	})
	c.notified = current
}

// headersSince reads the headers in [from, to], most recent max of them.
func headersSince(db *statedb.StateDB, from, to uint64, max uint64) ([]*types.Header, error) {
	start := from
	if to-from+1 > max {
		start = to - max + 1
	}

	headers := make([]*types.Header, 0, to-start+1)
	for number := start; number <= to; number++ {
		hash, ok, err := db.BlockHash(number)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no hash record for block %d", number)
		}
		header, err := db.Header(hash)
		if err != nil {
			return nil, err
		}
		if header == nil {
			return nil, fmt.Errorf("no header record for block %s", hash.Hex())
		}
		headers = append(headers, header)
	}
	return headers, nil
}
