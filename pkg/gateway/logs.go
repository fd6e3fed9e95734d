package gateway

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/oasislabs/web3-gateway/pkg/eth"
	"github.com/oasislabs/web3-gateway/pkg/runtime"
	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

// Logs returns the log entries selected by the filter, oldest first.
func (c *Client) Logs(ctx context.Context, filter *eth.Filter) ([]*eth.LocalizedLog, error) {
	if db := c.stateDB(); db != nil {
		defer db.Release()
		return searchLogs(db, filter)
	}

	// Hash-addressed range bounds cannot be resolved remotely.
	from, okFrom := blockRef(filter.FromBlock)
	to, okTo := blockRef(filter.ToBlock)
	if !okFrom || !okTo {
		return nil, nil
	}
	wire := &runtime.LogFilter{
		FromBlock: from,
		ToBlock:   to,
		Addresses: filter.Addresses,
		Topics:    filter.Topics,
	}
	if filter.Limit > 0 {
		limit := uint64(filter.Limit)
		wire.Limit = &limit
	}
	logs, err := callResult("getLogs", func() ([]*runtime.Log, error) {
		return c.runtime.Logs(ctx, wire)
	})
	if err != nil {
		return nil, err
	}
	out := make([]*eth.LocalizedLog, len(logs))
	for i, entry := range logs {
		out[i] = entry.Localize()
	}
	return out, nil
}

// searchLogs walks the chain backward from the filter's upper bound,
// bloom-gating each header. The range is all-or-nothing: when the walk
// cannot reach the lower bound, for example across a reorganized segment,
// the result is empty rather than partial.
func searchLogs(db *statedb.StateDB, filter *eth.Filter) ([]*eth.LocalizedLog, error) {
	fromHash, fromNumber, ok, err := blockHashAndNumber(db, filter.FromBlock)
	if err != nil || !ok {
		return nil, err
	}
	toHash, _, ok, err := blockHashAndNumber(db, filter.ToBlock)
	if err != nil || !ok {
		return nil, err
	}

	possibilities := filter.BloomPossibilities()

	var blocks []common.Hash
	var last common.Hash
	hash := toHash
	for {
		header, err := db.Header(hash)
		if err != nil {
			return nil, err
		}
		if header == nil {
			break
		}
		last = hash
		if eth.BloomMatches(header.Bloom, possibilities) {
			blocks = append(blocks, hash)
		}
		if header.Number.Uint64() <= fromNumber {
			break
		}
		hash = header.ParentHash
	}
	if last != fromHash || len(blocks) == 0 {
		return nil, nil
	}

	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	return db.Logs(blocks, filter.Matches, filter.Limit)
}
