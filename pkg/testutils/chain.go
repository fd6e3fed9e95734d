package testutils

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

const defaultGasLimit = 10_000_000

// BlockSpec describes one block appended by the ChainBuilder. Zero values
// are fine for fields a test does not care about.
type BlockSpec struct {
	Txs       []*types.Transaction
	Receipts  []*types.Receipt
	StateRoot common.Hash
	Time      uint64
	GasLimit  uint64
}

// ChainBuilder writes a linked chain of blocks into a snapshot using the
// same persisted layout the gateway reads. Block numbering starts at zero.
type ChainBuilder struct {
	t       *testing.T
	snap    *MemorySnapshot
	codec   statedb.Codec
	headers []*types.Header
	hashes  []common.Hash
}

// NewChainBuilder creates a builder writing into the given snapshot.
func NewChainBuilder(t *testing.T, snap *MemorySnapshot) *ChainBuilder {
	return &ChainBuilder{t: t, snap: snap, codec: statedb.SnappyCodec()}
}

// AddBlock appends a block to the chain, writes all of its records and
// advances the best block marker. It returns the block hash.
func (b *ChainBuilder) AddBlock(spec BlockSpec) common.Hash {
	b.t.Helper()

	gasLimit := spec.GasLimit
	if gasLimit == 0 {
		gasLimit = defaultGasLimit
	}
	header := &types.Header{
		Number:     big.NewInt(int64(len(b.headers))),
		Difficulty: new(big.Int),
		Time:       spec.Time,
		Root:       spec.StateRoot,
		GasLimit:   gasLimit,
		Bloom:      types.CreateBloom(types.Receipts(spec.Receipts)),
	}
	if len(b.hashes) > 0 {
		header.ParentHash = b.hashes[len(b.hashes)-1]
	}
	if n := len(spec.Receipts); n > 0 {
		header.GasUsed = spec.Receipts[n-1].CumulativeGasUsed
	}
	hash := header.Hash()
	number := header.Number.Uint64()

	headerRLP, err := rlp.EncodeToBytes(header)
	require.NoError(b.t, err)
	b.snap.PutColumn(statedb.ColumnHeaders, hash.Bytes(), b.codec.Compress(headerRLP))

	bodyRLP, err := rlp.EncodeToBytes(&types.Body{Transactions: spec.Txs})
	require.NoError(b.t, err)
	b.snap.PutColumn(statedb.ColumnBodies, hash.Bytes(), b.codec.Compress(bodyRLP))

	b.snap.PutColumn(statedb.ColumnExtra, statedb.BlockHashKey(number), hash.Bytes())
	b.snap.PutColumn(statedb.ColumnExtra, statedb.BlockNumberKey(hash), beUint64(number))

	stored := make([]*types.ReceiptForStorage, len(spec.Receipts))
	for i, receipt := range spec.Receipts {
		stored[i] = (*types.ReceiptForStorage)(receipt)
	}
	receiptsRLP, err := rlp.EncodeToBytes(stored)
	require.NoError(b.t, err)
	b.snap.PutColumn(statedb.ColumnExtra, statedb.ReceiptsKey(hash), receiptsRLP)

	for i, tx := range spec.Txs {
		entry, err := rlp.EncodeToBytes(&statedb.TxLookupEntry{BlockHash: hash, Index: uint64(i)})
		require.NoError(b.t, err)
		b.snap.PutColumn(statedb.ColumnExtra, statedb.TxLookupKey(tx.Hash()), entry)
	}

	b.snap.PutColumn(statedb.ColumnExtra, statedb.BestBlockKey(), hash.Bytes())
	b.headers = append(b.headers, header)
	b.hashes = append(b.hashes, hash)
	return hash
}

// Extend appends count empty blocks.
func (b *ChainBuilder) Extend(count int) {
	for i := 0; i < count; i++ {
		b.AddBlock(BlockSpec{})
	}
}

// Hash returns the hash of the block at the given height.
func (b *ChainBuilder) Hash(number int) common.Hash {
	return b.hashes[number]
}

// Header returns the header of the block at the given height.
func (b *ChainBuilder) Header(number int) *types.Header {
	return b.headers[number]
}

// Len returns the number of blocks written so far.
func (b *ChainBuilder) Len() int {
	return len(b.headers)
}

func beUint64(v uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, v)
	return enc
}
