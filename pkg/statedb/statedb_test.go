package statedb_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasislabs/web3-gateway/pkg/statedb"
	"github.com/oasislabs/web3-gateway/pkg/testutils"
)

func openStateDB(t *testing.T, snap *testutils.MemorySnapshot) *statedb.StateDB {
	t.Helper()
	db, ok := statedb.New(snap, statedb.SnappyCodec())
	require.True(t, ok, "snapshot should hold a best block")
	return db
}

func legacyTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    big.NewInt(1),
		Gas:      21000,
		GasPrice: big.NewInt(1),
	})
}

func receiptWithLogs(cumulative uint64, logs ...*types.Log) *types.Receipt {
	return &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: cumulative,
		Logs:              logs,
	}
}

func TestNewRequiresBestBlock(t *testing.T) {
	snap := testutils.NewMemorySnapshot()

	_, ok := statedb.New(snap, statedb.SnappyCodec())
	assert.False(t, ok, "empty snapshot must not open")

	testutils.NewChainBuilder(t, snap).Extend(1)
	_, ok = statedb.New(snap, statedb.SnappyCodec())
	assert.True(t, ok)
}

func TestColumnsAreDisjoint(t *testing.T) {
	snap := testutils.NewMemorySnapshot()
	key := []byte("shared-key")
	snap.PutColumn(statedb.ColumnHeaders, key, []byte("headers"))
	snap.PutColumn(statedb.ColumnBodies, key, []byte("bodies"))
	testutils.NewChainBuilder(t, snap).Extend(1)

	db := openStateDB(t, snap)
	defer db.Release()

	value, ok, err := db.Get(statedb.ColumnHeaders, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("headers"), value)

	value, ok, err = db.Get(statedb.ColumnBodies, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("bodies"), value)

	_, ok, err = db.Get(statedb.ColumnExtra, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHeaderBodyBlockRoundTrip(t *testing.T) {
	snap := testutils.NewMemorySnapshot()
	builder := testutils.NewChainBuilder(t, snap)
	builder.AddBlock(testutils.BlockSpec{Time: 40})
	tx := legacyTx(0)
	hash := builder.AddBlock(testutils.BlockSpec{
		Txs:      []*types.Transaction{tx},
		Receipts: []*types.Receipt{receiptWithLogs(21000)},
		Time:     55,
	})

	db := openStateDB(t, snap)
	defer db.Release()

	header, err := db.Header(hash)
	require.NoError(t, err)
	require.NotNil(t, header)
	assert.Equal(t, uint64(1), header.Number.Uint64())
	assert.Equal(t, uint64(55), header.Time)
	assert.Equal(t, builder.Hash(0), header.ParentHash)

	body, err := db.Body(hash)
	require.NoError(t, err)
	require.NotNil(t, body)
	require.Len(t, body.Transactions, 1)
	assert.Equal(t, tx.Hash(), body.Transactions[0].Hash())

	block, err := db.Block(hash)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, hash, block.Hash())
	assert.Len(t, block.Transactions(), 1)

	missing := common.HexToHash("0xdead")
	header, err = db.Header(missing)
	require.NoError(t, err)
	assert.Nil(t, header)
	block, err = db.Block(missing)
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestCorruptHeaderRecord(t *testing.T) {
	snap := testutils.NewMemorySnapshot()
	builder := testutils.NewChainBuilder(t, snap)
	hash := builder.AddBlock(testutils.BlockSpec{})
	snap.PutColumn(statedb.ColumnHeaders, hash.Bytes(), []byte("not snappy"))

	db := openStateDB(t, snap)
	defer db.Release()

	_, err := db.Header(hash)
	assert.Error(t, err)
}

func TestChainIndices(t *testing.T) {
	snap := testutils.NewMemorySnapshot()
	builder := testutils.NewChainBuilder(t, snap)
	builder.Extend(3)

	db := openStateDB(t, snap)
	defer db.Release()

	best, ok := db.BestBlockHash()
	require.True(t, ok)
	assert.Equal(t, builder.Hash(2), best)
	assert.Equal(t, uint64(2), db.BestBlockNumber())

	root, ok := db.BestBlockStateRoot()
	require.True(t, ok)
	assert.Equal(t, builder.Header(2).Root, root)

	for number := 0; number < 3; number++ {
		hash, ok, err := db.BlockHash(uint64(number))
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, builder.Hash(number), hash)

		resolved, ok, err := db.BlockNumber(hash)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, uint64(number), resolved)
	}

	_, ok, err := db.BlockHash(99)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = db.BlockNumber(common.HexToHash("0xbeef"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionLookup(t *testing.T) {
	snap := testutils.NewMemorySnapshot()
	builder := testutils.NewChainBuilder(t, snap)
	builder.Extend(1)
	first, second := legacyTx(0), legacyTx(1)
	hash := builder.AddBlock(testutils.BlockSpec{
		Txs:      []*types.Transaction{first, second},
		Receipts: []*types.Receipt{receiptWithLogs(21000), receiptWithLogs(42000)},
	})

	db := openStateDB(t, snap)
	defer db.Release()

	entry, err := db.TransactionAddress(second.Hash())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, hash, entry.BlockHash)
	assert.Equal(t, uint64(1), entry.Index)

	tx, number, err := db.TransactionAt(entry)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, second.Hash(), tx.Hash())
	assert.Equal(t, uint64(1), number)

	entry, err = db.TransactionAddress(common.HexToHash("0xfeed"))
	require.NoError(t, err)
	assert.Nil(t, entry)

	tx, _, err = db.TransactionAt(&statedb.TxLookupEntry{BlockHash: hash, Index: 7})
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestBlockReceipts(t *testing.T) {
	snap := testutils.NewMemorySnapshot()
	builder := testutils.NewChainBuilder(t, snap)
	entry := &types.Log{
		Address: common.HexToAddress("0x00000000000000000000000000000000000000bb"),
		Topics:  []common.Hash{common.HexToHash("0x01")},
		Data:    []byte{0xca, 0xfe},
	}
	hash := builder.AddBlock(testutils.BlockSpec{
		Txs:      []*types.Transaction{legacyTx(0)},
		Receipts: []*types.Receipt{receiptWithLogs(30000, entry)},
	})

	db := openStateDB(t, snap)
	defer db.Release()

	receipts, err := db.BlockReceipts(hash)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, uint64(30000), receipts[0].CumulativeGasUsed)
	require.Len(t, receipts[0].Logs, 1)
	assert.Equal(t, entry.Address, receipts[0].Logs[0].Address)

	receipts, err = db.BlockReceipts(common.HexToHash("0xabcd"))
	require.NoError(t, err)
	assert.Nil(t, receipts)
}

func TestLogs(t *testing.T) {
	wanted := common.HexToAddress("0x00000000000000000000000000000000000000cc")
	other := common.HexToAddress("0x00000000000000000000000000000000000000dd")

	snap := testutils.NewMemorySnapshot()
	builder := testutils.NewChainBuilder(t, snap)
	builder.Extend(1)
	blockA := builder.AddBlock(testutils.BlockSpec{
		Txs: []*types.Transaction{legacyTx(0)},
		Receipts: []*types.Receipt{receiptWithLogs(30000,
			&types.Log{Address: other},
			&types.Log{Address: wanted, Data: []byte("a")},
		)},
	})
	blockB := builder.AddBlock(testutils.BlockSpec{
		Txs: []*types.Transaction{legacyTx(1), legacyTx(2)},
		Receipts: []*types.Receipt{
			receiptWithLogs(21000),
			receiptWithLogs(52000, &types.Log{Address: wanted, Data: []byte("b")}),
		},
	})

	db := openStateDB(t, snap)
	defer db.Release()

	matchAddr := func(entry *types.Log) bool { return entry.Address == wanted }

	logs, err := db.Logs([]common.Hash{blockA, blockB}, matchAddr, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, []byte("a"), logs[0].Data)
	assert.Equal(t, blockA, logs[0].BlockHash)
	assert.Equal(t, uint64(1), logs[0].BlockNumber)
	assert.Equal(t, uint(0), logs[0].TxIndex)
	assert.Equal(t, uint(1), logs[0].TxLogIndex)
	assert.Equal(t, uint(1), logs[0].Index)

	assert.Equal(t, []byte("b"), logs[1].Data)
	assert.Equal(t, blockB, logs[1].BlockHash)
	assert.Equal(t, uint(1), logs[1].TxIndex)
	assert.Equal(t, uint(0), logs[1].TxLogIndex)
	assert.Equal(t, uint(0), logs[1].Index)

	// A positive limit keeps the most recent entries.
	logs, err = db.Logs([]common.Hash{blockA, blockB}, matchAddr, 1)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, []byte("b"), logs[0].Data)

	// Receipts for an unknown block are a chain consistency error.
	_, err = db.Logs([]common.Hash{common.HexToHash("0x9999")}, matchAddr, 0)
	assert.Error(t, err)
}

func TestAccountState(t *testing.T) {
	owner := common.HexToAddress("0x7110b1dbbbad153b2cbd2b526ba23ffc2bd27bbb")
	contract := common.HexToAddress("0x345ca3e014aaf5dca488057592ee47305d9b3e10")
	slot := common.HexToHash("0x01")
	slotValue := common.HexToHash("0x2a")
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xfd}

	snap := testutils.NewMemorySnapshot()
	root := testutils.CommitGenesisState(t, snap, types.GenesisAlloc{
		owner: {Balance: big.NewInt(1_000_000), Nonce: 7},
		contract: {
			Balance: big.NewInt(1),
			Code:    code,
			Storage: map[common.Hash]common.Hash{slot: slotValue},
		},
	})
	testutils.NewChainBuilder(t, snap).AddBlock(testutils.BlockSpec{StateRoot: root})

	db := openStateDB(t, snap)
	defer db.Release()

	state, err := db.AccountStateAt(root)
	require.NoError(t, err)
	assert.Equal(t, root, state.Root())

	balance, err := state.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), balance)

	nonce, err := state.Nonce(owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), nonce)

	gotCode, err := state.Code(contract)
	require.NoError(t, err)
	assert.Equal(t, code, gotCode)

	value, err := state.StorageAt(contract, slot)
	require.NoError(t, err)
	assert.Equal(t, slotValue, value)

	value, err = state.StorageAt(contract, common.HexToHash("0x02"))
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, value)

	// Missing accounts read as empty.
	missing := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	balance, err = state.Balance(missing)
	require.NoError(t, err)
	assert.Zero(t, balance.Sign())
	nonce, err = state.Nonce(missing)
	require.NoError(t, err)
	assert.Zero(t, nonce)
	gotCode, err = state.Code(missing)
	require.NoError(t, err)
	assert.Nil(t, gotCode)
	value, err = state.StorageAt(missing, slot)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{}, value)

	// A root that is not in the snapshot is unavailable.
	_, err = db.AccountStateAt(common.HexToHash("0x1234"))
	assert.Error(t, err)
}
