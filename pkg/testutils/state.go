package testutils

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/stretchr/testify/require"

	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

// CommitGenesisState commits the given allocation as a genesis world state
// and copies the resulting trie nodes and code into the snapshot's reserved
// column. It returns the state root.
func CommitGenesisState(t *testing.T, snap *MemorySnapshot, alloc types.GenesisAlloc) common.Hash {
	t.Helper()

	memdb := rawdb.NewMemoryDatabase()
	tdb := triedb.NewDatabase(memdb, triedb.HashDefaults)
	genesis := &core.Genesis{
		Config: params.AllEthashProtocolChanges,
		Alloc:  alloc,
	}
	block, err := genesis.Commit(memdb, tdb)
	require.NoError(t, err)

	it := memdb.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		snap.PutColumn(statedb.ColumnNone, it.Key(), it.Value())
	}
	require.NoError(t, it.Error())

	return block.Root()
}
