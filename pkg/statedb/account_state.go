package statedb

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
)

// AccountState is a read-only view of the world state at a single root. It
// resolves accounts through the state trie stored in the snapshot.
type AccountState struct {
	root common.Hash
	disk ethdb.Database
	tdb  *triedb.Database
	trie *trie.StateTrie
}

// AccountStateAt opens the state trie rooted at the given hash.
func (db *StateDB) AccountStateAt(root common.Hash) (*AccountState, error) {
	disk := rawdb.NewDatabase(&readonlyKV{db: db})
	tdb := triedb.NewDatabase(disk, triedb.HashDefaults)
	tr, err := trie.NewStateTrie(trie.StateTrieID(root), tdb)
	if err != nil {
		return nil, fmt.Errorf("statedb: state root %s unavailable: %w", root.Hex(), err)
	}
	return &AccountState{root: root, disk: disk, tdb: tdb, trie: tr}, nil
}

// Root returns the state root this view resolves against.
func (as *AccountState) Root() common.Hash {
	return as.root
}

func (as *AccountState) account(addr common.Address) (*types.StateAccount, error) {
	return as.trie.GetAccount(addr)
}

// Balance returns the balance of the given account. Missing accounts have a
// zero balance.
func (as *AccountState) Balance(addr common.Address) (*big.Int, error) {
	acc, err := as.account(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		return new(big.Int), nil
	}
	return acc.Balance.ToBig(), nil
}

// Nonce returns the nonce of the given account. Missing accounts have a
// zero nonce.
func (as *AccountState) Nonce(addr common.Address) (uint64, error) {
	acc, err := as.account(addr)
	if err != nil {
		return 0, err
	}
	if acc == nil {
		return 0, nil
	}
	return acc.Nonce, nil
}

// Code returns the bytecode of the given account. Missing accounts and
// accounts without code yield nil. A recorded code hash whose preimage is
// absent is a corruption error.
func (as *AccountState) Code(addr common.Address) ([]byte, error) {
	acc, err := as.account(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil || bytes.Equal(acc.CodeHash, types.EmptyCodeHash.Bytes()) {
		return nil, nil
	}
	code := rawdb.ReadCode(as.disk, common.BytesToHash(acc.CodeHash))
	if len(code) == 0 {
		return nil, fmt.Errorf("statedb: missing code for account %s", addr.Hex())
	}
	return code, nil
}

// StorageAt returns the storage value of the given account at the given
// key. Missing accounts and unset slots yield the zero hash.
func (as *AccountState) StorageAt(addr common.Address, key common.Hash) (common.Hash, error) {
	acc, err := as.account(addr)
	if err != nil {
		return common.Hash{}, err
	}
	if acc == nil || acc.Root == types.EmptyRootHash {
		return common.Hash{}, nil
	}
	id := trie.StorageTrieID(as.root, crypto.Keccak256Hash(addr.Bytes()), acc.Root)
	str, err := trie.NewStateTrie(id, as.tdb)
	if err != nil {
		return common.Hash{}, fmt.Errorf("statedb: storage root of %s unavailable: %w", addr.Hex(), err)
	}
	value, err := str.GetStorage(addr, key.Bytes())
	if err != nil {
		return common.Hash{}, err
	}
	return common.BytesToHash(value), nil
}
