package gateway_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/oasislabs/web3-gateway/pkg/eth"
	"github.com/oasislabs/web3-gateway/pkg/gateway"
	"github.com/oasislabs/web3-gateway/pkg/runtime"
	"github.com/oasislabs/web3-gateway/pkg/statedb"
	"github.com/oasislabs/web3-gateway/pkg/testutils"
)

var testChainID = big.NewInt(2323)

var errNotStubbed = errors.New("not stubbed")

// stubRuntime implements runtime.Client with overridable behavior per call.
type stubRuntime struct {
	blockHeight func(context.Context) (uint64, error)
	block       func(context.Context, runtime.BlockRef) ([]byte, error)
	blockHash   func(context.Context, runtime.BlockRef) (common.Hash, bool, error)
	transaction func(context.Context, common.Hash) (*runtime.Transaction, error)
	receipt     func(context.Context, common.Hash) (*runtime.Receipt, error)
	logs        func(context.Context, *runtime.LogFilter) ([]*runtime.Log, error)
	balance     func(context.Context, runtime.BlockRef, common.Address) (*big.Int, error)
	code        func(context.Context, runtime.BlockRef, common.Address) ([]byte, error)
	nonce       func(context.Context, runtime.BlockRef, common.Address) (uint64, error)
	storageAt   func(context.Context, runtime.BlockRef, common.Address, common.Hash) (common.Hash, error)
	simulate    func(context.Context, runtime.BlockRef, *runtime.SimulateRequest) (*runtime.SimulateResult, error)
	execute     func(context.Context, []byte) (*runtime.ExecuteResult, error)
}

func (s *stubRuntime) BlockHeight(ctx context.Context) (uint64, error) {
	if s.blockHeight == nil {
		return 0, errNotStubbed
	}
	return s.blockHeight(ctx)
}

func (s *stubRuntime) Block(ctx context.Context, ref runtime.BlockRef) ([]byte, error) {
	if s.block == nil {
		return nil, errNotStubbed
	}
	return s.block(ctx, ref)
}

func (s *stubRuntime) BlockHash(ctx context.Context, ref runtime.BlockRef) (common.Hash, bool, error) {
	if s.blockHash == nil {
		return common.Hash{}, false, errNotStubbed
	}
	return s.blockHash(ctx, ref)
}

func (s *stubRuntime) Transaction(ctx context.Context, hash common.Hash) (*runtime.Transaction, error) {
	if s.transaction == nil {
		return nil, errNotStubbed
	}
	return s.transaction(ctx, hash)
}

func (s *stubRuntime) Receipt(ctx context.Context, hash common.Hash) (*runtime.Receipt, error) {
	if s.receipt == nil {
		return nil, errNotStubbed
	}
	return s.receipt(ctx, hash)
}

func (s *stubRuntime) Logs(ctx context.Context, filter *runtime.LogFilter) ([]*runtime.Log, error) {
	if s.logs == nil {
		return nil, errNotStubbed
	}
	return s.logs(ctx, filter)
}

func (s *stubRuntime) AccountBalance(ctx context.Context, ref runtime.BlockRef, addr common.Address) (*big.Int, error) {
	if s.balance == nil {
		return nil, errNotStubbed
	}
	return s.balance(ctx, ref, addr)
}

func (s *stubRuntime) AccountCode(ctx context.Context, ref runtime.BlockRef, addr common.Address) ([]byte, error) {
	if s.code == nil {
		return nil, errNotStubbed
	}
	return s.code(ctx, ref, addr)
}

func (s *stubRuntime) AccountNonce(ctx context.Context, ref runtime.BlockRef, addr common.Address) (uint64, error) {
	if s.nonce == nil {
		return 0, errNotStubbed
	}
	return s.nonce(ctx, ref, addr)
}

func (s *stubRuntime) StorageAt(ctx context.Context, ref runtime.BlockRef, addr common.Address, key common.Hash) (common.Hash, error) {
	if s.storageAt == nil {
		return common.Hash{}, errNotStubbed
	}
	return s.storageAt(ctx, ref, addr, key)
}

func (s *stubRuntime) SimulateTransaction(ctx context.Context, ref runtime.BlockRef, req *runtime.SimulateRequest) (*runtime.SimulateResult, error) {
	if s.simulate == nil {
		return nil, errNotStubbed
	}
	return s.simulate(ctx, ref, req)
}

func (s *stubRuntime) ExecuteRawTransaction(ctx context.Context, raw []byte) (*runtime.ExecuteResult, error) {
	if s.execute == nil {
		return nil, errNotStubbed
	}
	return s.execute(ctx, raw)
}

// stubExecutor implements gateway.Executor.
type stubExecutor struct {
	fn func(ctx context.Context, state *statedb.AccountState, env *gateway.EnvInfo, storage gateway.Storage, req *eth.CallRequest) (*gateway.Executed, error)
}

func (s *stubExecutor) ExecuteVirtual(ctx context.Context, state *statedb.AccountState, env *gateway.EnvInfo, storage gateway.Storage, req *eth.CallRequest) (*gateway.Executed, error) {
	if s.fn == nil {
		return nil, errNotStubbed
	}
	return s.fn(ctx, state, env, storage, req)
}

// localClient wires a façade over a populated snapshot. The runtime stub
// rejects every call, proving the local path never leaves the process.
func localClient(snap *testutils.MemorySnapshot) (*gateway.Client, *stubRuntime, *stubExecutor) {
	rt := &stubRuntime{}
	exec := &stubExecutor{}
	client := gateway.NewClient(rt, &testutils.StaticProvider{Snap: snap}, exec, testChainID)
	return client, rt, exec
}

// remoteClient wires a façade with no usable snapshot.
func remoteClient() (*gateway.Client, *stubRuntime) {
	rt := &stubRuntime{}
	client := gateway.NewClient(rt, &testutils.StaticProvider{Snap: testutils.NewMemorySnapshot()}, &stubExecutor{}, testChainID)
	return client, rt
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.HexToECDSA("b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291")
	require.NoError(t, err)
	return key
}

func signedTx(t *testing.T, key *ecdsa.PrivateKey, nonce uint64, to *common.Address) *types.Transaction {
	t.Helper()
	signer := types.LatestSignerForChainID(testChainID)
	tx, err := types.SignNewTx(key, signer, &types.LegacyTx{
		Nonce:    nonce,
		To:       to,
		Value:    big.NewInt(10),
		Gas:      100000,
		GasPrice: big.NewInt(1),
		Data:     []byte{0x01},
	})
	require.NoError(t, err)
	return tx
}

func receipt(cumulative uint64, status uint64, logs ...*types.Log) *types.Receipt {
	return &types.Receipt{
		Status:            status,
		CumulativeGasUsed: cumulative,
		Logs:              logs,
	}
}
