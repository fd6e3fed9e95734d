package gateway

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/oasislabs/web3-gateway/pkg/errors"
	"github.com/oasislabs/web3-gateway/pkg/eth"
	"github.com/oasislabs/web3-gateway/pkg/runtime"
	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

// EnvInfo is the execution environment for a virtual call. It describes the
// pending block the call would be included in.
type EnvInfo struct {
	Number    uint64
	Author    common.Address
	Timestamp uint64
	// Difficulty is zero, the chain has no proof of work.
	Difficulty *big.Int
	GasLimit   *big.Int
	// LastHashes holds the hashes of the 256 most recent ancestors,
	// most recent first, zero-filled past the genesis block.
	LastHashes []common.Hash
}

// Storage fetches bulk storage values by content hash during execution.
type Storage interface {
	Fetch(key common.Hash) ([]byte, error)
}

// Executed is the outcome of a virtual execution.
type Executed struct {
	Output   []byte
	GasUsed  *big.Int
	Refunded *big.Int
	// ContractAddress is set when the executed transaction deployed a
	// contract.
	ContractAddress *common.Address
}

// Executor runs a transaction virtually: no nonce check, no state commit,
// output saved. Implementations wrap the confidential EVM.
type Executor interface {
	ExecuteVirtual(ctx context.Context, state *statedb.AccountState, env *EnvInfo, storage Storage, req *eth.CallRequest) (*Executed, error)
}

// runtimeExecutor forwards virtual execution to the runtime itself. It is
// the default executor when no in-process EVM is wired in; the snapshot
// state view is ignored and the runtime executes against its own state at
// the environment's parent block.
type runtimeExecutor struct {
	client runtime.Client
}

// NewRuntimeExecutor returns an executor backed by the runtime's simulation
// endpoint.
func NewRuntimeExecutor(client runtime.Client) Executor {
	return &runtimeExecutor{client: client}
}

func (e *runtimeExecutor) ExecuteVirtual(ctx context.Context, state *statedb.AccountState, env *EnvInfo, storage Storage, req *eth.CallRequest) (*Executed, error) {
	ref := runtime.LatestRef()
	if env != nil && env.Number > 0 {
		ref = runtime.NumberRef(env.Number - 1)
	}
	result, err := e.client.SimulateTransaction(ctx, ref, runtime.SimulateRequestFromCall(req))
	if err != nil {
		return nil, errors.NewExecutionFailed("gateway", "ExecuteVirtual", err)
	}
	return &Executed{
		Output:   result.Output,
		GasUsed:  new(big.Int).SetUint64(uint64(result.UsedGas)),
		Refunded: new(big.Int).SetUint64(uint64(result.RefundedGas)),
	}, nil
}
