// Package runtime talks to the confidential execution runtime over
// JSON-RPC. It is the remote half of the gateway's state access: everything
// the local snapshot cannot answer is resolved here.
package runtime

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/oasislabs/web3-gateway/pkg/errors"
)

const component = "runtime"

// Client is the runtime contract interface. Calls block until the runtime
// responds or the context is done. Unknown entities are nil results, not
// errors.
type Client interface {
	BlockHeight(ctx context.Context) (uint64, error)
	Block(ctx context.Context, ref BlockRef) ([]byte, error)
	BlockHash(ctx context.Context, ref BlockRef) (common.Hash, bool, error)
	Transaction(ctx context.Context, hash common.Hash) (*Transaction, error)
	Receipt(ctx context.Context, hash common.Hash) (*Receipt, error)
	Logs(ctx context.Context, filter *LogFilter) ([]*Log, error)
	AccountBalance(ctx context.Context, ref BlockRef, addr common.Address) (*big.Int, error)
	AccountCode(ctx context.Context, ref BlockRef, addr common.Address) ([]byte, error)
	AccountNonce(ctx context.Context, ref BlockRef, addr common.Address) (uint64, error)
	StorageAt(ctx context.Context, ref BlockRef, addr common.Address, key common.Hash) (common.Hash, error)
	SimulateTransaction(ctx context.Context, ref BlockRef, req *SimulateRequest) (*SimulateResult, error)
	ExecuteRawTransaction(ctx context.Context, raw []byte) (*ExecuteResult, error)
}

type client struct {
	rc *rpc.Client
}

// Dial connects to the runtime endpoint.
func Dial(ctx context.Context, url string) (Client, error) {
	rc, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.NewConnectionFailed(component, "dial", err,
			errors.WithMetadata("url", url))
	}
	return &client{rc: rc}, nil
}

// NewClient wraps an existing RPC connection.
func NewClient(rc *rpc.Client) Client {
	return &client{rc: rc}
}

func (c *client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.rc.CallContext(ctx, result, method, args...); err != nil {
		return errors.NewRuntimeCallFailed(component, method, err)
	}
	return nil
}

func (c *client) BlockHeight(ctx context.Context) (uint64, error) {
	var height hexutil.Uint64
	if err := c.call(ctx, &height, "runtime_blockHeight"); err != nil {
		return 0, err
	}
	return uint64(height), nil
}

func (c *client) Block(ctx context.Context, ref BlockRef) ([]byte, error) {
	var raw *hexutil.Bytes
	if err := c.call(ctx, &raw, "runtime_getBlock", ref); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return *raw, nil
}

func (c *client) BlockHash(ctx context.Context, ref BlockRef) (common.Hash, bool, error) {
	var hash *common.Hash
	if err := c.call(ctx, &hash, "runtime_getBlockHash", ref); err != nil {
		return common.Hash{}, false, err
	}
	if hash == nil {
		return common.Hash{}, false, nil
	}
	return *hash, true, nil
}

func (c *client) Transaction(ctx context.Context, hash common.Hash) (*Transaction, error) {
	var tx *Transaction
	if err := c.call(ctx, &tx, "runtime_getTransaction", hash); err != nil {
		return nil, err
	}
	return tx, nil
}

func (c *client) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	var receipt *Receipt
	if err := c.call(ctx, &receipt, "runtime_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	return receipt, nil
}

func (c *client) Logs(ctx context.Context, filter *LogFilter) ([]*Log, error) {
	var logs []*Log
	if err := c.call(ctx, &logs, "runtime_getLogs", filter); err != nil {
		return nil, err
	}
	return logs, nil
}

func (c *client) AccountBalance(ctx context.Context, ref BlockRef, addr common.Address) (*big.Int, error) {
	var balance hexutil.Big
	if err := c.call(ctx, &balance, "runtime_getBalance", addr, ref); err != nil {
		return nil, err
	}
	return balance.ToInt(), nil
}

func (c *client) AccountCode(ctx context.Context, ref BlockRef, addr common.Address) ([]byte, error) {
	var code hexutil.Bytes
	if err := c.call(ctx, &code, "runtime_getCode", addr, ref); err != nil {
		return nil, err
	}
	return code, nil
}

func (c *client) AccountNonce(ctx context.Context, ref BlockRef, addr common.Address) (uint64, error) {
	var nonce hexutil.Uint64
	if err := c.call(ctx, &nonce, "runtime_getTransactionCount", addr, ref); err != nil {
		return 0, err
	}
	return uint64(nonce), nil
}

func (c *client) StorageAt(ctx context.Context, ref BlockRef, addr common.Address, key common.Hash) (common.Hash, error) {
	var value common.Hash
	if err := c.call(ctx, &value, "runtime_getStorageAt", addr, key, ref); err != nil {
		return common.Hash{}, err
	}
	return value, nil
}

func (c *client) SimulateTransaction(ctx context.Context, ref BlockRef, req *SimulateRequest) (*SimulateResult, error) {
	var result *SimulateResult
	if err := c.call(ctx, &result, "runtime_simulateTransaction", req, ref); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.NewRuntimeNoResponse(component, "runtime_simulateTransaction")
	}
	return result, nil
}

func (c *client) ExecuteRawTransaction(ctx context.Context, raw []byte) (*ExecuteResult, error) {
	var result *ExecuteResult
	if err := c.call(ctx, &result, "runtime_executeRawTransaction", hexutil.Bytes(raw)); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.NewRuntimeNoResponse(component, "runtime_executeRawTransaction")
	}
	return result, nil
}

// Close shuts the underlying connection down.
func (c *client) Close() {
	c.rc.Close()
}
