package runtime

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/oasislabs/web3-gateway/pkg/eth"
)

// BlockRef addresses a block on the runtime side. Only the latest block or
// an explicit height can be referenced; block hashes are not resolvable
// remotely.
type BlockRef struct {
	Latest bool
	Number uint64
}

// LatestRef references the runtime's current best block.
func LatestRef() BlockRef {
	return BlockRef{Latest: true}
}

// NumberRef references the block at the given height.
func NumberRef(number uint64) BlockRef {
	return BlockRef{Number: number}
}

func (r BlockRef) MarshalJSON() ([]byte, error) {
	if r.Latest {
		return json.Marshal("latest")
	}
	return json.Marshal(hexutil.Uint64(r.Number))
}

func (r *BlockRef) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag == "latest" {
		*r = BlockRef{Latest: true}
		return nil
	}
	number, err := hexutil.DecodeUint64(tag)
	if err != nil {
		return fmt.Errorf("invalid block reference %q: %w", tag, err)
	}
	*r = BlockRef{Number: number}
	return nil
}

// LogFilter selects log entries on the runtime side.
type LogFilter struct {
	FromBlock BlockRef         `json:"fromBlock"`
	ToBlock   BlockRef         `json:"toBlock"`
	Addresses []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics"`
	Limit     *uint64          `json:"limit,omitempty"`
}

// Transaction is the wire form of a confirmed transaction.
type Transaction struct {
	Hash        common.Hash     `json:"hash"`
	BlockHash   common.Hash     `json:"blockHash"`
	BlockNumber hexutil.Uint64  `json:"blockNumber"`
	Index       hexutil.Uint64  `json:"transactionIndex"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	Value       *hexutil.Big    `json:"value"`
	Gas         hexutil.Uint64  `json:"gas"`
	GasPrice    *hexutil.Big    `json:"gasPrice"`
	Input       hexutil.Bytes   `json:"input"`
}

// Localize converts the wire transaction to the gateway's uniform shape.
func (t *Transaction) Localize() *eth.LocalizedTransaction {
	return &eth.LocalizedTransaction{
		Hash:        t.Hash,
		BlockHash:   t.BlockHash,
		BlockNumber: uint64(t.BlockNumber),
		Index:       uint32(t.Index),
		From:        t.From,
		To:          t.To,
		Nonce:       uint64(t.Nonce),
		Value:       bigOrZero(t.Value),
		Gas:         uint64(t.Gas),
		GasPrice:    bigOrZero(t.GasPrice),
		Input:       t.Input,
	}
}

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToInt()
}

// Log is the wire form of a localized log entry.
type Log struct {
	Address     common.Address `json:"address"`
	Topics      []common.Hash  `json:"topics"`
	Data        hexutil.Bytes  `json:"data"`
	BlockHash   common.Hash    `json:"blockHash"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      common.Hash    `json:"transactionHash"`
	TxIndex     hexutil.Uint64 `json:"transactionIndex"`
	TxLogIndex  hexutil.Uint64 `json:"transactionLogIndex"`
	Index       hexutil.Uint64 `json:"logIndex"`
}

// Localize converts the wire log to the gateway's uniform shape.
func (l *Log) Localize() *eth.LocalizedLog {
	return &eth.LocalizedLog{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		BlockHash:   l.BlockHash,
		BlockNumber: uint64(l.BlockNumber),
		TxHash:      l.TxHash,
		TxIndex:     uint(l.TxIndex),
		TxLogIndex:  uint(l.TxLogIndex),
		Index:       uint(l.Index),
	}
}

// Receipt is the wire form of a transaction receipt.
type Receipt struct {
	TxHash            common.Hash     `json:"transactionHash"`
	TxIndex           hexutil.Uint64  `json:"transactionIndex"`
	BlockHash         common.Hash     `json:"blockHash"`
	BlockNumber       hexutil.Uint64  `json:"blockNumber"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	ContractAddress   *common.Address `json:"contractAddress"`
	Logs              []*Log          `json:"logs"`
	Bloom             hexutil.Bytes   `json:"logsBloom"`
	Status            hexutil.Uint64  `json:"status"`
}

// Localize converts the wire receipt to the gateway's uniform shape.
func (r *Receipt) Localize() *eth.LocalizedReceipt {
	out := &eth.LocalizedReceipt{
		TxHash:            r.TxHash,
		TxIndex:           uint32(r.TxIndex),
		BlockHash:         r.BlockHash,
		BlockNumber:       uint64(r.BlockNumber),
		CumulativeGasUsed: uint64(r.CumulativeGasUsed),
		GasUsed:           uint64(r.GasUsed),
		ContractAddress:   r.ContractAddress,
		Status:            uint64(r.Status),
	}
	copy(out.Bloom[:], r.Bloom)
	out.Logs = make([]*eth.LocalizedLog, len(r.Logs))
	for i, entry := range r.Logs {
		out.Logs[i] = entry.Localize()
	}
	return out
}

// SimulateRequest is the wire form of a transaction to simulate.
type SimulateRequest struct {
	From     common.Address  `json:"from"`
	To       *common.Address `json:"to"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Data     hexutil.Bytes   `json:"data"`
	Nonce    *hexutil.Uint64 `json:"nonce,omitempty"`
}

// SimulateRequestFromCall converts the gateway call shape to the wire form.
func SimulateRequestFromCall(req *eth.CallRequest) *SimulateRequest {
	out := &SimulateRequest{
		From: req.From,
		To:   req.To,
		Data: req.Data,
	}
	if req.Gas != 0 {
		gas := hexutil.Uint64(req.Gas)
		out.Gas = &gas
	}
	if req.GasPrice != nil {
		out.GasPrice = (*hexutil.Big)(req.GasPrice)
	}
	if req.Value != nil {
		out.Value = (*hexutil.Big)(req.Value)
	}
	if req.Nonce != nil {
		nonce := hexutil.Uint64(*req.Nonce)
		out.Nonce = &nonce
	}
	return out
}

// SimulateResult is the outcome of a virtual execution on the runtime.
type SimulateResult struct {
	Output      hexutil.Bytes  `json:"output"`
	UsedGas     hexutil.Uint64 `json:"usedGas"`
	RefundedGas hexutil.Uint64 `json:"refundedGas"`
}

// ExecuteResult is the outcome of submitting a raw transaction.
type ExecuteResult struct {
	Hash            common.Hash `json:"transactionHash"`
	CreatedContract bool        `json:"createdContract"`
}
