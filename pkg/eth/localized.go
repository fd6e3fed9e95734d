package eth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LocalizedLog is a raw log entry enriched with its position in the chain.
type LocalizedLog struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte

	BlockHash   common.Hash
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	// TxLogIndex is the index of the log within its transaction,
	// Index the index within the whole block.
	TxLogIndex uint
	Index      uint
}

// LocalizedTransaction is a transaction enriched with its position in the
// chain. The same shape is produced by the snapshot and the remote path.
type LocalizedTransaction struct {
	Hash        common.Hash
	BlockHash   common.Hash
	BlockNumber uint64
	Index       uint32

	From     common.Address
	To       *common.Address
	Nonce    uint64
	Value    *big.Int
	Gas      uint64
	GasPrice *big.Int
	Input    []byte
}

// LocalizedReceipt is a transaction receipt enriched with its position in
// the chain and localized log entries.
type LocalizedReceipt struct {
	TxHash      common.Hash
	TxIndex     uint32
	BlockHash   common.Hash
	BlockNumber uint64

	CumulativeGasUsed uint64
	GasUsed           uint64
	// ContractAddress is set for contract-creating transactions only.
	ContractAddress *common.Address
	Logs            []*LocalizedLog
	Bloom           types.Bloom
	Status          uint64
}

// CallRequest describes a transaction to simulate or estimate without
// submitting it.
type CallRequest struct {
	From     common.Address
	To       *common.Address
	Gas      uint64
	GasPrice *big.Int
	Value    *big.Int
	Data     []byte
	Nonce    *uint64
}
