package statedb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Keys within ColumnExtra. The one-byte index prefixes keep the different
// lookup tables apart inside the shared column.
var (
	bestBlockKey = []byte("best")

	blockHashPrefix   = []byte("n") // blockHashPrefix + be64(number) -> block hash
	blockNumberPrefix = []byte("H") // blockNumberPrefix + hash -> be64(number)
	txLookupPrefix    = []byte("l") // txLookupPrefix + tx hash -> RLP(TxLookupEntry)
	receiptsPrefix    = []byte("r") // receiptsPrefix + block hash -> RLP receipt list
)

// TxLookupEntry locates a transaction inside its block.
type TxLookupEntry struct {
	BlockHash common.Hash
	Index     uint64
}

// BestBlockKey returns the key holding the best block hash.
func BestBlockKey() []byte {
	return bestBlockKey
}

// BlockHashKey returns the key mapping a block number to its hash.
func BlockHashKey(number uint64) []byte {
	return append(blockHashPrefix, encodeBlockNumber(number)...)
}

// BlockNumberKey returns the key mapping a block hash to its number.
func BlockNumberKey(hash common.Hash) []byte {
	return append(blockNumberPrefix, hash.Bytes()...)
}

// TxLookupKey returns the key mapping a transaction hash to its location.
func TxLookupKey(hash common.Hash) []byte {
	return append(txLookupPrefix, hash.Bytes()...)
}

// ReceiptsKey returns the key holding a block's receipt list.
func ReceiptsKey(hash common.Hash) []byte {
	return append(receiptsPrefix, hash.Bytes()...)
}

func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

func decodeBlockNumber(data []byte) (uint64, bool) {
	if len(data) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(data), true
}
