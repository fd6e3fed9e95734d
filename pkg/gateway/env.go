package gateway

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/oasislabs/web3-gateway/pkg/statedb"
)

const lastHashCount = 256

// lastHashes collects the hashes of the parent block and its ancestors,
// most recent first. The slice always has lastHashCount entries; positions
// past the genesis block stay zero.
func lastHashes(db *statedb.StateDB, parent common.Hash) ([]common.Hash, error) {
	hashes := make([]common.Hash, lastHashCount)
	hashes[0] = parent

	for i := 0; i < lastHashCount-1; i++ {
		header, err := db.Header(hashes[i])
		if err != nil {
			return nil, err
		}
		if header == nil || header.Number.Sign() == 0 {
			break
		}
		hashes[i+1] = header.ParentHash
	}
	return hashes, nil
}

// envInfo builds the execution environment on top of the current best
// block: the pending height, the parent's timestamp and an unconstrained
// gas limit.
func envInfo(db *statedb.StateDB) (*EnvInfo, error) {
	best, ok := db.BestBlockHash()
	if !ok {
		return nil, errNoBestBlock
	}
	header, err := db.Header(best)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, errNoBestBlock
	}
	hashes, err := lastHashes(db, best)
	if err != nil {
		return nil, err
	}
	return &EnvInfo{
		Number:     header.Number.Uint64() + 1,
		Timestamp:  header.Time,
		Difficulty: new(big.Int),
		GasLimit:   new(big.Int).Set(math.MaxBig256),
		LastHashes: hashes,
	}, nil
}
