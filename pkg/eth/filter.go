package eth

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Filter selects log entries by block range, addresses and topics.
//
// An empty Addresses slice matches any address. Topics are positional: an
// empty option set at a position matches any topic there, otherwise the log's
// topic at that position must be one of the options. Limit caps the number of
// returned entries, keeping the most recent ones; zero means no limit.
type Filter struct {
	FromBlock BlockID
	ToBlock   BlockID
	Addresses []common.Address
	Topics    [][]common.Hash
	Limit     int
}

// BloomPossibilities returns one bloom per address/topic combination the
// filter permits. A header whose log-bloom contains none of them cannot hold
// a matching log.
func (f *Filter) BloomPossibilities() []types.Bloom {
	blooms := []types.Bloom{{}}

	if len(f.Addresses) > 0 {
		blooms = blooms[:0]
		for _, address := range f.Addresses {
			var b types.Bloom
			b.Add(address.Bytes())
			blooms = append(blooms, b)
		}
	}

	for _, options := range f.Topics {
		if len(options) == 0 {
			continue
		}
		next := make([]types.Bloom, 0, len(blooms)*len(options))
		for _, bloom := range blooms {
			for _, topic := range options {
				b := bloom
				b.Add(topic.Bytes())
				next = append(next, b)
			}
		}
		blooms = next
	}

	return blooms
}

// Matches reports whether a single log entry satisfies the address and topic
// predicates. The block range is not consulted here.
func (f *Filter) Matches(log *types.Log) bool {
	if len(f.Addresses) > 0 {
		found := false
		for _, address := range f.Addresses {
			if address == log.Address {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for i, options := range f.Topics {
		if len(options) == 0 {
			continue
		}
		if len(log.Topics) <= i {
			return false
		}
		found := false
		for _, topic := range options {
			if topic == log.Topics[i] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// BloomMatches reports whether the header bloom contains at least one of the
// candidate blooms.
func BloomMatches(bloom types.Bloom, candidates []types.Bloom) bool {
	for _, candidate := range candidates {
		if bloomContains(bloom, candidate) {
			return true
		}
	}
	return false
}

func bloomContains(outer, inner types.Bloom) bool {
	for i := range inner {
		if outer[i]&inner[i] != inner[i] {
			return false
		}
	}
	return true
}
