package notify_test

import (
	"math/big"
	"runtime"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oasislabs/web3-gateway/pkg/eth"
	"github.com/oasislabs/web3-gateway/pkg/notify"
)

type recordingListener struct {
	heads [][]*types.Header
	logs  []struct{ from, to eth.BlockID }
}

func (l *recordingListener) HasHeadSubscribers() bool { return true }

func (l *recordingListener) NotifyHeads(headers []*types.Header) {
	l.heads = append(l.heads, headers)
}

func (l *recordingListener) NotifyLogs(from, to eth.BlockID) {
	l.logs = append(l.logs, struct{ from, to eth.BlockID }{from, to})
}

// deadRef simulates a listener that has been collected.
type deadRef struct{}

func (deadRef) Get() (notify.ChainNotify, bool) { return nil, false }

func TestNotifyDeliversInOrder(t *testing.T) {
	first := &recordingListener{}
	second := &recordingListener{}

	var registry notify.Registry
	registry.Add(notify.WeakRef(first))
	registry.Add(notify.WeakRef(second))

	headers := []*types.Header{{Number: big.NewInt(5), Difficulty: new(big.Int)}}
	registry.Notify(func(l notify.ChainNotify) { l.NotifyHeads(headers) })
	registry.Notify(func(l notify.ChainNotify) { l.NotifyLogs(eth.BlockNumber(4), eth.BlockNumber(5)) })

	for _, listener := range []*recordingListener{first, second} {
		require.Len(t, listener.heads, 1)
		assert.Equal(t, headers, listener.heads[0])
		require.Len(t, listener.logs, 1)
		assert.Equal(t, eth.BlockNumber(4), listener.logs[0].from)
		assert.Equal(t, eth.BlockNumber(5), listener.logs[0].to)
	}
	runtime.KeepAlive(first)
	runtime.KeepAlive(second)
}

func TestRemoveStopsDelivery(t *testing.T) {
	listener := &recordingListener{}

	var registry notify.Registry
	id := registry.Add(notify.WeakRef(listener))
	registry.Remove(id)

	registry.Notify(func(l notify.ChainNotify) { l.NotifyHeads(nil) })
	assert.Empty(t, listener.heads)
	assert.Zero(t, registry.Len())
	runtime.KeepAlive(listener)
}

func TestDeadListenersArePruned(t *testing.T) {
	live := &recordingListener{}

	var registry notify.Registry
	registry.Add(deadRef{})
	registry.Add(notify.WeakRef(live))
	registry.Add(deadRef{})
	require.Equal(t, 3, registry.Len())

	registry.Notify(func(l notify.ChainNotify) { l.NotifyHeads(nil) })

	assert.Equal(t, 1, registry.Len())
	assert.Len(t, live.heads, 1)
	runtime.KeepAlive(live)
}

func TestListenerMayReenterRegistry(t *testing.T) {
	var registry notify.Registry
	listener := &recordingListener{}
	id := registry.Add(notify.WeakRef(listener))

	registry.Notify(func(notify.ChainNotify) { registry.Remove(id) })
	assert.Zero(t, registry.Len())
	runtime.KeepAlive(listener)
}
