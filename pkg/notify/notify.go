// Package notify fans chain events out to registered listeners. Listeners
// are held weakly so a dropped subscriber does not leak; dead entries are
// pruned on the next notification.
package notify

import (
	"sync"
	"weak"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/oasislabs/web3-gateway/pkg/eth"
)

// ChainNotify receives chain head and log announcements.
type ChainNotify interface {
	// HasHeadSubscribers reports whether anyone downstream still wants
	// head announcements. Producers may skip expensive work when no
	// listener reports true.
	HasHeadSubscribers() bool
	// NotifyHeads delivers newly confirmed headers in ascending order.
	NotifyHeads(headers []*types.Header)
	// NotifyLogs announces that logs in the given inclusive block range
	// may have changed.
	NotifyLogs(from, to eth.BlockID)
}

// Ref resolves to a listener, or reports that the listener is gone.
type Ref interface {
	Get() (ChainNotify, bool)
}

// WeakRef wraps a listener in a weak reference. The registry entry dies
// with the listener.
func WeakRef[T any, PT interface {
	*T
	ChainNotify
}](listener PT) Ref {
	return weakRef[T, PT]{ptr: weak.Make((*T)(listener))}
}

type weakRef[T any, PT interface {
	*T
	ChainNotify
}] struct {
	ptr weak.Pointer[T]
}

func (r weakRef[T, PT]) Get() (ChainNotify, bool) {
	ptr := r.ptr.Value()
	if ptr == nil {
		return nil, false
	}
	return PT(ptr), true
}

type entry struct {
	id  uint64
	ref Ref
}

// Registry is a set of listeners in registration order.
type Registry struct {
	mu      sync.Mutex
	nextID  uint64
	entries []entry
}

// Add registers a listener and returns its handle.
func (r *Registry) Add(ref Ref) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.entries = append(r.entries, entry{id: r.nextID, ref: ref})
	return r.nextID
}

// Remove drops the listener with the given handle.
func (r *Registry) Remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered entries, dead ones included.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Notify calls fn for every live listener in registration order and prunes
// entries whose listener is gone. fn runs without the registry lock held,
// so listeners may re-enter the registry.
func (r *Registry) Notify(fn func(ChainNotify)) {
	r.mu.Lock()
	live := r.entries[:0]
	var listeners []ChainNotify
	for _, e := range r.entries {
		listener, ok := e.ref.Get()
		if !ok {
			continue
		}
		live = append(live, e)
		listeners = append(listeners, listener)
	}
	r.entries = live
	r.mu.Unlock()

	for _, listener := range listeners {
		fn(listener)
	}
}
