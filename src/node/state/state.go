package state

import (
	"sync"
	"sync/atomic"
)

// State captures the state of a relay node: Starting, Running, Recovering or
// Shutdown.
type State uint32

const (
	// Starting is the state of a node that was created but whose RPC loop is
	// not running yet.
	Starting State = iota

	// Running is the state in which a node serves inbound pushes and resend
	// requests.
	Running

	// Recovering is the state in which a node rebuilds its transaction store
	// from its peers. Inbound RPCs are still served, so that the resend
	// batches it asked for can land.
	Recovering

	// Shutdown is the state in which a node stops responding to external events
	// and closes its transport.
	Shutdown
)

// WGLIMIT is the maximum number of goroutines that can be launched through
// state.GoFunc
const WGLIMIT = 20

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Running:
		return "Running"
	case Recovering:
		return "Recovering"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Manager wraps a State with get and set methods. It is also used to limit the
// number of goroutines launched by the node, and to wait for all of them to
// complete.
type Manager struct {
	state   State
	wg      sync.WaitGroup
	wgCount int32
}

// GetState returns the current state.
func (b *Manager) GetState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

// SetState sets the state.
func (b *Manager) SetState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// GoFunc launches a goroutine for f if there are currently less than WGLIMIT
// running. Otherwise f is not run at all and GoFunc returns false.
func (b *Manager) GoFunc(f func()) bool {
	if atomic.AddInt32(&b.wgCount, 1) > WGLIMIT {
		atomic.AddInt32(&b.wgCount, -1)
		return false
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer atomic.AddInt32(&b.wgCount, -1)
		f()
	}()
	return true
}

// Running returns the number of goroutines launched by GoFunc that have not
// returned yet.
func (b *Manager) Running() int {
	return int(atomic.LoadInt32(&b.wgCount))
}

// WaitRoutines waits for all the goroutines in the waitgroup.
func (b *Manager) WaitRoutines() {
	b.wg.Wait()
}
