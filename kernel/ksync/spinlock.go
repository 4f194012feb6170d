// Package ksync provides the one concurrency primitive the kernel core
// needs: a mutex that guards the frame allocator's freelist and any other
// structure shared across harts. On the single-hart configurations spec.md
// targets it degenerates to an uncontended compare-and-swap, but it is
// written to be correct under real contention too.
package ksync

import "sync/atomic"

// yieldFn is called between failed acquire attempts. It is nil (busy-spin)
// in the freestanding build; tests substitute runtime.Gosched so that
// goroutines actually interleave instead of starving each other on a single
// OS thread.
var yieldFn func()

// Mutex is a spinlock: Lock busy-waits until the lock is free.
type Mutex struct {
	state uint32
}

// Lock blocks until the mutex can be acquired by the caller. Re-locking a
// mutex already held by the caller deadlocks, same as any spinlock.
func (m *Mutex) Lock() {
	for !atomic.CompareAndSwapUint32(&m.state, 0, 1) {
		if yieldFn != nil {
			yieldFn()
		}
	}
}

// TryLock attempts to acquire the mutex without blocking and reports
// whether it succeeded.
func (m *Mutex) TryLock() bool {
	return atomic.CompareAndSwapUint32(&m.state, 0, 1)
}

// Unlock releases a held mutex. Calling Unlock on a free mutex has no
// effect.
func (m *Mutex) Unlock() {
	atomic.StoreUint32(&m.state, 0)
}
