// Package spinlock implements a reentrant test-and-set spinlock that records
// its owning goroutine, used by every single-partition component in the
// interning engine (the sync dictionary, the slice list's mutators).
//
// The source's non-atomic fallback release path locks a free-standing
// "mutex" variable instead of the spinlock's own mutex; that bug is not
// reproduced here — Release always targets the lock's own state.
package spinlock

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"k8s.io/klog/v2"
)

// warnThreshold is the soft wall-clock threshold after which a slow
// acquisition surfaces a warning event, per spec §4.2.
const warnThreshold = 10 * time.Millisecond

// Lock is reentrant for whichever goroutine currently holds it: Acquire
// called again by the same owner returns immediately. A goroutine that
// acquires without a matching Release permanently excludes all others;
// there is no fairness guarantee.
type Lock struct {
	state int32 // 0 = free, 1 = held
	owner int64 // goroutine-scoped owner token, 0 = none
	depth int32
}

// Token identifies the calling goroutine for reentrancy purposes.
type Token int64

// Current returns a Token identifying the calling goroutine, read off the
// "goroutine NNN [running]:" header of its own runtime.Stack trace. Go has
// no public goroutine-ID API; this is the standard workaround. Callers must
// call Current() fresh at every Acquire/Release, never cache it across a
// goroutine boundary — a cached token from another goroutine defeats the
// reentrancy check entirely.
func Current() Token {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return 0
	}
	line = line[len(prefix):]
	end := bytes.IndexByte(line, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseInt(string(line[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return Token(id)
}

func (l *Lock) Acquire(owner Token) {
	if Token(atomic.LoadInt64(&l.owner)) == owner && atomic.LoadInt32(&l.state) == 1 {
		l.depth++
		return
	}
	start := time.Now()
	warned := false
	for !atomic.CompareAndSwapInt32(&l.state, 0, 1) {
		if !warned && time.Since(start) > warnThreshold {
			klog.Warningf("spinlock: acquisition exceeded %s soft threshold", warnThreshold)
			warned = true
		}
	}
	atomic.StoreInt64(&l.owner, int64(owner))
	l.depth = 1
}

func (l *Lock) Release(owner Token) {
	if Token(atomic.LoadInt64(&l.owner)) != owner {
		panic("spinlock: release by non-owner")
	}
	l.depth--
	if l.depth > 0 {
		return
	}
	atomic.StoreInt64(&l.owner, 0)
	atomic.StoreInt32(&l.state, 0)
}
