//go:build linux

package dynbuf

import "golang.org/x/sys/unix"

func (a Advice) sysValue() int {
	switch a {
	case AdviceRandom:
		return unix.MADV_RANDOM
	case AdviceSequential:
		return unix.MADV_SEQUENTIAL
	case AdviceWillNeed:
		return unix.MADV_WILLNEED
	default:
		return unix.MADV_NORMAL
	}
}

// madvise issues the given hint over buf's backing pages. Errors are
// swallowed: madvise is an optimization hint, not a correctness requirement,
// mirroring the fire-and-forget fallocate call the teacher index format
// uses on its Linux-specific file path.
func madvise(buf []byte, advice int) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Madvise(buf, advice)
}
