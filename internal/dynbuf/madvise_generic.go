//go:build !linux

package dynbuf

func (a Advice) sysValue() int { return int(a) }

// madvise is a no-op on platforms without a madvise syscall binding; the
// generic build still compiles and behaves correctly, only losing the
// kernel access-pattern hint.
func madvise(buf []byte, advice int) {}
