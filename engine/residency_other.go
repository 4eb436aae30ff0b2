//go:build !linux && !darwin

package engine

// mlock/munlock are no-ops on platforms without a page-locking syscall;
// try_pinned() still records the state transition so behavior elsewhere in
// the pipeline is platform-independent.
func mlock(b []byte) error   { return nil }
func munlock(b []byte) error { return nil }
