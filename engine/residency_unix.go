//go:build linux || darwin

package engine

import "golang.org/x/sys/unix"

// mlock page-locks b so the OS cannot swap it out, matching the real
// cudaHostRegister/page-locked-host-buffer behavior try_pinned() models
// (spec §4.2). Grounded on gguf-parser-go/util/osx's syscall-backed file
// buffer handling.
func mlock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Mlock(b)
}

func munlock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munlock(b)
}
