//go:build !windows

package secret

import "golang.org/x/sys/unix"

func mlock(p []byte) bool {
	return len(p) > 0 && unix.Mlock(p) == nil
}

func munlock(p []byte) {
	if len(p) > 0 {
		_ = unix.Munlock(p)
	}
}
