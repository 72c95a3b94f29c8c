//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package fileutil

import (
	"golang.org/x/sys/unix"
	"os"
)

type unixLock struct {
	f *os.File
}

var _ Releaser = (*unixLock)(nil)

func (l *unixLock) Release() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}

// NewLock takes an exclusive flock on f and fails at once when another open
// file holds it.
func NewLock(f *os.File) (Releaser, error) {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return &unixLock{f}, nil
}
