package fileutil

import (
	"golang.org/x/sys/windows"
	"os"
)

type windowsLock struct {
	h windows.Handle
}

var _ Releaser = (*windowsLock)(nil)

func (l *windowsLock) Release() error {
	return windows.UnlockFileEx(l.h, 0, 1, 0, &windows.Overlapped{})
}

// NewLock locks the first byte of f exclusively and fails at once when it is taken.
func NewLock(f *os.File) (Releaser, error) {
	h := windows.Handle(f.Fd())
	if err := windows.LockFileEx(h, windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY, 0, 1, 0, &windows.Overlapped{}); err != nil {
		return nil, err
	}
	return &windowsLock{h}, nil
}
