package storage

import (
	"errors"
	"golang.org/x/sys/windows"
)

// isEphemeralError reports errors another process clears by closing the file.
func isEphemeralError(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
