package fileutil

// Releaser releases an advisory lock taken by NewLock.
type Releaser interface {
	Release() error
}
