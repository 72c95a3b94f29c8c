package storage

import (
	"errors"
)

var (
	ErrWriteConflict = errors.New("write conflict")
	ErrMismatch      = errors.New("version mismatch")
)

// resources
const (
	// Gateway holds the identity that survives restarts.
	Gateway = "gateway.json"
)

type Getter interface {
	Get(key string, obj interface{}) error
}

type Creater interface {
	Create(key string, obj interface{}) error
}

type Updater interface {
	Update(key, version string, obj interface{}) error
}

type Storage interface {
	Getter
	Creater
	Updater
}
