package runtime

import (
	"time"
)

// ObjectMeta identifies the running gateway. Version doubles as the ETag of the meta endpoint.
type ObjectMeta struct {
	Name    string    `json:"name"`
	ID      string    `json:"id"`
	Version string    `json:"version"`
	ModTime time.Time `json:"modTime"`
}

func (m *ObjectMeta) GetVersion() string {
	return m.Version
}
