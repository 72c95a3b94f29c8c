package uuidutil

import (
	"encoding/hex"
	"github.com/google/uuid"
)

// UUID returns a random uuid as 32 lowercase hex digits.
func UUID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
