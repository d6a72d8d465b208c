package badger

import (
	"fmt"

	"github.com/poiesic/modelship/core"
)

// Key prefixes for different data types
const (
	sessionPrefix = "upsess"
)

// makeSessionKey generates a key for an upload session.
func makeSessionKey(key core.SessionKey) []byte {
	return []byte(fmt.Sprintf("%s:%d", sessionPrefix, key))
}
