package orders

import (
	"encoding/hex"

	"github.com/google/uuid"
)

const idPrefix = "ord_"

// NewID mints an opaque order id: ord_ followed by 32 hex characters.
func NewID() string {
	u := uuid.New()
	return idPrefix + hex.EncodeToString(u[:])
}
