package domain

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

const resultIDBytes = 4 // 8 hex characters

// NewResultID mints a random identifier for a completion result.
func NewResultID() string {
	bytes := make([]byte, resultIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return uuid.New().String()[:resultIDBytes*2]
	}
	return hex.EncodeToString(bytes)
}
