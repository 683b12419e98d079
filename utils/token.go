package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

func GenerateSecureToken() (string, error) {
	token := make([]byte, 32)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return hex.EncodeToString(token), nil
}

// NewLocalID returns an id for records that never see a server:
// "<unix millis>_<random hex>".
func NewLocalID(now time.Time) string {
	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%d_%x", now.UnixMilli(), now.UnixNano())
	}
	return fmt.Sprintf("%d_%s", now.UnixMilli(), hex.EncodeToString(suffix))
}
