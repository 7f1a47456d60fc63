package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const secretBytes = 32

// RandomSecrets mints URL-safe opaque tokens from crypto/rand.
type RandomSecrets struct{}

func (RandomSecrets) NewSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
