package padlock

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

var _ TokenGenerator = DefaultTokenGenerator{}

// DefaultTokenGenerator derives tokens from a random UUID, the seed and
// extra random bytes, hashed with sha256 and hex encoded.
type DefaultTokenGenerator struct{}

func (DefaultTokenGenerator) NewToken(seed string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(uuid.NewString()))
	h.Write([]byte(seed))
	h.Write(nonce)

	return hex.EncodeToString(h.Sum(nil)), nil
}

// TokenGeneratorFunc adapts a function to the TokenGenerator interface.
type TokenGeneratorFunc func(seed string) (string, error)

func (f TokenGeneratorFunc) NewToken(seed string) (string, error) {
	return f(seed)
}
