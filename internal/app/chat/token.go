package chat

import (
	"errors"

	"roomrelay/internal/pkg/randx"
)

// maxTokenAttempts bounds collision retries. With 62^5 tokens it is only reached when the
// token space is effectively full.
const maxTokenAttempts = 1000

// ErrTokenSpaceExhausted is returned when no free token was found within maxTokenAttempts draws.
var ErrTokenSpaceExhausted = errors.New("chat: no free room token after maximum attempts")

// TokenGenerator produces short room tokens that are unique among live rooms.
type TokenGenerator struct {
	// draw returns one random candidate token.
	draw func() (string, error)
}

// NewTokenGenerator returns a generator drawing 5-character Base62 tokens from crypto/rand.
func NewTokenGenerator() *TokenGenerator {
	return &TokenGenerator{draw: randx.RoomCode}
}

// Generate draws candidates until one is not reported as taken.
// taken is consulted for every candidate; the caller must keep the key set stable
// (e.g. hold its lock) until the returned token is inserted.
func (g *TokenGenerator) Generate(taken func(token string) bool) (string, error) {
	for range maxTokenAttempts {
		token, err := g.draw()
		if err != nil {
			return "", err
		}

		if !taken(token) {
			return token, nil
		}
	}

	return "", ErrTokenSpaceExhausted
}
