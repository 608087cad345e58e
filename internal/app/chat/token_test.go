package chat

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"roomrelay/internal/pkg/randx"
)

// scriptedDraw returns the given tokens in order, then repeats the last one.
func scriptedDraw(tokens ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		token := tokens[min(i, len(tokens)-1)]
		i++
		return token, nil
	}
}

func takenSet(set map[string]struct{}) func(string) bool {
	return func(token string) bool {
		_, ok := set[token]
		return ok
	}
}

func TestTokenGenerator_RetriesOnCollision(t *testing.T) {
	req := require.New(t)
	draws := 0
	script := scriptedDraw("AbC12", "AbC12", "XyZ99")
	gen := &TokenGenerator{draw: func() (string, error) {
		draws++
		return script()
	}}

	token, err := gen.Generate(takenSet(map[string]struct{}{"AbC12": {}}))

	req.NoError(err)
	req.Equal("XyZ99", token)
	req.Equal(3, draws)
}

func TestTokenGenerator_BoundedWhenExhausted(t *testing.T) {
	req := require.New(t)
	draws := 0
	gen := &TokenGenerator{draw: func() (string, error) {
		draws++
		return "AAAAA", nil
	}}

	_, err := gen.Generate(func(string) bool { return true })

	req.ErrorIs(err, ErrTokenSpaceExhausted)
	req.Equal(maxTokenAttempts, draws)
}

func TestTokenGenerator_PropagatesDrawError(t *testing.T) {
	req := require.New(t)
	boom := errors.New("entropy unavailable")
	gen := &TokenGenerator{draw: func() (string, error) { return "", boom }}

	_, err := gen.Generate(func(string) bool { return false })

	req.ErrorIs(err, boom)
}

func TestTokenGenerator_DefaultTokensAreBase62(t *testing.T) {
	req := require.New(t)

	token, err := NewTokenGenerator().Generate(func(string) bool { return false })

	req.NoError(err)
	req.True(randx.IsValidRoomCode(token))
}

func TestTokenGenerator_NoDuplicatesWith999Existing(t *testing.T) {
	req := require.New(t)

	// Given a small candidate pool so collisions happen constantly
	pool := make([]string, 4000)
	for i := range pool {
		pool[i] = fmt.Sprintf("T%04d", i)
	}
	rng := rand.New(rand.NewPCG(1, 2))
	gen := &TokenGenerator{draw: func() (string, error) {
		return pool[rng.IntN(len(pool))], nil
	}}

	// And 999 tokens already live
	live := make(map[string]struct{}, 2000)
	for len(live) < 999 {
		live[pool[rng.IntN(len(pool))]] = struct{}{}
	}

	// When generating 1000 more tokens
	for range 1000 {
		token, err := gen.Generate(takenSet(live))
		req.NoError(err)

		// Then none of them collides with a live token
		req.NotContains(live, token)
		live[token] = struct{}{}
	}

	req.Len(live, 1999)
}
