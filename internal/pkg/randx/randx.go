/*
Package randx provides functions for generating cryptographically secure random identifiers.

It is primarily used to generate fixed-length Base62 room tokens and UUID participant IDs.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// RoomCodeLength is the fixed length of a room token.
	RoomCodeLength = 5
)

// RoomCode generates a Base62 room token using crypto/rand.
// Every character is drawn uniformly from Base62Chars.
func RoomCode() (string, error) {
	result := make([]byte, RoomCodeLength)

	for i := range RoomCodeLength {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number for room code: %w", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ParticipantID generates a UUID v4 string identifying one live connection.
func ParticipantID() string {
	return uuid.New().String()
}

// IsValidRoomCode checks if the given string is a valid room token.
// Validity criteria include: length equals RoomCodeLength and all characters belong to the Base62Chars set.
func IsValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}

	for _, char := range code {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
