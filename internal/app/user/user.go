/*
Package user holds the display-name identity a participant chats under.

A username is free text chosen at registration. It is not required to be unique and carries no
authentication; it only needs to be printable and reasonably short.
*/
package user

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxUsernameRunes bounds the length of a display name.
const MaxUsernameRunes = 32

// NormalizeUsername trims surrounding whitespace and validates the result.
// It returns the cleaned name and false when the name is empty, too long or contains
// control characters.
func NormalizeUsername(raw string) (string, bool) {
	name := strings.TrimSpace(raw)

	if name == "" || !utf8.ValidString(name) {
		return "", false
	}

	if utf8.RuneCountInString(name) > MaxUsernameRunes {
		return "", false
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return "", false
		}
	}

	return name, true
}
