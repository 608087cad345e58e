package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set of the identity credential. It carries only the display name;
// the room is always taken from the connection URL.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// Username is the display name used as the sender of every envelope on the connection.
	Username string `json:"username"`
}
