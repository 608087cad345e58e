package jwt

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// IdentityExpiration is how long a registered display name stays valid.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies the issuer of the token.
	TokenIssuer = "RoomRelay"

	// IdentityCookieName is the cookie carrying the signed identity.
	IdentityCookieName = "relay_identity"
)

// GenerateToken signs payload with HS256 and stamps its standard claims.
func GenerateToken(payload *Payload, secretKey string, duration time.Duration) (string, error) {
	now := time.Now()

	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(duration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken validates tokenString against secretKey and returns its claims.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	if claims.Username == "" {
		return nil, errors.New("token carries no username")
	}

	return claims, nil
}

// SetIdentityCookie stores the signed identity on the client.
func SetIdentityCookie(w http.ResponseWriter, tokenString string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     IdentityCookieName,
		Value:    tokenString,
		Path:     "/",
		MaxAge:   int(IdentityExpiration / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
