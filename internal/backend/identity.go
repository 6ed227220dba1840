package backend

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Identity resolution errors.
var (
	ErrEmptyToken = errors.New("access token is empty")
	ErrNoSubject  = errors.New("access token has no subject claim")
)

// TokenIdentity resolves the local participant from the gateway access
// token's claims. The token is not verified here; the gateway rejects
// forged tokens server-side, the client only needs the claims.
type TokenIdentity struct {
	participantID string
	displayName   string
}

// IdentityFromToken parses the access token and extracts the
// participant identifier (sub) and display name (name, falling back to
// username, then to the identifier).
func IdentityFromToken(token string) (*TokenIdentity, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrNoSubject
	}

	name := stringClaim(claims, "name")
	if name == "" {
		name = stringClaim(claims, "username")
	}
	if name == "" {
		name = sub
	}

	return &TokenIdentity{participantID: sub, displayName: name}, nil
}

func (i *TokenIdentity) ParticipantID() string {
	return i.participantID
}

func (i *TokenIdentity) DisplayName() string {
	return i.displayName
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
