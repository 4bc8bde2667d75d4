package apiserver

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the JWT payload a session_id round-trips as: the lobby
// session identifier and the participant identity it was issued to.
type SessionClaims struct {
	SessionID     string `json:"sid"`
	ParticipantID string `json:"pid"`
	jwt.RegisteredClaims
}

// SessionCodec signs and verifies session tokens with a shared secret, per
// the out-of-scope note that JWT/session encoding is described only by the
// interface it exposes (Encode/Decode), not by a full auth subsystem.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionCodec builds a codec from the configured JWT secret.
func NewSessionCodec(secret string, ttl time.Duration) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), ttl: ttl}
}

// Encode mints a signed session token for a freshly registered lobby entry.
func (c *SessionCodec) Encode(sessionID, participantID string) (string, error) {
	claims := SessionClaims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(c.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("apiserver: failed to sign session token: %w", err)
	}
	return signed, nil
}

// Decode verifies and parses a session token, rejecting expired or
// mis-signed tokens.
func (c *SessionCodec) Decode(token string) (SessionClaims, error) {
	var claims SessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method)
		}
		return c.secret, nil
	})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("apiserver: failed to parse session token: %w", err)
	}
	if !parsed.Valid {
		return SessionClaims{}, fmt.Errorf("apiserver: session token is invalid")
	}
	return claims, nil
}
