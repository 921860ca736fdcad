package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidState is returned for a missing, forged or expired OAuth state
var ErrInvalidState = errors.New("invalid oauth state")

// OAuthStateSigner issues short-lived HS256 tokens used as the OAuth state parameter
type OAuthStateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type stateClaims struct {
	Nonce    string `json:"nonce"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

func NewOAuthStateSigner(secret string, ttl time.Duration) *OAuthStateSigner {
	return &OAuthStateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed state token bound to nonce. The nonce is also kept in a cookie.
func (s *OAuthStateSigner) Issue(provider, nonce string) (string, error) {
	now := s.now()
	claims := stateClaims{
		Nonce:    nonce,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    "sorokin-portal",
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign oauth state: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, expiry, provider and nonce of a state token
func (s *OAuthStateSigner) Verify(token, provider, nonce string) error {
	claims := &stateClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("sorokin-portal"),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidState
	}
	if claims.Provider != provider || claims.Nonce == "" || claims.Nonce != nonce {
		return ErrInvalidState
	}
	return nil
}
