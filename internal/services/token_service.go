package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the token was well-signed but its expiry has
	// passed. ErrTokenInvalid covers every other failure: bad signature,
	// malformed claims, wrong signing method. Callers outside the codec
	// must collapse both into one uniform rejection so a presenter cannot
	// distinguish tampering from natural expiry.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// PermitClaims binds a permit to its owner at signing time. Carrying the
// owner in the signed payload lets a verifier cross-check the presenting
// party without a store lookup.
type PermitClaims struct {
	jwt.RegisteredClaims
	PermitID string `json:"permitId"`
}

// TokenCodec signs and verifies permit tokens with a server-held secret
// injected at construction.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token carrying {permitId, studentId} with the codec's TTL.
func (c *TokenCodec) Issue(permitID, studentID string) (string, error) {
	now := c.now()
	claims := PermitClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   studentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		PermitID: permitID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the bound identifiers.
func (c *TokenCodec) Verify(tokenString string) (*PermitClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &PermitClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		// An expired claim on an otherwise valid signature is the one
		// case reported distinctly. The parser joins validation errors,
		// so a tampered token that also happens to be expired still
		// counts as invalid.
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*PermitClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.PermitID == "" || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
