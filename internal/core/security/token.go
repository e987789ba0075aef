package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/thejerf/abtime"

	"github.com/sollo/sheet-admin/internal/core/domain"
)

const defaultTokenTTL = 2 * time.Hour

// Clock is the slice of abtime.AbstractTime the issuer needs.
type Clock interface {
	Now() time.Time
}

// tokenClaims is the JWT payload.
type tokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 tokens. It keeps no state: a token stays valid until
// it expires unless the caller consults a revocation list.
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
	clock  Clock
}

// NewJWTIssuer returns an issuer. A nil clock means wall time.
func NewJWTIssuer(secret []byte, ttl time.Duration, issuer string, clock Clock) *JWTIssuer {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	if clock == nil {
		clock = abtime.NewRealTime()
	}
	return &JWTIssuer{secret: secret, ttl: ttl, issuer: issuer, clock: clock}
}

// Issue signs a token for username/role.
func (i *JWTIssuer) Issue(username string, role domain.Role) (string, *domain.Claims, error) {
	now := i.clock.Now()
	claims := tokenClaims{
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, toDomainClaims(&claims), nil
}

// Verify checks algorithm, signature, expiry and role. Errors are one of
// domain.ErrTokenMalformed, domain.ErrTokenBadSignature, domain.ErrTokenExpired.
func (i *JWTIssuer) Verify(token string) (*domain.Claims, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, domain.ErrTokenBadSignature
		default:
			return nil, domain.ErrTokenMalformed
		}
	}
	if !parsed.Valid || claims.Username == "" || !domain.Role(claims.Role).Valid() {
		return nil, domain.ErrTokenMalformed
	}
	return toDomainClaims(&claims), nil
}

func toDomainClaims(c *tokenClaims) *domain.Claims {
	out := &domain.Claims{
		Username: c.Username,
		Role:     domain.Role(c.Role),
		TokenID:  c.ID,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
