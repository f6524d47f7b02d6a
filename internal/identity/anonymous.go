package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const anonymousIssuer = "auratask-guest"

type anonymousClaims struct {
	IsAnonymous bool `json:"is_anonymous"`
	jwt.RegisteredClaims
}

// JWTProvider issues self-contained guest session tokens signed with HS256.
type JWTProvider struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTProvider(secret string, expiry time.Duration) *JWTProvider {
	return &JWTProvider{secret: []byte(secret), expiry: expiry, now: time.Now}
}

func (p *JWTProvider) CreateAnonymousIdentity(ctx context.Context) (*Anonymous, error) {
	if len(p.secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret not configured", ErrProviderUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	id := uuid.New()
	now := p.now()
	claims := anonymousClaims{
		IsAnonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    anonymousIssuer,
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.expiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return &Anonymous{ID: id, SessionToken: token}, nil
}

func (p *JWTProvider) RestoreSession(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidSession
	}

	var claims anonymousClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(anonymousIssuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%w: expired", ErrInvalidSession)
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !claims.IsAnonymous {
		return uuid.Nil, fmt.Errorf("%w: not an anonymous session", ErrInvalidSession)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}
	return id, nil
}
