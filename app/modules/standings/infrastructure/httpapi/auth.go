package standingshttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleJudge is the role claim that unlocks the judge view and invalidation.
const RoleJudge = "judge"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrForbidden    = errors.New("judge role required")
)

type standingsClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Authenticator validates HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken signs a token for subject with role, valid for ttl.
func (a *Authenticator) IssueToken(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &standingsClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (a *Authenticator) parse(tokenString string) (*standingsClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &standingsClaims{}, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*standingsClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// judge reports whether r carries a valid judge token. A request without an
// Authorization header yields ErrMissingToken.
func (a *Authenticator) judge(r *http.Request) error {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return ErrInvalidToken
	}
	claims, err := a.parse(token)
	if err != nil {
		return err
	}
	if claims.Role != RoleJudge {
		return ErrForbidden
	}
	return nil
}

type judgeKey struct{}

func isJudge(ctx context.Context) bool {
	ok, _ := ctx.Value(judgeKey{}).(bool)
	return ok
}

// OptionalJudge marks requests that carry a valid judge token. Invalid tokens are
// rejected; requests without one continue as public.
func (a *Authenticator) OptionalJudge(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := a.judge(r)
		switch {
		case err == nil:
			r = r.WithContext(context.WithValue(r.Context(), judgeKey{}, true))
		case errors.Is(err, ErrMissingToken), errors.Is(err, ErrForbidden):
		default:
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireJudge rejects requests without a valid judge token.
func (a *Authenticator) RequireJudge(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := a.judge(r)
		switch {
		case err == nil:
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), judgeKey{}, true)))
		case errors.Is(err, ErrForbidden):
			writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
		default:
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
		}
	})
}
