package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/reelboard/reelboard/internal/models"
)

// Token lifetime for credentials issued by /login and cmd/token.
const TokenTTL = 12 * time.Hour

var (
	ErrMissingToken = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Claims is the JWT payload attached to every credential.
type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified participant identity extracted from a credential.
type Identity struct {
	UserID string
	Name   string
	Role   models.Role
}

// Authenticator signs and verifies bearer credentials with a shared secret.
type Authenticator struct {
	secret []byte
}

// New creates an Authenticator using the given HMAC secret.
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Issue signs a credential for the given user.
func (a *Authenticator) Issue(userID, name string, role models.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
func (a *Authenticator) Verify(raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   models.Role(claims.Role),
	}, nil
}
