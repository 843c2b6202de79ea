// Package token implements the signed claim-set codec shared by
// access and refresh tokens.
package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wowcampus/auth-api/internal/models"
)

// Token lifetimes are protocol constants. The access TTL is fixed
// regardless of caller input; refresh tokens pick between exactly two
// values based on the rememberMe flag.
const (
	AccessTokenTTL       = 15 * time.Minute
	RefreshTokenTTL      = 7 * 24 * time.Hour
	RememberMeRefreshTTL = 30 * 24 * time.Hour
)

// Token type discriminators carried in the "type" claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Decode failure modes. Callers must not forward the distinction
// between these to unauthenticated clients beyond a generic rejection.
var (
	ErrBadSignature = errors.New("token signature invalid")
	ErrExpired      = errors.New("token expired")
	ErrMalformed    = errors.New("token malformed")
	ErrWrongType    = errors.New("token presented in wrong role")
)

// Claims is the strongly typed payload carried by every signed token.
type Claims struct {
	UserID          int64           `json:"user_id"`
	Email           string          `json:"email"`
	Role            models.UserRole `json:"role"`
	Name            string          `json:"name"`
	TokenType       string          `json:"type"`
	OriginalLoginAt int64           `json:"original_login_time,omitempty"`
	jwt.RegisteredClaims
}

// UserInfo converts claims to the public user-info shape.
func (c *Claims) UserInfo() models.UserInfo {
	return models.UserInfo{ID: c.UserID, Email: c.Email, Name: c.Name, Role: c.Role}
}

// Codec signs and verifies token claim sets with a shared HMAC secret.
type Codec struct {
	secret []byte
	issuer string
}

// NewCodec constructs a codec for the given signing material.
func NewCodec(secret, issuer string) *Codec {
	return &Codec{secret: []byte(secret), issuer: issuer}
}

// MintAccess issues a short-lived access token. originalLoginAt is
// carried forward from the session's refresh token so re-issued
// access tokens keep pointing at the original login.
func (c *Codec) MintAccess(user *models.User, originalLoginAt time.Time) (string, time.Time, error) {
	return c.mint(user, TypeAccess, AccessTokenTTL, originalLoginAt)
}

// MintRefresh issues a refresh token with one of the two allowed TTLs.
func (c *Codec) MintRefresh(user *models.User, rememberMe bool, loginAt time.Time) (string, time.Time, error) {
	ttl := RefreshTokenTTL
	if rememberMe {
		ttl = RememberMeRefreshTTL
	}
	return c.mint(user, TypeRefresh, ttl, loginAt)
}

func (c *Codec) mint(user *models.User, tokenType string, ttl time.Duration, originalLoginAt time.Time) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(ttl)

	claims := &Claims{
		UserID:          user.ID,
		Email:           user.Email,
		Role:            user.Role,
		Name:            user.Name,
		TokenType:       tokenType,
		OriginalLoginAt: originalLoginAt.UTC().Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			// Distinct JTI per mint: two tokens issued in the same
			// second must still digest to different storage keys.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Decode verifies the signature, then expiry, then the claim shape.
// Signature failures are reported before anything about the payload
// is inspected.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrBadSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		default:
			return nil, ErrMalformed
		}
	}

	if err := validateClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// DecodeAccess decodes a token and rejects refresh tokens presented
// as access tokens.
func (c *Codec) DecodeAccess(tokenString string) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrWrongType
	}
	return claims, nil
}

// DecodeRefresh decodes a token and rejects anything that does not
// carry the refresh discriminator.
func (c *Codec) DecodeRefresh(tokenString string) (*Claims, error) {
	claims, err := c.Decode(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrWrongType
	}
	return claims, nil
}

func validateClaims(claims *Claims) error {
	if claims.UserID <= 0 || claims.Email == "" || !claims.Role.Valid() {
		return ErrMalformed
	}
	if claims.TokenType != TypeAccess && claims.TokenType != TypeRefresh {
		return ErrMalformed
	}
	return nil
}

// Digest returns the deterministic one-way digest used as the storage
// key for refresh tokens and blacklist entries. Raw tokens are never
// persisted.
func Digest(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
