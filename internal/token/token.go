// Package token issues and verifies the signed session tokens presented as
// Authorization: Bearer credentials.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"branchdesk/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTTL is the validity window of every issued token.
	DefaultTTL = 24 * time.Hour
	// MinSecretLength is the shortest HMAC secret accepted at startup.
	MinSecretLength = 32
)

var (
	// ErrInvalidToken covers every verification failure. Callers never learn
	// which check rejected the token.
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrMissingSecret = errors.New("jwt secret is not configured")
	ErrWeakSecret    = fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength)
)

// Identity is the authenticated user snapshot embedded in a token.
type Identity struct {
	ID          int64
	Role        models.Role
	BranchID    *int64
	IsBECMember bool
}

// Claims is the fixed claim set carried by every token.
type Claims struct {
	ID          int64       `json:"id"`
	Role        models.Role `json:"role"`
	BranchID    *int64      `json:"branch_id"`
	IsBECMember bool        `json:"is_bec_member"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry one of roles. An empty list
// matches any role.
func (c *Claims) HasRole(roles ...models.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// InBranch reports whether the token holder belongs to branchID.
func (c *Claims) InBranch(branchID int64) bool {
	return c.BranchID != nil && *c.BranchID == branchID
}

type Option func(*Manager)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// Manager signs tokens with a single HMAC secret. It is immutable after
// construction and safe for concurrent use.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret, issuer string, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}

	m := &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs a token for id valid for the configured TTL and returns it with
// its expiry instant.
func (m *Manager) Issue(id Identity) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)

	claims := &Claims{
		ID:          id.ID,
		Role:        id.Role,
		BranchID:    id.BranchID,
		IsBECMember: id.IsBECMember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.ID, 10),
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm, issuer and expiry and returns the
// decoded claims.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
