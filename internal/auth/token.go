package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tokens issues and verifies HS256 bearer tokens. Verification resolves the
// principal entirely from claims; the database is consulted only at login.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a Tokens with the given signing secret and token lifetime.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

type claims struct {
	Role     Role   `json:"role"`
	Org      string `json:"org,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs a token for the principal.
func (t *Tokens) Issue(p Principal) (string, error) {
	now := time.Now()

	c := claims{
		Role: p.Role(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Subject(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	switch v := p.(type) {
	case OrgAdmin:
		c.Org = v.OrgID.String()
		c.Email = v.Email
	case Member:
		c.Username = v.Username
	default:
		return "", fmt.Errorf("unsupported principal variant %T", p)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(t.secret)
}

// Verify parses and validates a token, reconstructing the principal variant
// from its claims. Any parse, signature, expiry, or claim-shape failure is
// surfaced as ErrInvalidToken.
func (t *Tokens) Verify(token string) (Principal, error) {
	var c claims

	parsed, err := jwt.ParseWithClaims(
		token, &c,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	switch c.Role {
	case RoleOrgAdmin:
		orgID, err := uuid.Parse(c.Org)
		if err != nil {
			return nil, ErrInvalidToken
		}
		return OrgAdmin{ID: id, OrgID: orgID, Email: c.Email}, nil
	case RoleMember:
		return Member{ID: id, Username: c.Username}, nil
	default:
		return nil, ErrInvalidToken
	}
}
