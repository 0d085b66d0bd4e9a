package auth

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pizzafoundry/pizza-service/internal/user/entity"
)

// Identity is the decoded content of a validated bearer token.
type Identity struct {
	UserID int64
	Name   string
	Email  string
	Roles  []entity.Role
}

// IsAdmin reports whether the identity holds the global admin role.
func (id *Identity) IsAdmin() bool {
	for _, r := range id.Roles {
		if r.Role == entity.RoleAdmin {
			return true
		}
	}
	return false
}

// IsFranchiseAdmin reports whether the identity holds a franchisee role
// scoped to exactly this franchise.
func (id *Identity) IsFranchiseAdmin(franchiseID int64) bool {
	for _, r := range id.Roles {
		if r.Role == entity.RoleFranchisee && r.ObjectID == franchiseID {
			return true
		}
	}
	return false
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
}

// TokenConfigFromEnv reads token settings from environment variables.
// JWT_SECRET has no default; main refuses to start without it.
func TokenConfigFromEnv() TokenConfig {
	ttl := 24 * time.Hour
	if v := os.Getenv("TOKEN_TTL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			ttl = time.Duration(hours) * time.Hour
		}
	}
	return TokenConfig{Secret: os.Getenv("JWT_SECRET"), TTL: ttl}
}

type tokenClaims struct {
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Roles []entity.Role `json:"roles"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies compact HS256 bearer tokens embedding the
// user id and role set. Verification alone does not make a token valid; the
// revocation record check lives in Service.Validate.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{secret: []byte(cfg.Secret), ttl: cfg.TTL}
}

// Sign issues a token for the user's public view.
func (s *TokenService) Sign(u *entity.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Name:  u.Name,
		Email: u.Email,
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies the signature and expiry and returns the embedded identity.
// Any parse or verification failure yields an error; the caller treats all
// of them as an invalid credential.
func (s *TokenService) Parse(token string) (*Identity, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, errors.New("invalid token subject")
	}
	return &Identity{UserID: userID, Name: claims.Name, Email: claims.Email, Roles: claims.Roles}, nil
}

// Signature returns the third dot-separated segment of a compact JWT. The
// revocation table is keyed by this fragment rather than the whole token.
func Signature(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[2] == "" {
		return "", errors.New("malformed token")
	}
	return parts[2], nil
}
