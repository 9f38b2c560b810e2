package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role")
)

// TokenService is the generate/verify contract consumed by middleware and login handlers.
type TokenService interface {
	Generate(subjectID int64, role string) (string, error)
	Verify(token string) (*Claims, error)
}

type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type Claims struct {
	SubjectID int64  `json:"sub_id"`
	Role      string `json:"role"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func validRole(role string) bool {
	return role == RoleTechnician || role == RoleAdmin
}

func (s *Service) Generate(subjectID int64, role string) (string, error) {
	if !validRole(role) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	now := s.now()
	claims := Claims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) Verify(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !validRole(claims.Role) || claims.SubjectID <= 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
