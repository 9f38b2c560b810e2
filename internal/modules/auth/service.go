package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"doorstep/internal/pkg/cache"
	"doorstep/internal/pkg/jwt"
	"doorstep/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	maxFailedLoginAttempts = 5
	lockoutDuration        = 15 * time.Minute
	adminSubjectID         = 1
)

type AdminCredentials struct {
	Email        string
	PasswordHash string
}

// Service issues tokens for technicians and the configured admin account.
type Service struct {
	technicians TechnicianRepository
	tokens      jwt.TokenService
	admin       AdminCredentials
	failures    cache.Cache[int]
	log         *slog.Logger
}

func NewService(technicians TechnicianRepository, tokens jwt.TokenService, admin AdminCredentials, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	admin.Email = normalizeEmail(admin.Email)
	return &Service{
		technicians: technicians,
		tokens:      tokens,
		admin:       admin,
		failures:    cache.NewMemory[int](lockoutDuration),
		log:         log,
	}
}

func (s *Service) LoginTechnician(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if s.locked(email) {
		return nil, ErrAccountLocked
	}

	tech, err := s.technicians.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.recordFailure(email)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !checkPassword(tech.PasswordHash, req.Password) {
		s.recordFailure(email)
		return nil, ErrInvalidCredentials
	}
	if !tech.IsActive {
		return nil, ErrAccountDisabled
	}

	token, err := s.tokens.Generate(tech.ID, jwt.RoleTechnician)
	if err != nil {
		return nil, err
	}
	s.failures.Delete(email)
	s.log.Info("technician logged in", "technician_id", tech.ID)
	return &LoginResult{Token: token, Role: jwt.RoleTechnician, SubjectID: tech.ID, Name: tech.Name}, nil
}

func (s *Service) LoginAdmin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if s.admin.Email == "" || s.admin.PasswordHash == "" {
		return nil, ErrAdminNotConfigured
	}
	email := normalizeEmail(req.Email)
	if s.locked(email) {
		return nil, ErrAccountLocked
	}
	if email != s.admin.Email || !checkPassword(s.admin.PasswordHash, req.Password) {
		s.recordFailure(email)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(adminSubjectID, jwt.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.failures.Delete(email)
	s.log.Info("admin logged in")
	return &LoginResult{Token: token, Role: jwt.RoleAdmin, SubjectID: adminSubjectID}, nil
}

func (s *Service) locked(email string) bool {
	n, _ := s.failures.Get(email)
	return n >= maxFailedLoginAttempts
}

func (s *Service) recordFailure(email string) {
	n, _ := s.failures.Get(email)
	n++
	s.failures.Set(email, n)
	if n == maxFailedLoginAttempts {
		s.log.Warn("login locked", "attempts", n, "lockout", lockoutDuration)
	}
}

// HashPassword is used by the seed command to create technician accounts.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
