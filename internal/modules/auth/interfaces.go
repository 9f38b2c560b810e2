package auth

import (
	"context"

	"doorstep/internal/domain"
)

// TechnicianRepository is the only storage the login flow reads.
type TechnicianRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Technician, error)
}
