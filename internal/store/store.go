package store

import (
	"context"
	"errors"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/db/models"
)

// ErrNotFound is the only "missing record" error the stores surface.
// Backend-specific errors (gorm.ErrRecordNotFound and friends) are mapped
// to it inside each implementation and never leak upward.
var ErrNotFound = errors.New("record not found")

// StudentDirectory is the foreign lookup the permit subsystem needs
// before issuing a permit for an owner.
type StudentDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Student, error)
}

// PermitStore persists permit records. SetStatus is the only mutation;
// permits are never deleted here.
type PermitStore interface {
	Insert(ctx context.Context, permit *models.Permit) error
	GetByID(ctx context.Context, id string) (*models.Permit, error)
	SetStatus(ctx context.Context, id string, status models.PermitStatus, revokedAt *time.Time) error
}
