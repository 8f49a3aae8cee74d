package models

import (
	"fmt"
	"time"
)

type PermitStatus string

const (
	PermitActive  PermitStatus = "active"
	PermitRevoked PermitStatus = "revoked"
)

// Permit is a time-boxed clearance grant. Status only ever moves
// active -> revoked; expiry is fixed at issuance and never extended.
type Permit struct {
	ID         string       `gorm:"primaryKey" json:"id"`
	StudentID  string       `gorm:"index;not null" json:"studentId"`
	PermitCode string       `gorm:"not null" json:"permitCode"`
	Status     PermitStatus `gorm:"not null;default:'active'" json:"status"`
	ExpiresAt  time.Time    `gorm:"not null" json:"expiresAt"`
	RevokedAt  *time.Time   `json:"revokedAt,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"-"`
}

// NewPermitCode derives the display label from the issuance timestamp.
// It is for display and audit only, never for trust decisions.
func NewPermitCode(issuedAt time.Time) string {
	return fmt.Sprintf("PERMIT-%d", issuedAt.UnixMilli())
}
