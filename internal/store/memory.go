package store

import (
	"context"
	"sync"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/db/models"
)

// MemoryStudentDirectory backs the "memory" database driver for local
// development and is reused by tests.
type MemoryStudentDirectory struct {
	mu       sync.RWMutex
	students map[string]models.Student
}

func NewMemoryStudentDirectory() *MemoryStudentDirectory {
	return &MemoryStudentDirectory{
		students: make(map[string]models.Student),
	}
}

func (d *MemoryStudentDirectory) Add(student models.Student) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.students[student.ID] = student
}

func (d *MemoryStudentDirectory) GetByID(_ context.Context, id string) (*models.Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	student, ok := d.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &student, nil
}

type MemoryPermitStore struct {
	mu      sync.RWMutex
	permits map[string]models.Permit
}

func NewMemoryPermitStore() *MemoryPermitStore {
	return &MemoryPermitStore{
		permits: make(map[string]models.Permit),
	}
}

func (s *MemoryPermitStore) Insert(_ context.Context, permit *models.Permit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.permits[permit.ID] = *permit
	return nil
}

func (s *MemoryPermitStore) GetByID(_ context.Context, id string) (*models.Permit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	permit, ok := s.permits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &permit, nil
}

func (s *MemoryPermitStore) SetStatus(_ context.Context, id string, status models.PermitStatus, revokedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	permit, ok := s.permits[id]
	if !ok {
		return ErrNotFound
	}

	permit.Status = status
	permit.RevokedAt = revokedAt
	permit.UpdatedAt = time.Now()
	s.permits[id] = permit
	return nil
}
