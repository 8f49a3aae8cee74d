package store

import (
	"context"
	"errors"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/db/models"
	"gorm.io/gorm"
)

type GormStudentDirectory struct {
	db *gorm.DB
}

func NewGormStudentDirectory(db *gorm.DB) *GormStudentDirectory {
	return &GormStudentDirectory{db: db}
}

func (d *GormStudentDirectory) GetByID(ctx context.Context, id string) (*models.Student, error) {
	var student models.Student
	if err := d.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &student, nil
}

type GormPermitStore struct {
	db *gorm.DB
}

func NewGormPermitStore(db *gorm.DB) *GormPermitStore {
	return &GormPermitStore{db: db}
}

func (s *GormPermitStore) Insert(ctx context.Context, permit *models.Permit) error {
	return s.db.WithContext(ctx).Create(permit).Error
}

func (s *GormPermitStore) GetByID(ctx context.Context, id string) (*models.Permit, error) {
	var permit models.Permit
	if err := s.db.WithContext(ctx).First(&permit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &permit, nil
}

func (s *GormPermitStore) SetStatus(ctx context.Context, id string, status models.PermitStatus, revokedAt *time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&models.Permit{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "revoked_at": revokedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
