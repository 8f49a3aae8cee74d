package store

import (
	"context"
	"testing"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStudentDirectory(t *testing.T) {
	directory := NewMemoryStudentDirectory()
	directory.Add(models.Student{ID: "s1", SchoolID: "2021-00001", FirstName: "Maria"})

	student, err := directory.GetByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", student.FirstName)

	_, err = directory.GetByID(context.Background(), "s2")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPermitStore(t *testing.T) {
	permits := NewMemoryPermitStore()
	ctx := context.Background()

	permit := &models.Permit{
		ID:        "p1",
		StudentID: "s1",
		Status:    models.PermitActive,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, permits.Insert(ctx, permit))

	loaded, err := permits.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PermitActive, loaded.Status)

	_, err = permits.GetByID(ctx, "p2")
	require.ErrorIs(t, err, ErrNotFound)

	now := time.Now()
	require.NoError(t, permits.SetStatus(ctx, "p1", models.PermitRevoked, &now))

	loaded, err = permits.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PermitRevoked, loaded.Status)
	require.NotNil(t, loaded.RevokedAt)

	err = permits.SetStatus(ctx, "p2", models.PermitRevoked, &now)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryPermitStore_GetReturnsCopy(t *testing.T) {
	permits := NewMemoryPermitStore()
	ctx := context.Background()

	require.NoError(t, permits.Insert(ctx, &models.Permit{ID: "p1", Status: models.PermitActive}))

	first, err := permits.GetByID(ctx, "p1")
	require.NoError(t, err)
	first.Status = models.PermitRevoked

	second, err := permits.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.PermitActive, second.Status)
}
