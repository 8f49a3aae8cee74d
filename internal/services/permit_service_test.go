package services

import (
	"context"
	"testing"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/db/models"
	"github.com/anthonyc-dev/ems-server/internal/store"
	"github.com/anthonyc-dev/ems-server/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type permitFixture struct {
	service  *PermitService
	codec    *TokenCodec
	students *store.MemoryStudentDirectory
	permits  *store.MemoryPermitStore
}

func newPermitFixture(t *testing.T) *permitFixture {
	t.Helper()

	students := store.NewMemoryStudentDirectory()
	students.Add(models.Student{
		ID:        "student-42",
		SchoolID:  "2021-00042",
		FirstName: "Maria",
		LastName:  "Santos",
		Email:     "maria.santos@school.edu",
		Program:   "BSIT",
		YearLevel: 3,
	})

	permits := store.NewMemoryPermitStore()
	codec := NewTokenCodec(testSecret, PermitValidity)
	service := NewPermitService(students, permits, codec, NewQREncoder(""), zap.NewNop(), metrics.NewCollector())

	return &permitFixture{
		service:  service,
		codec:    codec,
		students: students,
		permits:  permits,
	}
}

func TestPermitService_Issue(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	assert.Equal(t, models.PermitActive, result.Permit.Status)
	assert.Equal(t, "student-42", result.Permit.StudentID)
	assert.Contains(t, result.Permit.PermitCode, "PERMIT-")
	assert.Equal(t, result.Permit.CreatedAt.Add(PermitValidity), result.Permit.ExpiresAt)
	assert.Contains(t, result.QRImage, "data:image/png;base64,")

	// The token is immediately verifiable and bound to the same owner.
	verified, err := f.service.Verify(ctx, result.Token, "")
	require.NoError(t, err)
	assert.Equal(t, result.Permit.ID, verified.Permit.ID)
	assert.Equal(t, "student-42", verified.Student.ID)

	// The permit landed in the store.
	stored, err := f.permits.GetByID(ctx, result.Permit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PermitActive, stored.Status)
}

func TestPermitService_IssueUnknownStudent(t *testing.T) {
	f := newPermitFixture(t)

	_, err := f.service.Issue(context.Background(), "student-999")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "User not found", MessageOf(err))
}

func TestPermitService_VerifyWrongUser(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	_, err = f.service.Verify(ctx, result.Token, "student-7")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	// The matching assertion still passes.
	_, err = f.service.Verify(ctx, result.Token, "student-42")
	require.NoError(t, err)
}

func TestPermitService_VerifyTamperedToken(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	tampered := result.Token[:len(result.Token)-2] + "xx"
	_, err = f.service.Verify(ctx, tampered, "")
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "Invalid or expired QR", MessageOf(err))
}

func TestPermitService_VerifyAfterRevoke(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(ctx, result.Permit.ID))

	// Plenty of time left before expiry; revocation alone must deny.
	_, err = f.service.Verify(ctx, result.Token, "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, "Permit not valid", MessageOf(err))
}

func TestPermitService_RevokeIdempotent(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	require.NoError(t, f.service.Revoke(ctx, result.Permit.ID))
	require.NoError(t, f.service.Revoke(ctx, result.Permit.ID))

	stored, err := f.permits.GetByID(ctx, result.Permit.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PermitRevoked, stored.Status)
	require.NotNil(t, stored.RevokedAt)
}

func TestPermitService_RevokeUnknownPermit(t *testing.T) {
	f := newPermitFixture(t)

	err := f.service.Revoke(context.Background(), "no-such-permit")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPermitService_TokenExpiryCaughtAtTokenLevel(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	// Advance only the codec clock: the stored record is still within its
	// window, the signed claim is not.
	f.codec.now = func() time.Time { return time.Now().Add(PermitValidity + time.Hour) }

	_, err = f.service.Verify(ctx, result.Token, "")
	require.Error(t, err)
	assert.Equal(t, KindUnauthorized, KindOf(err))
	assert.Equal(t, "Invalid or expired QR", MessageOf(err))
}

func TestPermitService_RecordExpiryCaughtAtRecordLevel(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	// Hold the token valid but age the stored record past its expiry.
	expired := *result.Permit
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, f.permits.Insert(ctx, &expired))

	_, err = f.service.Verify(ctx, result.Token, "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
	assert.Equal(t, "Permit expired", MessageOf(err))
}

func TestPermitService_VerifyPermitMissingFromStore(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	// A token signed for a permit the store never saw, e.g. after a
	// store reset.
	token, err := f.codec.Issue("permit-gone", "student-42")
	require.NoError(t, err)

	_, err = f.service.Verify(ctx, token, "")
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "Permit not found", MessageOf(err))
}

func TestPermitService_VerifyOwnerDivergence(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	// If the stored owner ever diverged from the signed owner the token
	// must be rejected outright.
	moved := *result.Permit
	moved.StudentID = "student-7"
	require.NoError(t, f.permits.Insert(ctx, &moved))

	_, err = f.service.Verify(ctx, result.Token, "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestPermitService_MultiplePermitsIndependent(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	first, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)
	second, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	assert.NotEqual(t, first.Permit.ID, second.Permit.ID)
	assert.NotEqual(t, first.Token, second.Token)

	require.NoError(t, f.service.Revoke(ctx, first.Permit.ID))

	_, err = f.service.Verify(ctx, first.Token, "")
	require.Error(t, err)
	assert.Equal(t, KindForbidden, KindOf(err))

	// The sibling permit is untouched.
	_, err = f.service.Verify(ctx, second.Token, "")
	require.NoError(t, err)
}

func TestPermitService_VerifyNeverMutates(t *testing.T) {
	f := newPermitFixture(t)
	ctx := context.Background()

	result, err := f.service.Issue(ctx, "student-42")
	require.NoError(t, err)

	before, err := f.permits.GetByID(ctx, result.Permit.ID)
	require.NoError(t, err)

	_, _ = f.service.Verify(ctx, result.Token, "student-7")
	_, _ = f.service.Verify(ctx, "garbage", "")
	_, err = f.service.Verify(ctx, result.Token, "")
	require.NoError(t, err)

	after, err := f.permits.GetByID(ctx, result.Permit.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
