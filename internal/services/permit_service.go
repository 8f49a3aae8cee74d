package services

import (
	"context"
	"errors"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/db/models"
	"github.com/anthonyc-dev/ems-server/internal/store"
	"github.com/anthonyc-dev/ems-server/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PermitValidity is how long an issued permit stays verifiable. The token
// TTL is kept in lockstep so a token can never outlive its permit.
const PermitValidity = 30 * 24 * time.Hour

// PermitService orchestrates permit creation, token issuance,
// verification-on-scan and revocation. The store is the single source of
// truth for status; nothing is cached between requests.
type PermitService struct {
	students store.StudentDirectory
	permits  store.PermitStore
	codec    *TokenCodec
	qr       *QREncoder
	logger   *zap.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

func NewPermitService(
	students store.StudentDirectory,
	permits store.PermitStore,
	codec *TokenCodec,
	qr *QREncoder,
	logger *zap.Logger,
	collector *metrics.Collector,
) *PermitService {
	return &PermitService{
		students: students,
		permits:  permits,
		codec:    codec,
		qr:       qr,
		logger:   logger.With(zap.String("service", "permit_service")),
		metrics:  collector,
		now:      time.Now,
	}
}

type IssueResult struct {
	Permit  *models.Permit
	Student *models.Student
	Token   string
	QRImage string
}

type VerifyResult struct {
	Permit  *models.Permit
	Student *models.Student
}

// Issue creates a fresh permit for the student, signs a token bound to it
// and renders the QR image. An owner may hold several permits at once;
// each is independently revocable.
func (ps *PermitService) Issue(ctx context.Context, studentID string) (*IssueResult, error) {
	student, err := ps.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, serviceError(KindNotFound, "User not found", err)
		}
		return nil, serviceError(KindInternal, "failed to look up student", err)
	}

	now := ps.now()
	permit := &models.Permit{
		ID:         uuid.New().String(),
		StudentID:  student.ID,
		PermitCode: models.NewPermitCode(now),
		Status:     models.PermitActive,
		ExpiresAt:  now.Add(PermitValidity),
		CreatedAt:  now,
	}
	if err := ps.permits.Insert(ctx, permit); err != nil {
		return nil, serviceError(KindInternal, "failed to create permit", err)
	}

	token, err := ps.codec.Issue(permit.ID, student.ID)
	if err != nil {
		return nil, serviceError(KindInternal, "failed to sign permit token", err)
	}

	qrImage, err := ps.qr.Encode(ps.qr.Payload(token))
	if err != nil {
		return nil, serviceError(KindInternal, "failed to render QR image", err)
	}

	ps.metrics.PermitIssued()
	ps.logger.Info("Permit issued",
		zap.String("permit_id", permit.ID),
		zap.String("student_id", student.ID),
		zap.Time("expires_at", permit.ExpiresAt),
	)

	return &IssueResult{
		Permit:  permit,
		Student: student,
		Token:   token,
		QRImage: qrImage,
	}, nil
}

// Verify checks a scanned token against both the signed claims and the
// stored record. claimedStudentID, when non-empty, is a scan-time
// identity assertion cross-checked against the token's owner. Verify
// never mutates state.
func (ps *PermitService) Verify(ctx context.Context, token, claimedStudentID string) (*VerifyResult, error) {
	claims, err := ps.codec.Verify(token)
	if err != nil {
		// Expired and tampered tokens get the same answer on purpose.
		ps.metrics.PermitVerification("invalid_token")
		return nil, serviceError(KindUnauthorized, "Invalid or expired QR", err)
	}

	if claimedStudentID != "" && claimedStudentID != claims.Subject {
		ps.metrics.PermitVerification("wrong_user")
		return nil, serviceError(KindForbidden, "Access denied: wrong user", nil)
	}

	permit, err := ps.permits.GetByID(ctx, claims.PermitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ps.metrics.PermitVerification("not_found")
			return nil, serviceError(KindNotFound, "Permit not found", err)
		}
		return nil, serviceError(KindInternal, "failed to load permit", err)
	}

	// The owner bound at signing time must still be the record's owner.
	if permit.StudentID != claims.Subject {
		ps.metrics.PermitVerification("wrong_user")
		return nil, serviceError(KindForbidden, "Access denied: wrong user", nil)
	}

	if permit.Status != models.PermitActive {
		ps.metrics.PermitVerification("revoked")
		return nil, serviceError(KindForbidden, "Permit not valid", nil)
	}

	// Checked against the stored record independently of the token's own
	// expiry; both clocks are set equal at issuance but both must hold.
	if ps.now().After(permit.ExpiresAt) {
		ps.metrics.PermitVerification("expired")
		return nil, serviceError(KindForbidden, "Permit expired", nil)
	}

	student, err := ps.students.GetByID(ctx, permit.StudentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			ps.metrics.PermitVerification("not_found")
			return nil, serviceError(KindNotFound, "User not found", err)
		}
		return nil, serviceError(KindInternal, "failed to load student", err)
	}

	ps.metrics.PermitVerification("valid")
	ps.logger.Info("Permit verified",
		zap.String("permit_id", permit.ID),
		zap.String("student_id", permit.StudentID),
	)

	return &VerifyResult{Permit: permit, Student: student}, nil
}

// Revoke flips the permit to revoked. Revocation is terminal and
// idempotent: revoking an already-revoked permit succeeds.
func (ps *PermitService) Revoke(ctx context.Context, permitID string) error {
	permit, err := ps.permits.GetByID(ctx, permitID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return serviceError(KindNotFound, "Permit not found", err)
		}
		return serviceError(KindInternal, "failed to load permit", err)
	}

	revokedAt := permit.RevokedAt
	if revokedAt == nil {
		now := ps.now()
		revokedAt = &now
	}
	if err := ps.permits.SetStatus(ctx, permitID, models.PermitRevoked, revokedAt); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return serviceError(KindNotFound, "Permit not found", err)
		}
		return serviceError(KindInternal, "failed to revoke permit", err)
	}

	ps.metrics.PermitRevoked()
	ps.logger.Info("Permit revoked",
		zap.String("permit_id", permitID),
		zap.String("student_id", permit.StudentID),
	)
	return nil
}
