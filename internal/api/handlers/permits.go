package handlers

import (
	"net/http"

	"github.com/anthonyc-dev/ems-server/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PermitHandler struct {
	permitService *services.PermitService
	logger        *zap.Logger
}

func NewPermitHandler(permitService *services.PermitService, logger *zap.Logger) *PermitHandler {
	return &PermitHandler{
		permitService: permitService,
		logger:        logger.With(zap.String("handler", "permit")),
	}
}

// viewPermitRequest is the scan payload. UserID is an optional scan-time
// identity assertion checked against the token's owner.
type viewPermitRequest struct {
	Token  string `json:"token" binding:"required"`
	UserID string `json:"userId"`
}

// GenerateQR issues a permit for the student in the path, signs its token
// and returns the QR image alongside both.
func (ph *PermitHandler) GenerateQR(c *gin.Context) {
	studentID := c.Param("studentId")
	if studentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}

	result, err := ph.permitService.Issue(c.Request.Context(), studentID)
	if err != nil {
		ph.respondError(c, err, "Failed to issue permit", zap.String("student_id", studentID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Permit signed & QR generated",
		"permit":  result.Permit,
		"qrImage": result.QRImage,
		"token":   result.Token,
	})
}

// ViewPermit verifies a scanned token and returns the permit with its
// owner's public profile.
func (ph *PermitHandler) ViewPermit(c *gin.Context) {
	var req viewPermitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	result, err := ph.permitService.Verify(c.Request.Context(), req.Token, req.UserID)
	if err != nil {
		ph.respondError(c, err, "Permit verification failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Permit valid, student eligible for exam",
		"user":    result.Student.Public(),
		"permit":  result.Permit,
	})
}

func (ph *PermitHandler) RevokePermit(c *gin.Context) {
	permitID := c.Param("permitId")
	if permitID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Permit ID is required"})
		return
	}

	if err := ph.permitService.Revoke(c.Request.Context(), permitID); err != nil {
		ph.respondError(c, err, "Failed to revoke permit", zap.String("permit_id", permitID))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Permit revoked successfully"})
}

// respondError maps the service error taxonomy to HTTP exactly once.
// Internal detail is logged server-side and never returned to the caller.
func (ph *PermitHandler) respondError(c *gin.Context, err error, logMessage string, fields ...zap.Field) {
	status := http.StatusInternalServerError
	switch services.KindOf(err) {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindUnauthorized:
		status = http.StatusUnauthorized
	case services.KindForbidden:
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		ph.logger.Error(logMessage, append(fields, zap.Error(err))...)
	} else {
		ph.logger.Warn(logMessage, append(fields, zap.Error(err))...)
	}

	c.JSON(status, gin.H{"error": services.MessageOf(err)})
}
