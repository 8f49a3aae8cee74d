package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ScanAttemptTracker counts failed permit verifications per client IP so
// bursts of bad scans (guessing, replayed stale QR codes) show up in the
// logs. It only observes; rejection stays a business decision.
type ScanAttemptTracker struct {
	attempts     map[string]*scanAttemptInfo
	mu           sync.RWMutex
	cleanupEvery time.Duration
}

type scanAttemptInfo struct {
	Count       int
	LastAttempt time.Time
	Flagged     bool
}

func NewScanAttemptTracker() *ScanAttemptTracker {
	tracker := &ScanAttemptTracker{
		attempts:     make(map[string]*scanAttemptInfo),
		cleanupEvery: 5 * time.Minute,
	}

	go tracker.startCleanup()

	return tracker
}

func (t *ScanAttemptTracker) startCleanup() {
	ticker := time.NewTicker(t.cleanupEvery)
	defer ticker.Stop()

	for range ticker.C {
		t.cleanOldEntries()
	}
}

func (t *ScanAttemptTracker) cleanOldEntries() {
	t.mu.Lock()
	defer t.mu.Unlock()

	expiry := time.Now().Add(-10 * time.Minute)
	for ip, info := range t.attempts {
		if info.LastAttempt.Before(expiry) {
			delete(t.attempts, ip)
		}
	}
}

func (t *ScanAttemptTracker) RecordFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, exists := t.attempts[ip]
	if !exists {
		info = &scanAttemptInfo{}
		t.attempts[ip] = info
	}

	info.Count++
	info.LastAttempt = time.Now()

	if info.Count > 5 {
		info.Flagged = true
	}
}

func (t *ScanAttemptTracker) IsFlagged(ip string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	info, exists := t.attempts[ip]
	if !exists {
		return false
	}

	return info.Flagged
}

type RequestMiddleware struct {
	logger         *zap.Logger
	attemptTracker *ScanAttemptTracker
}

func NewRequestMiddleware(logger *zap.Logger) *RequestMiddleware {
	return &RequestMiddleware{
		logger:         logger,
		attemptTracker: NewScanAttemptTracker(),
	}
}

func (rm *RequestMiddleware) ProcessRequest() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		ctx := context.WithValue(c.Request.Context(), "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-ID", requestID)
		start := time.Now()
		rm.logger.Info("Request started",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()))
		c.Next()
		duration := time.Since(start)
		rm.logger.Info("Request completed",
			zap.String("request_id", requestID),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.Int("size", c.Writer.Size()))
	}
}

// ScanAttemptMiddleware watches /view-permit responses and records
// verification failures per client IP.
func (rm *RequestMiddleware) ScanAttemptMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodPost || c.FullPath() != "/view-permit" {
			return
		}
		if c.Writer.Status() < http.StatusBadRequest {
			return
		}

		clientIP := c.ClientIP()
		rm.attemptTracker.RecordFailure(clientIP)
		if rm.attemptTracker.IsFlagged(clientIP) {
			rm.logger.Warn("Repeated failed permit scans from client",
				zap.String("client_ip", clientIP),
				zap.Int("status", c.Writer.Status()))
		}
	}
}

func (rm *RequestMiddleware) RecoverPanic() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				requestID, _ := c.Request.Context().Value("request_id").(string)
				rm.logger.Error("Panic recovered",
					zap.String("request_id", requestID),
					zap.Any("error", err),
					zap.Stack("stack"))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
