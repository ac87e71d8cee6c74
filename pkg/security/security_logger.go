package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"danskegas-backend/internal/domain"

	"go.uber.org/zap"
)

// EventType represents the type of security event
type EventType string

const (
	EventCaptchaFailed      EventType = "captcha_failed"
	EventCaptchaUnavailable EventType = "captcha_unavailable"
	EventAttachmentRejected EventType = "attachment_rejected"
	EventMalwareDetected    EventType = "malware_detected"
	EventConfigurationError EventType = "configuration_error"
	EventValidationFailed   EventType = "validation_failed"
)

// SecurityEvent represents a security-related event to be logged
type SecurityEvent struct {
	Timestamp    time.Time
	Event        EventType
	SubjectType  string // "email", "ip"
	SubjectValue string // masked or hashed for PII
	IP           string
	RequestID    string
	Details      map[string]interface{}
}

// SecurityLogger provides structured logging for security events
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

var (
	defaultLogger *SecurityLogger
)

// InitSecurityLogger wraps base as the process-wide security logger.
func InitSecurityLogger(base *zap.Logger, serviceName, environment string) *SecurityLogger {
	sl := NewSecurityLogger(base, serviceName, environment)
	defaultLogger = sl
	return sl
}

func NewSecurityLogger(base *zap.Logger, serviceName, environment string) *SecurityLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &SecurityLogger{
		zapLogger:   base.Named("security"),
		serviceName: serviceName,
		environment: environment,
	}
}

// DefaultLogger returns the default security logger instance
func DefaultLogger() *SecurityLogger {
	if defaultLogger == nil {
		return NewSecurityLogger(zap.L(), "danskegas-backend", "development")
	}
	return defaultLogger
}

// Log logs a security event
func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" {
		event.RequestID = domain.RequestIDFrom(ctx)
	}

	severity := GetSeverity(event.Event)

	fields := []zap.Field{
		zap.String("service", sl.serviceName),
		zap.String("env", sl.environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(severity)),
		zap.Time("event_time", event.Timestamp),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}
	if IsHighOrAbove(event.Event) {
		fields = append(fields, zap.Bool("alert", true))
	}

	sl.zapLogger.Log(severity.zapLevel(), string(event.Event), fields...)

	// Critical events must reach the sink even if the process dies next
	if IsCritical(event.Event) {
		_ = sl.zapLogger.Sync()
	}
}

// LogCaptchaFailed logs a token the provider rejected.
func (sl *SecurityLogger) LogCaptchaFailed(ctx context.Context, ip string, errorCodes []string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventCaptchaFailed,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		Details:      map[string]interface{}{"error_codes": strings.Join(errorCodes, ",")},
	})
}

func (sl *SecurityLogger) LogCaptchaUnavailable(ctx context.Context, ip string, err error) {
	sl.Log(ctx, SecurityEvent{
		Event:   EventCaptchaUnavailable,
		IP:      ip,
		Details: map[string]interface{}{"error": err.Error()},
	})
}

// LogAttachmentRejected logs an attachment refused by validation or sniffing.
func (sl *SecurityLogger) LogAttachmentRejected(ctx context.Context, email, ip, filename, declaredMIME, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventAttachmentRejected,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		Details: map[string]interface{}{
			"filename_hash": HashValue(filename),
			"declared_mime": declaredMIME,
			"reason":        reason,
		},
	})
}

func (sl *SecurityLogger) LogMalwareDetected(ctx context.Context, email, ip, threat, scanner string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventMalwareDetected,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           ip,
		Details:      map[string]interface{}{"threat": threat, "scanner": scanner},
	})
}

func (sl *SecurityLogger) LogConfigurationError(ctx context.Context, component, problem string) {
	sl.Log(ctx, SecurityEvent{
		Event:   EventConfigurationError,
		Details: map[string]interface{}{"component": component, "problem": problem},
	})
}

// LogValidationFailed logs a submission rejected by the presence check.
func (sl *SecurityLogger) LogValidationFailed(ctx context.Context, ip string, missing []string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventValidationFailed,
		SubjectType:  "ip",
		SubjectValue: ip,
		IP:           ip,
		Details:      map[string]interface{}{"missing": strings.Join(missing, ",")},
	})
}

// Sync flushes any buffered log entries
func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// --- Helper Functions ---

// MaskEmail masks an email for logging (e.g., "j***@example.com").
// Values without a local part and domain are hidden entirely.
func MaskEmail(email string) string {
	local, domainPart, ok := strings.Cut(email, "@")
	if !ok || local == "" || domainPart == "" {
		return "***"
	}
	runes := []rune(local)
	if len(runes) < 2 {
		return "***@" + domainPart
	}
	return string(runes[0]) + "***@" + domainPart
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8]) // First 16 chars of hex
}
