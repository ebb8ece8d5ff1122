package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys shared by every package that logs.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyWorkspace = "workspace"
	KeyTaskRef   = "task_ref"
	KeyStrategy  = "strategy"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
)

// Status values. Duplicated in instrumentation, which imports this package.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// maxTaskRefLen bounds task references in log lines; agents occasionally paste whole URLs or
// paragraphs where an ID is expected.
const maxTaskRefLen = 128

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithWorkspace returns a logger with the workspace attribute set.
func WithWorkspace(logger *slog.Logger, workspaceID string) *slog.Logger {
	return logger.With(slog.String(KeyWorkspace, workspaceID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Workspace returns a slog attribute for the ClickUp workspace (team) ID.
func Workspace(id string) slog.Attr {
	return slog.String(KeyWorkspace, id)
}

// TaskRef returns a slog attribute for a user supplied task reference, truncated.
func TaskRef(ref string) slog.Attr {
	ref = strings.TrimSpace(ref)
	if len(ref) > maxTaskRefLen {
		ref = ref[:maxTaskRefLen] + "..."
	}
	return slog.String(KeyTaskRef, ref)
}

// Strategy returns a slog attribute for a task lookup strategy.
func Strategy(name string) slog.Attr {
	return slog.String(KeyStrategy, name)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// A nil error yields an empty group, which slog omits, so Err(maybeNil) is always safe.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(email)))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
//
//	logger.Info("authenticated", logging.UserHash(user.Email))
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken returns a length indicator for a secret without exposing any of its content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// MaskAPIKey shows the leading and trailing characters of an API key so users can tell keys
// apart in check-config output. Short keys are fully masked.
func MaskAPIKey(key string) string {
	if len(key) < 16 {
		return SanitizeToken(key)
	}
	return key[:6] + "..." + key[len(key)-4:]
}
