// Package logging provides structured logging helpers for clickup-mcp.
//
// All logging goes through log/slog. This package keeps attribute names consistent
// (operation, tool, workspace, task_ref, strategy) and masks secrets and PII before they
// reach a log line.
//
//	logger := logging.WithOperation(slog.Default(), "tasks.get")
//	logger.Info("task resolved",
//	    logging.TaskRef(raw),
//	    logging.Strategy("custom_id"))
//
// API keys are never logged; use SanitizeToken or MaskAPIKey. Emails are hashed with
// AnonymizeEmail so log lines can be correlated without exposing addresses.
package logging
