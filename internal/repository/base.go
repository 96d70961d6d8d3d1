// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"pixelgram/internal/database"
	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
)

// lookupError maps a single-row lookup failure to NotFound or Internal.
func lookupError(ctx context.Context, log *observability.RepoLogger, err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return internalError(ctx, log, err, "get")
}

// writeError maps a write failure to Conflict on unique violations, Internal otherwise.
func writeError(ctx context.Context, log *observability.RepoLogger, err error, conflictMsg, operation string) error {
	if database.IsUniqueViolation(err) {
		return models.NewConflictError(conflictMsg)
	}
	return internalError(ctx, log, err, operation)
}

func internalError(ctx context.Context, log *observability.RepoLogger, err error, operation string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	log.LogError(ctx, err, operation)
	return models.NewInternalError(err)
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
