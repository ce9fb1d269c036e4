// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Generation
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a generation is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Lifecycle transitions (Complete/Fail) are guarded UPDATEs: they only
//     match rows whose status is not yet terminal, so a completed or failed
//     row can never change again. A guard miss surfaces as ErrNotFound.
//   - On other DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GenerationFilter restricts listings by media kind and/or favorite flag.
// An empty Kind or false FavoritesOnly leaves the respective dimension open.
type GenerationFilter struct {
	Kind          domain.MediaKind // "" means any
	FavoritesOnly bool
}

// CreateGeneration inserts a new Generation row in the processing state.
// The ID is a randomly generated UUID and CreatedAt is set to UTC.
func CreateGeneration(ctx context.Context, db *gorm.DB, userID, prompt, title string, kind domain.MediaKind, tool domain.Tool) (*domain.Generation, error) {
	g := &domain.Generation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Tool:      tool,
		Status:    domain.StatusProcessing,
		Prompt:    prompt,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// GetGeneration fetches a single generation by its ID and owner (userID).
// If the record does not exist, it returns ErrNotFound.
func GetGeneration(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Generation, error) {
	var g domain.Generation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CompleteGeneration transitions a non-terminal generation to completed and
// records the result URL. The WHERE clause excludes terminal rows, so the
// transition happens at most once; if the row is missing or already terminal,
// ErrNotFound is returned and nothing changes.
func CompleteGeneration(ctx context.Context, db *gorm.DB, id, resultURL string) error {
	res := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("id = ? AND status IN (?, ?)", id, domain.StatusPending, domain.StatusProcessing).
		Updates(map[string]any{
			"status":     domain.StatusCompleted,
			"result_url": resultURL,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FailGeneration transitions a non-terminal generation to failed and records
// the absorbed error text. Same guard semantics as CompleteGeneration.
func FailGeneration(ctx context.Context, db *gorm.DB, id, reason string) error {
	res := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("id = ? AND status IN (?, ?)", id, domain.StatusPending, domain.StatusProcessing).
		Updates(map[string]any{
			"status": domain.StatusFailed,
			"error":  reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleFavorite flips the is_favorite flag of a generation owned by userID.
// Returns ErrNotFound when the row does not exist.
func ToggleFavorite(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Generation{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_favorite", gorm.Expr("NOT is_favorite"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountGenerations returns the number of generations owned by userID that
// match the filter.
func CountGenerations(ctx context.Context, db *gorm.DB, userID string, f GenerationFilter) (int64, error) {
	var total int64
	err := applyFilter(db.WithContext(ctx).Model(&domain.Generation{}).Where("user_id = ?", userID), f).
		Count(&total).Error
	return total, err
}

// ListGenerations returns all matching generations for userID ordered by
// creation time descending (most recent first).
func ListGenerations(ctx context.Context, db *gorm.DB, userID string, f GenerationFilter) ([]domain.Generation, error) {
	var out []domain.Generation
	err := applyFilter(db.WithContext(ctx).Where("user_id = ?", userID), f).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListGenerationsPage returns a paginated slice of matching generations,
// ordered by creation time descending. Use CountGenerations for the total.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListGenerationsPage(ctx context.Context, db *gorm.DB, userID string, f GenerationFilter, offset, limit int) ([]domain.Generation, error) {
	var out []domain.Generation
	err := applyFilter(db.WithContext(ctx).Where("user_id = ?", userID), f).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// applyFilter adds the optional kind and favorite predicates to a query.
func applyFilter(q *gorm.DB, f GenerationFilter) *gorm.DB {
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.FavoritesOnly {
		q = q.Where("is_favorite = ?", true)
	}
	return q
}
