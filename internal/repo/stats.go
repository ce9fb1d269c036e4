// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mkaran/go-studio-backend/internal/domain"
)

// GenerationsStats returns aggregate metadata for a user's generations: the
// total number of rows and the maximum UpdatedAt timestamp among them. Both
// favorite toggles and lifecycle transitions bump UpdatedAt, so the pair
// (count, maxUpdatedAt) changes whenever the library view would change.
//
// When the user has no generations, the returned count is 0 and maxUpdatedAt
// is nil.
func GenerationsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Generation{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
