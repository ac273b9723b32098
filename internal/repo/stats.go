// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides a small aggregate query used for
// conditional responses (ETag generation) on the record list.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/pet-weight-backend/internal/domain"
)

// RecordsStats returns the total number of records and the greatest
// UpdatedAt among them. When the table is empty, count is 0 and
// maxUpdatedAt is nil.
//
// Return values:
//   - count:        total records
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - maxID:        greatest id, so deletes followed by inserts change the result
//   - err:          database error, if any
func RecordsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, maxID uint, err error) {
	q := db.WithContext(ctx).Model(&domain.Record{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, 0, err
	}
	if count == 0 {
		return 0, nil, 0, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Record{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, 0, err
	}
	var last struct {
		ID uint
	}
	if err = db.WithContext(ctx).Model(&domain.Record{}).
		Select("id").Order("id DESC").Limit(1).Scan(&last).Error; err != nil {
		return 0, nil, 0, err
	}
	return count, &row.UpdatedAt, last.ID, nil
}
