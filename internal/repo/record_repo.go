// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Record
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no validation or business rules,
// only CRUD persistence.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
//
// Functions map one-to-one onto the store operations the service needs:
//
//   - ListRecords   (find-all)
//   - GetRecord     (find-by-key)
//   - CreateRecord  (create)
//   - SaveRecord    (update in place, never upsert)
//   - DeleteRecord  (destroy)
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/pet-weight-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ListRecords returns every record ordered by id ascending. It returns an
// empty (non-nil) slice when the table is empty.
func ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	out := []domain.Record{}
	err := db.WithContext(ctx).
		Order("id asc").
		Find(&out).Error
	return out, err
}

// GetRecord fetches a single record by primary key, or ErrNotFound.
func GetRecord(ctx context.Context, db *gorm.DB, id uint) (*domain.Record, error) {
	var r domain.Record
	if err := db.WithContext(ctx).First(&r, id).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRecord inserts rec; the store assigns rec.ID.
func CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return db.WithContext(ctx).Create(rec).Error
}

// SaveRecord overwrites the business fields of an existing record. It never
// inserts: if the row is gone (e.g. deleted concurrently) it returns
// ErrNotFound.
func SaveRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	if rec.ID == 0 {
		return ErrNotFound
	}
	res := db.WithContext(ctx).
		Model(rec).
		Select("date", "weight", "animal", "updated_at").
		Updates(rec)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRecord hard-deletes the record with the given id. If no row was
// affected, it returns ErrNotFound.
func DeleteRecord(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Delete(&domain.Record{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
