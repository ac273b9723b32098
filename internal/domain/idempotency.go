// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency remembers the record produced by a create request carrying an
// Idempotency-Key header. A retry with the same key, before ExpiresAt, is
// answered with the stored record instead of inserting a new row.
type Idempotency struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_idempotency_key"`
	RecordID  uint      `gorm:"not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
