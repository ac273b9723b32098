// Package domain defines the persistence models for pet weight records.
// These types are mapped with GORM and form the core data layer of the
// weight tracker backend.
package domain

import "time"

// Animal is the kind of pet a weight record belongs to.
type Animal string

// Supported animal kinds.
const (
	AnimalCat     Animal = "cat"
	AnimalDog     Animal = "dog"
	AnimalHamster Animal = "hamster"
)

// Animals lists every supported animal kind in a stable order.
var Animals = []Animal{AnimalCat, AnimalDog, AnimalHamster}

// Valid reports whether a is one of the supported animal kinds. Matching is
// exact: "Cat" or " cat" are not valid.
func (a Animal) Valid() bool {
	switch a {
	case AnimalCat, AnimalDog, AnimalHamster:
		return true
	}
	return false
}

// Record is a single weight measurement for one animal on one date.
//
// Fields:
//   - ID: store-assigned autoincrement key, never reassigned.
//   - Date: calendar date normalized to YYYY-MM-DD.
//   - Weight: whole grams, always >= 1 (enforced by DB check).
//   - Animal: one of cat, dog, hamster (enforced by DB check).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//
// Records are hard-deleted; there is no soft delete marker.
type Record struct {
	ID        uint      `json:"id"        gorm:"primaryKey;autoIncrement"`
	Date      string    `json:"date"      gorm:"type:varchar(10);not null;index"`
	Weight    int       `json:"weight"    gorm:"not null;check:chk_records_weight,weight >= 1"`
	Animal    Animal    `json:"animal"    gorm:"type:varchar(16);not null;check:chk_records_animal,animal IN ('cat','dog','hamster')"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Record.
func (Record) TableName() string { return "records" }
