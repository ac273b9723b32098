// Package services – RecordService
//
// This file implements the RecordService, which owns the lifecycle of pet
// weight records. Every write is validated by the validation rule set before
// it reaches the repository; lookups that yield nothing are translated into
// ErrRecordNotFound so handlers can map outcomes to HTTP results in one place.
package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/pet-weight-backend/internal/domain"
	"github.com/tbourn/pet-weight-backend/internal/repo"
	"github.com/tbourn/pet-weight-backend/internal/validation"
)

// DefaultIdempotencyTTL is how long an Idempotency-Key is remembered.
const DefaultIdempotencyTTL = 24 * time.Hour

// RecordRepo defines the repository contract required by RecordService.
type RecordRepo interface {
	// ListRecords returns every record ordered by id.
	ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error)

	// GetRecord fetches a record by id or returns repo.ErrNotFound.
	GetRecord(ctx context.Context, db *gorm.DB, id uint) (*domain.Record, error)

	// CreateRecord inserts rec and assigns its id.
	CreateRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error

	// SaveRecord persists all columns of an existing record.
	SaveRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error

	// DeleteRecord hard-deletes by id or returns repo.ErrNotFound.
	DeleteRecord(ctx context.Context, db *gorm.DB, id uint) error

	// RecordsStats returns the aggregate used for list ETags.
	RecordsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, uint, error)

	// GetIdempotency returns the live entry for key or repo.ErrNotFound.
	GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error)

	// CreateIdempotency stores key → recordID or returns repo.ErrDuplicate.
	CreateIdempotency(ctx context.Context, db *gorm.DB, key string, recordID uint, status int, now time.Time, ttl time.Duration) (*domain.Idempotency, error)

	// DeleteIdempotency forgets key.
	DeleteIdempotency(ctx context.Context, db *gorm.DB, key string) error
}

// RecordStats summarizes the record table for conditional GETs.
type RecordStats struct {
	Count     int64
	UpdatedAt *time.Time
	MaxID     uint
}

// RecordService provides create, list, update, and delete for weight
// records.
type RecordService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the record repository used by this service.
	Repo RecordRepo
	// Rules validates request bodies.
	Rules *validation.Rules
	// IdempotencyTTL bounds how long a create can be replayed.
	IdempotencyTTL time.Duration

	now func() time.Time
}

// NewRecordService constructs a RecordService with the default rule set and
// idempotency window.
func NewRecordService(db *gorm.DB, r RecordRepo) *RecordService {
	return &RecordService{
		DB:             db,
		Repo:           r,
		Rules:          validation.New(nil),
		IdempotencyTTL: DefaultIdempotencyTTL,
		now:            time.Now,
	}
}

// List returns all records. The slice is never nil.
func (s *RecordService) List(ctx context.Context) ([]domain.Record, error) {
	out, err := s.Repo.ListRecords(ctx, s.DB)
	if err != nil {
		observe("list", outcomeError)
		return nil, err
	}
	if out == nil {
		out = []domain.Record{}
	}
	observe("list", outcomeOK)
	return out, nil
}

// Stats returns the record count, latest update time, and highest id.
func (s *RecordService) Stats(ctx context.Context) (RecordStats, error) {
	n, ts, maxID, err := s.Repo.RecordsStats(ctx, s.DB)
	if err != nil {
		return RecordStats{}, err
	}
	return RecordStats{Count: n, UpdatedAt: ts, MaxID: maxID}, nil
}

// Create validates in against the create rules and persists a new record.
// Validation failures are returned as validation.Errors.
func (s *RecordService) Create(ctx context.Context, in validation.Fields) (*domain.Record, error) {
	rec, _, err := s.CreateIdempotent(ctx, "", in)
	return rec, err
}

// CreateIdempotent behaves like Create but remembers key. A repeated call
// with the same live key returns the record created by the first call and
// replayed=true without inserting again. An empty key disables the check.
func (s *RecordService) CreateIdempotent(ctx context.Context, key string, in validation.Fields) (rec *domain.Record, replayed bool, err error) {
	if key != "" {
		prev, err := s.replay(ctx, key)
		if err != nil {
			observe("create", outcomeError)
			return nil, false, err
		}
		if prev != nil {
			observe("create", outcomeReplayed)
			return prev, true, nil
		}
	}

	v, err := s.Rules.Create(in)
	if err != nil {
		observe("create", outcomeInvalid)
		return nil, false, err
	}

	rec = &domain.Record{Date: v.Date, Weight: v.Weight, Animal: domain.Animal(v.Animal)}
	if err := s.Repo.CreateRecord(ctx, s.DB, rec); err != nil {
		observe("create", outcomeError)
		return nil, false, err
	}

	if key != "" {
		// The record is already stored; a failed key write only costs
		// replayability. Losing a concurrent race on the same key is benign.
		if _, err := s.Repo.CreateIdempotency(ctx, s.DB, key, rec.ID, http.StatusOK, s.clock(), s.ttl()); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			log.Warn().Err(err).Uint("record_id", rec.ID).Msg("idempotency key not stored")
		}
	}

	observe("create", outcomeOK)
	return rec, false, nil
}

// replay returns the record previously created under key, or nil when the
// key is unknown, expired, or points at a record that has since been
// deleted. A dangling key is forgotten so the caller can reuse it.
func (s *RecordService) replay(ctx context.Context, key string) (*domain.Record, error) {
	entry, err := s.Repo.GetIdempotency(ctx, s.DB, key, s.clock().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec, err := s.Repo.GetRecord(ctx, s.DB, entry.RecordID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, s.Repo.DeleteIdempotency(ctx, s.DB, key)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update validates in against the update rules and then overwrites all three
// business fields of the record with the given id. The body is validated
// before the lookup, so an invalid body on a missing id reports the
// validation failure.
func (s *RecordService) Update(ctx context.Context, id uint, in validation.Fields) (*domain.Record, error) {
	v, err := s.Rules.Update(in)
	if err != nil {
		observe("update", outcomeInvalid)
		return nil, err
	}
	if id == 0 {
		observe("update", outcomeNotFound)
		return nil, ErrRecordNotFound
	}

	rec, err := s.Repo.GetRecord(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			observe("update", outcomeNotFound)
			return nil, ErrRecordNotFound
		}
		observe("update", outcomeError)
		return nil, err
	}

	rec.Date = v.Date
	rec.Weight = v.Weight
	rec.Animal = domain.Animal(v.Animal)
	if err := s.Repo.SaveRecord(ctx, s.DB, rec); err != nil {
		// Deleted between lookup and save.
		if errors.Is(err, repo.ErrNotFound) {
			observe("update", outcomeNotFound)
			return nil, ErrRecordNotFound
		}
		observe("update", outcomeError)
		return nil, err
	}
	observe("update", outcomeOK)
	return rec, nil
}

// Delete hard-deletes the record with the given id.
func (s *RecordService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		observe("delete", outcomeNotFound)
		return ErrRecordNotFound
	}
	if err := s.Repo.DeleteRecord(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			observe("delete", outcomeNotFound)
			return ErrRecordNotFound
		}
		observe("delete", outcomeError)
		return err
	}
	observe("delete", outcomeOK)
	return nil
}

func (s *RecordService) ttl() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return DefaultIdempotencyTTL
	}
	return s.IdempotencyTTL
}

func (s *RecordService) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
