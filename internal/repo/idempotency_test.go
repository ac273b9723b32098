package repo

import (
	"context"
	"testing"
	"time"

	"github.com/tbourn/pet-weight-backend/internal/domain"
)

func TestGetIdempotency_BlankKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	rec, err := GetIdempotency(context.Background(), db, "   ", time.Now().UTC())
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:        "expired",
		Key:       "k1",
		RecordID:  1,
		Status:    200,
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	rec, err := GetIdempotency(context.Background(), db, "k1", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}

	rec2, err2 := GetIdempotency(context.Background(), db, "missing", now)
	if rec2 != nil || err2 != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec2, err2)
	}
}

func TestGetIdempotency_Success(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	ok := &domain.Idempotency{
		ID:        "ok",
		Key:       "k2",
		RecordID:  11,
		Status:    200,
		CreatedAt: now.Add(-time.Minute),
		ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(ok).Error; err != nil {
		t.Fatalf("seed ok: %v", err)
	}

	rec, err := GetIdempotency(context.Background(), db, "k2", now)
	if err != nil {
		t.Fatalf("GetIdempotency success err: %v", err)
	}
	if rec == nil || rec.RecordID != 11 || rec.Status != 200 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestCreateIdempotency_SuccessAndDuplicate(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})

	ttl := 90 * time.Minute
	start := time.Now().UTC()

	rec, err := CreateIdempotency(context.Background(), db, "k9", 9, 200, start, ttl)
	if err != nil {
		t.Fatalf("CreateIdempotency error: %v", err)
	}
	if rec == nil || rec.ID == "" || rec.Key != "k9" || rec.RecordID != 9 || rec.Status != 200 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !rec.ExpiresAt.Equal(start.Add(ttl)) || !rec.CreatedAt.Equal(start) {
		t.Fatalf("unexpected ExpiresAt: %v", rec.ExpiresAt)
	}

	if _, err := CreateIdempotency(context.Background(), db, "k9", 10, 200, start, ttl); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateIdempotency_ReusesExpiredKey(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	old := &domain.Idempotency{ID: "old", Key: "k3", RecordID: 1, Status: 200, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	if err := db.Create(old).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	rec, err := CreateIdempotency(context.Background(), db, "k3", 2, 200, now, time.Hour)
	if err != nil {
		t.Fatalf("expected expired key to be reusable, got %v", err)
	}
	if rec.RecordID != 2 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

// Generic DB error path: attempt insert without migrating the table.
func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newTestDB(t) // intentionally NOT migrating
	_, err := CreateIdempotency(context.Background(), db, "kX", 1, 200, time.Now(), time.Minute)
	if err == nil {
		t.Fatalf("expected error when table is missing")
	}
	if err == ErrDuplicate {
		t.Fatalf("expected non-duplicate error, got ErrDuplicate")
	}
}

func TestDeleteIdempotency_RemovesLiveKey(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "stale", 9, 200, time.Now(), time.Hour); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := DeleteIdempotency(ctx, db, "stale"); err != nil {
		t.Fatalf("DeleteIdempotency: %v", err)
	}
	if _, err := GetIdempotency(ctx, db, "stale", time.Now().UTC()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Deleting an absent key is not an error.
	if err := DeleteIdempotency(ctx, db, "stale"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestCreateIdempotency_ExpiryFollowsCallerClock(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	// Live as of base even though it expired against the wall clock long ago.
	seed := &domain.Idempotency{ID: "s", Key: "kc", RecordID: 1, Status: 200, CreatedAt: base.Add(-time.Hour), ExpiresAt: base.Add(time.Hour)}
	if err := db.Create(seed).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "kc", 2, 200, base, time.Hour); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate for a key live at base, got %v", err)
	}

	later := base.Add(2 * time.Hour)
	rec, err := CreateIdempotency(ctx, db, "kc", 3, 200, later, time.Hour)
	if err != nil {
		t.Fatalf("expected key expired at later to be reused, got %v", err)
	}
	if !rec.ExpiresAt.Equal(later.Add(time.Hour)) {
		t.Fatalf("ExpiresAt = %v; want %v", rec.ExpiresAt, later.Add(time.Hour))
	}
	if _, err := GetIdempotency(ctx, db, "kc", later); err != nil {
		t.Fatalf("GetIdempotency at later: %v", err)
	}
}
