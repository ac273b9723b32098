// Record HTTP handlers.
//
// This file exposes REST endpoints for pet weight records:
//   - GET    /records       (list, weak ETag support)
//   - POST   /records       (create, Idempotency-Key support)
//   - PUT    /records/{id}  (overwrite date, weight, and animal)
//   - DELETE /records/{id}  (hard delete)
//
// Handlers are transport-thin: they decode JSON, call RecordService, and hand
// any error to respondError. Validation lives in the service.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/pet-weight-backend/internal/domain"
	"github.com/tbourn/pet-weight-backend/internal/http/middleware"
	"github.com/tbourn/pet-weight-backend/internal/services"
	"github.com/tbourn/pet-weight-backend/internal/utils"
	"github.com/tbourn/pet-weight-backend/internal/validation"
)

// RecordService defines the record operations consumed by HTTP handlers.
//
// Implementations must be safe for concurrent use and honor ctx.
type RecordService interface {
	// List returns every record ordered by id.
	List(ctx context.Context) ([]domain.Record, error)
	// Stats summarizes the table for ETag generation.
	Stats(ctx context.Context) (services.RecordStats, error)
	// CreateIdempotent validates and stores a record, replaying a previous
	// result when key is known.
	CreateIdempotent(ctx context.Context, key string, in validation.Fields) (*domain.Record, bool, error)
	// Update validates and overwrites the record with the given id.
	Update(ctx context.Context, id uint, in validation.Fields) (*domain.Record, error)
	// Delete removes the record with the given id.
	Delete(ctx context.Context, id uint) error
}

// Handlers groups the record endpoints.
type Handlers struct {
	recSvc RecordService
}

// New constructs a Handlers instance bound to svc.
func New(svc RecordService) *Handlers {
	return &Handlers{recSvc: svc}
}

// RecordRequest is the JSON payload for create and update.
type RecordRequest = validation.Fields

// recordID parses the :id path parameter. A malformed id can never match a
// stored record, so it is reported as not found.
func recordID(c *gin.Context) (uint, bool) {
	id, valid := utils.ParseID(c.Param("id"))
	if !valid {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "record not found")
		return 0, false
	}
	return id, true
}

// bindRecord decodes the request body. Only unparseable JSON is rejected
// here; wrongly typed fields decode as text and are reported by the rule set.
func bindRecord(c *gin.Context) (RecordRequest, bool) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

// ListRecords godoc
// @ID          listRecords
// @Summary     List weight records
// @Description Returns every record ordered by id. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Records
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"records:3:1704067200000000000:3\")
//
// @Success     200  {array}   domain.Record
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Router      /records [get]
func (h *Handlers) ListRecords(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if st, err := h.recSvc.Stats(ctx); err == nil {
		etag := recordsETag(st)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.recSvc.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// recordsETag derives a weak validator from count, latest update, and highest
// id, so that inserts, edits, and deletes all change it.
func recordsETag(st services.RecordStats) string {
	var ts int64
	if st.UpdatedAt != nil {
		ts = st.UpdatedAt.UnixNano()
	}
	return fmt.Sprintf(`W/"records:%d:%d:%d"`, st.Count, ts, st.MaxID)
}

// CreateRecord godoc
// @ID          createRecord
// @Summary     Create a weight record
// @Description Validates and stores a record. Every violated field is reported.
// @Description Supports idempotency via the Idempotency-Key header (same key → same record).
// @Tags        Records
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.RecordRequest  true  "Record payload"
//
// @Success     200  {object}  domain.Record
// @Header      200  {string}  Idempotency-Replayed  "true when served from a previous request"
// @Failure     400  {object}  handlers.ValidationErrorResponse  "Validation failed or malformed JSON"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /records [post]
func (h *Handlers) CreateRecord(c *gin.Context) {
	req, valid := bindRecord(c)
	if !valid {
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	rec, replayed, err := h.recSvc.CreateIdempotent(c.Request.Context(), key, req)
	if err != nil {
		respondError(c, err)
		return
	}
	if replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	ok(c, http.StatusOK, rec)
}

// UpdateRecord godoc
// @ID          updateRecord
// @Summary     Update a weight record
// @Description Overwrites date, weight, and animal. The body is validated before the record is looked up.
// @Tags        Records
// @Accept      json
// @Produce     json
//
// @Param       id    path  int                     true  "Record ID"  minimum(1) example(1)
// @Param       body  body  handlers.RecordRequest  true  "Record payload"
//
// @Success     200  {object}  domain.Record
// @Failure     400  {object}  handlers.ValidationErrorResponse  "Validation failed or malformed JSON"
// @Failure     404  {object}  handlers.ErrorResponse  "Record not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /records/{id} [put]
func (h *Handlers) UpdateRecord(c *gin.Context) {
	req, valid := bindRecord(c)
	if !valid {
		return
	}

	// A malformed id maps to id 0, which the service reports as not found
	// only after validating the body.
	id, _ := utils.ParseID(c.Param("id"))

	rec, err := h.recSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

// DeleteRecord godoc
// @ID          deleteRecord
// @Summary     Delete a weight record
// @Description Permanently removes a record.
// @Tags        Records
// @Produce     json
//
// @Param       id  path  int  true  "Record ID"  minimum(1) example(1)
//
// @Success     200  {object}  handlers.MessageResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Record not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /records/{id} [delete]
func (h *Handlers) DeleteRecord(c *gin.Context) {
	id, valid := recordID(c)
	if !valid {
		return
	}
	if err := h.recSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, MessageResponse{Message: "record deleted"})
}
