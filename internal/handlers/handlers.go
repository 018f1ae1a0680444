// Package handlers implements the administrative HTTP API: task control,
// watermark overrides and the introspection operations used to verify
// single-inquiry reconstruction in place.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/navikt/inquiry-migrator/internal/domain"
	"github.com/navikt/inquiry-migrator/internal/health"
	"github.com/navikt/inquiry-migrator/internal/httputil"
	"github.com/navikt/inquiry-migrator/internal/logging"
	"github.com/navikt/inquiry-migrator/internal/store"
	"github.com/navikt/inquiry-migrator/internal/tasks"
)

// maxIntrospectIDs bounds one introspection request to a single store chunk.
const maxIntrospectIDs = 1000

// Reconstructor rebuilds a chunk of inquiries from the legacy stores.
type Reconstructor interface {
	ProcessChunk(ctx context.Context, ids []int64) ([]*domain.Reconstructed, error)
}

// SnapshotPublisher publishes reconstructed inquiries to the output stream.
type SnapshotPublisher interface {
	Publish(ctx context.Context, rec *domain.Reconstructed) error
}

// SubjectDirectory resolves a national identifier to its migratable
// inquiries.
type SubjectDirectory interface {
	AktorForSubject(ctx context.Context, nationalID string) (string, error)
	InquiryIDsForAktor(ctx context.Context, aktorID string) ([]int64, error)
}

// WatermarkStore reads and overrides the persisted change-event cursor.
type WatermarkStore interface {
	Watermark(ctx context.Context) (int64, error)
	SetWatermark(ctx context.Context, id int64) error
}

// ChangeLogAdmin exposes the raw change-log stream state.
type ChangeLogAdmin interface {
	Info(ctx context.Context) (*jetstream.StreamInfo, error)
	Record(ctx context.Context, seq uint64) (subject string, data []byte, err error)
}

type Handler struct {
	log        *slog.Logger
	manager    *tasks.Manager
	rebuilder  Reconstructor
	snapshots  SnapshotPublisher
	subjects   SubjectDirectory
	watermarks WatermarkStore
	changelog  ChangeLogAdmin
	checks     []health.Check
}

func NewHandler(log *slog.Logger, manager *tasks.Manager, rebuilder Reconstructor, snapshots SnapshotPublisher, subjects SubjectDirectory, watermarks WatermarkStore, changelog ChangeLogAdmin, checks []health.Check) *Handler {
	return &Handler{
		log:        log,
		manager:    manager,
		rebuilder:  rebuilder,
		snapshots:  snapshots,
		subjects:   subjects,
		watermarks: watermarks,
		changelog:  changelog,
		checks:     checks,
	}
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	results := health.RunAll(r.Context(), h.checks)
	status := http.StatusOK
	if !health.Healthy(results) {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, map[string]interface{}{
		"healthy": health.Healthy(results),
		"checks":  results,
	})
}

// ListTasks handles GET /api/v1/tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.manager.List())
}

// StartTask handles POST /api/v1/tasks/{name}/start.
func (h *Handler) StartTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.manager.Get(r.PathValue("name"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "unknown task")
		return
	}
	// The task outlives the request; its context must not be the request's.
	if err := t.Start(context.WithoutCancel(r.Context())); err != nil {
		h.writeTaskError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t.Status())
}

// StopTask handles POST /api/v1/tasks/{name}/stop.
func (h *Handler) StopTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.manager.Get(r.PathValue("name"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "unknown task")
		return
	}
	if err := t.Stop(); err != nil {
		h.writeTaskError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t.Status())
}

// ResetTask handles POST /api/v1/tasks/{name}/reset.
func (h *Handler) ResetTask(w http.ResponseWriter, r *http.Request) {
	t, ok := h.manager.Get(r.PathValue("name"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "unknown task")
		return
	}
	if err := t.Reset(); err != nil {
		h.writeTaskError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t.Status())
}

func (h *Handler) writeTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tasks.ErrAlreadyRunning), errors.Is(err, tasks.ErrNotRunning):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}

type idsRequest struct {
	IDs []int64 `json:"ids"`
}

// DryRun handles POST /api/v1/introspect/dry-run. It reconstructs the given
// inquiries and returns the results without publishing anything.
func (h *Handler) DryRun(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}
	records, err := h.rebuilder.ProcessChunk(r.Context(), ids)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// ForceSync handles POST /api/v1/introspect/force-sync. It reconstructs the
// given inquiries and publishes each to the snapshot stream, bypassing the
// change-log.
func (h *Handler) ForceSync(w http.ResponseWriter, r *http.Request) {
	ids, ok := h.decodeIDs(w, r)
	if !ok {
		return
	}
	published, err := h.syncIDs(r, ids)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"published": published})
}

type subjectRequest struct {
	NationalID string `json:"nationalId"`
}

// ForceSyncUser handles POST /api/v1/introspect/force-sync-user. It resolves
// a national identifier to its migratable inquiries and republishes all of
// them to the snapshot stream.
func (h *Handler) ForceSyncUser(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NationalID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "body must be {\"nationalId\": \"...\"}")
		return
	}
	aktorID, err := h.subjects.AktorForSubject(r.Context(), req.NationalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteError(w, http.StatusNotFound, "no aktor mapping for subject")
			return
		}
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	ids, err := h.subjects.InquiryIDsForAktor(r.Context(), aktorID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	published := 0
	for start := 0; start < len(ids); start += maxIntrospectIDs {
		end := min(start+maxIntrospectIDs, len(ids))
		n, err := h.syncIDs(r, ids[start:end])
		if err != nil {
			httputil.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		published += n
	}
	h.log.Info("force-synced subject", slog.Int("inquiries", published))
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"published": published})
}

func (h *Handler) syncIDs(r *http.Request, ids []int64) (int, error) {
	records, err := h.rebuilder.ProcessChunk(r.Context(), ids)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := h.snapshots.Publish(r.Context(), rec); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func (h *Handler) decodeIDs(w http.ResponseWriter, r *http.Request) ([]int64, bool) {
	var req idsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "body must be {\"ids\": [...]}")
		return nil, false
	}
	if len(req.IDs) == 0 || len(req.IDs) > maxIntrospectIDs {
		httputil.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("ids must contain between 1 and %d entries", maxIntrospectIDs))
		return nil, false
	}
	return req.IDs, true
}

// GetWatermark handles GET /api/v1/introspect/watermark.
func (h *Handler) GetWatermark(w http.ResponseWriter, r *http.Request) {
	id, err := h.watermarks.Watermark(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"watermark": id})
}

type watermarkRequest struct {
	Watermark *int64 `json:"watermark"`
}

// SetWatermark handles POST /api/v1/introspect/watermark. Rewinding the
// cursor replays change events; duplicates downstream are safe.
func (h *Handler) SetWatermark(w http.ResponseWriter, r *http.Request) {
	var req watermarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Watermark == nil {
		httputil.WriteError(w, http.StatusBadRequest, "body must be {\"watermark\": <event id>}")
		return
	}
	if err := h.watermarks.SetWatermark(r.Context(), *req.Watermark); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.log.Info("watermark overridden", logging.Watermark(*req.Watermark))
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"watermark": *req.Watermark})
}

// ChangeLogInfo handles GET /api/v1/introspect/changelog.
func (h *Handler) ChangeLogInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.changelog.Info(r.Context())
	if err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

// ChangeLogRecord handles GET /api/v1/introspect/changelog/{seq}.
func (h *Handler) ChangeLogRecord(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "seq must be a stream sequence number")
		return
	}
	subject, data, err := h.changelog.Record(r.Context(), seq)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"subject": subject,
		"data":    string(data),
	})
}
