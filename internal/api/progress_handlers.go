package api

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/file2text/internal/progress/consumers"
)

const (
	defaultOperationLimit = 50
	maxOperationLimit     = 500
)

// Tracker indexes the Snapshot consumer of every operation started in this
// process, in start order.
type Tracker struct {
	mu    sync.RWMutex
	order []string
	snaps map[string]*consumers.Snapshot
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{snaps: make(map[string]*consumers.Snapshot)}
}

// Track returns the Snapshot for operationID, creating it on first use.
// Attach the result to the operation's root emitter.
func (t *Tracker) Track(operationID string) *consumers.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap, ok := t.snaps[operationID]; ok {
		return snap
	}
	snap := consumers.NewSnapshot()
	t.snaps[operationID] = snap
	t.order = append(t.order, operationID)
	return snap
}

// Get looks up an operation.
func (t *Tracker) Get(operationID string) (*consumers.Snapshot, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap, ok := t.snaps[operationID]
	return snap, ok
}

// List returns the operations in start order.
func (t *Tracker) List(limit, offset int) []OperationDTO {
	t.mu.RLock()
	ids := append([]string(nil), t.order...)
	t.mu.RUnlock()

	if offset >= len(ids) {
		return []OperationDTO{}
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]OperationDTO, 0, len(ids))
	for _, id := range ids {
		snap, _ := t.Get(id)
		out = append(out, toOperationDTO(id, snap))
	}
	return out
}

// OperationDTO is the wire shape of one tracked operation. Status is null
// until the first update arrives.
type OperationDTO struct {
	OperationID string            `json:"operation_id"`
	Status      *consumers.Status `json:"status"`
}

func toOperationDTO(id string, snap *consumers.Snapshot) OperationDTO {
	dto := OperationDTO{OperationID: id}
	if st, ok := snap.Status(); ok {
		dto.Status = &st
	}
	return dto
}

// ProgressHandler exposes read-only progress endpoints.
type ProgressHandler struct {
	tracker *Tracker
	logger  *zap.Logger
}

// NewProgressHandler wires the tracker and logger.
func NewProgressHandler(tracker *Tracker, logger *zap.Logger) *ProgressHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressHandler{tracker: tracker, logger: logger}
}

// ListOperations handles GET /v1/progress?limit=&offset=. It returns
// {"operations": [...]} on success, 400 for invalid paging, or 503 when no
// tracker is configured.
func (h *ProgressHandler) ListOperations(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "progress tracker unavailable")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultOperationLimit, maxOperationLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"operations": h.tracker.List(limit, offset),
	})
}

// GetOperation handles GET /v1/progress/{operation_id}. It returns the
// operation on success, 400 for malformed IDs, 404 for unknown operations, or
// 503 when no tracker is configured.
func (h *ProgressHandler) GetOperation(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "progress tracker unavailable")
		return
	}
	id, err := parseOperationID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, ok := h.tracker.Get(id)
	if !ok {
		h.logger.Debug("unknown operation requested", zap.String("operation_id", id))
		writeError(w, http.StatusNotFound, "operation not found")
		return
	}
	writeJSON(w, http.StatusOK, toOperationDTO(id, snap))
}

func parseOperationID(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "operation_id")
	if raw == "" {
		return "", errors.New("operation_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.New("invalid operation_id")
	}
	return id.String(), nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if limStr := q.Get("limit"); limStr != "" {
		val, err := strconv.Atoi(limStr)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		if val > maxLimit {
			val = maxLimit
		}
		limit = val
	}
	offset := 0
	if offStr := q.Get("offset"); offStr != "" {
		val, err := strconv.Atoi(offStr)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}
