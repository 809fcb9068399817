package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/livermore/internal/contracts"
	"github.com/wonny/livermore/internal/snapshot"
	"github.com/wonny/livermore/pkg/logger"
)

// SnapshotReader is the read side of the snapshot store
type SnapshotReader interface {
	LoadCurrent() (*contracts.Snapshot, error)
	LoadHistory(date string) (*contracts.Snapshot, error)
	ListHistory() ([]string, error)
}

// SnapshotHandler serves published snapshots read-only
// ⭐ SSOT: 스냅샷 조회 API는 이 핸들러에서만
type SnapshotHandler struct {
	store  SnapshotReader
	logger *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler
func NewSnapshotHandler(store SnapshotReader, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		store:  store,
		logger: log.WithModule("api.snapshot"),
	}
}

// GetCurrent returns the latest snapshot
// GET /api/snapshot
func (h *SnapshotHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetByDate returns the history copy of a day
// GET /api/snapshot/{date}
func (h *SnapshotHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	date := mux.Vars(r)["date"]

	snap, err := h.store.LoadHistory(date)
	if errors.Is(err, snapshot.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no snapshot for "+date)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("date", date).Error("Failed to load history snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetStock returns one result of the latest snapshot
// GET /api/snapshot/stocks/{ticker}
func (h *SnapshotHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	snap, ok := h.current(w)
	if !ok {
		return
	}

	for _, s := range snap.Stocks {
		if s.Ticker == ticker {
			respondJSON(w, http.StatusOK, s)
			return
		}
	}
	respondError(w, http.StatusNotFound, ticker+" is not in the latest snapshot")
}

// ListHistory returns the dates with a history copy, newest first
// GET /api/history
func (h *SnapshotHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	dates, err := h.store.ListHistory()
	if err != nil {
		h.logger.WithError(err).Error("Failed to list history")
		respondError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"dates": dates,
		"count": len(dates),
	})
}

func (h *SnapshotHandler) current(w http.ResponseWriter) (*contracts.Snapshot, bool) {
	snap, err := h.store.LoadCurrent()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load current snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return nil, false
	}
	if snap == nil {
		respondError(w, http.StatusNotFound, "no snapshot published yet")
		return nil, false
	}
	return snap, true
}
