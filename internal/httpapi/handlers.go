package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"valfront/internal/client"
	"valfront/internal/report"
	"valfront/internal/track"
	"valfront/internal/version"
)

// Backend is the validation backend surface the handlers depend on
type Backend interface {
	track.Backend
	Outcomes(ctx context.Context, fileID, category string) (*report.Document, error)
}

// Handler handles HTTP requests
type Handler struct {
	store        *track.Store
	view         *RowView
	backend      Backend
	timings      *client.Timings
	pollInterval time.Duration
	pageSize     int
	dedup        bool
}

// NewHandler creates a new handler
func NewHandler(store *track.Store, view *RowView, backend Backend, timings *client.Timings, pollInterval time.Duration, pageSize int, dedup bool) *Handler {
	return &Handler{
		store:        store,
		view:         view,
		backend:      backend,
		timings:      timings,
		pollInterval: pollInterval,
		pageSize:     pageSize,
		dedup:        dedup,
	}
}

// CreateBatch handles POST /batches
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Files []track.FileSpec `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	// Tracking outlives the request, so the batch is registered against
	// the process context, not r.Context()
	batch, err := h.store.Register(context.Background(), req.Files, h.backend, h.view, h.pollInterval)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Printf("Batch registered: %s (%d files)", batch.ID, batch.Size())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"batchId": batch.ID,
		"files":   batch.Size(),
	})
}

// GetBatchRows handles GET /batches/{batchId}/rows
func (h *Handler) GetBatchRows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batchID := strings.TrimPrefix(r.URL.Path, "/batches/")
	batchID = strings.TrimSuffix(batchID, "/rows")
	if batchID == "" {
		http.Error(w, "batchId is required", http.StatusBadRequest)
		return
	}

	batch, err := h.store.Get(batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	tracker, err := h.store.Tracker(batchID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	order := make([]string, 0, batch.Size())
	for _, e := range batch.Snapshot() {
		order = append(order, e.RowID)
	}

	done := false
	select {
	case <-tracker.Done():
		done = true
	default:
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"batchId": batchID,
		"rows":    h.view.Rows(batchID, order),
		"done":    done,
	})
}

// StopBatch handles POST /batches/{batchId}/stop
func (h *Handler) StopBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	batchID := strings.TrimPrefix(r.URL.Path, "/batches/")
	batchID = strings.TrimSuffix(batchID, "/stop")
	if batchID == "" {
		http.Error(w, "batchId is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Stop(batchID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	log.Printf("Batch stopped: %s", batchID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "stopped",
	})
}

// GetReport handles GET /reports/{fileId}?category=&page=&all=
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fileID := strings.TrimPrefix(r.URL.Path, "/reports/")
	if fileID == "" || strings.Contains(fileID, "/") {
		http.Error(w, "fileId is required", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	category := q.Get("category")

	page := 0
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "page must be an integer", http.StatusBadRequest)
			return
		}
		page = n
	}
	includeAll := q.Get("all") == "1" || q.Get("all") == "true"

	doc, err := h.backend.Outcomes(r.Context(), fileID, category)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	rep := report.Aggregate(doc.Results, doc.Counts, report.Options{
		IncludeAll: includeAll,
		Dedup:      h.dedup,
		PageSize:   h.pageSize,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"fileId":   fileID,
		"category": category,
		"page":     rep.GetPage(page),
	})
}

// ExportGroup handles GET /reports/{fileId}/export?category=&title=
func (h *Handler) ExportGroup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fileID := strings.TrimPrefix(r.URL.Path, "/reports/")
	fileID = strings.TrimSuffix(fileID, "/export")
	if fileID == "" {
		http.Error(w, "fileId is required", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	doc, err := h.backend.Outcomes(r.Context(), fileID, q.Get("category"))
	if err != nil {
		writeBackendError(w, err)
		return
	}

	// Export always sees the unfiltered record set for the group
	rep := report.Aggregate(doc.Results, doc.Counts, report.Options{
		IncludeAll: true,
		Dedup:      h.dedup,
		PageSize:   h.pageSize,
	})
	group, ok := rep.Group(title)
	if !ok {
		http.Error(w, fmt.Sprintf("group not found: %s", title), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, report.ExportGroupText(group, doc.Instances))
}

// GetVersion handles GET /version
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(version.Info())
}

// GetStatus handles GET /status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"activeBatches": h.store.Active(),
	}
	if h.timings != nil {
		response["backend"] = h.timings.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// writeBackendError maps a backend fetch failure onto our response:
// backend 404 passes through, everything else is a bad gateway
func writeBackendError(w http.ResponseWriter, err error) {
	if httpErr, ok := client.GetHTTPError(err); ok && httpErr.StatusCode == http.StatusNotFound {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	http.Error(w, fmt.Sprintf("backend error: %v", err), http.StatusBadGateway)
}
