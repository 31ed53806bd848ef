package httpapi

import (
	"sync"

	"valfront/internal/track"
)

// RowState is the materialized view of one table row, built by folding
// the patch stream. Cells untouched by a patch keep their last value.
type RowState struct {
	RowID         string                  `json:"rowId"`
	ProgressLabel string                  `json:"progressLabel"`
	BarWidth      int                     `json:"barWidth"`
	Metrics       *track.FileMetrics      `json:"metrics,omitempty"`
	Statuses      *track.CategoryStatuses `json:"statuses,omitempty"`
	Date          string                  `json:"date,omitempty"`
	ReportURL     string                  `json:"reportUrl,omitempty"`
	DownloadURL   string                  `json:"downloadUrl,omitempty"`
	DeleteURL     string                  `json:"deleteUrl,omitempty"`
	Degraded      bool                    `json:"degraded,omitempty"`
}

// RowView collects tracker patches per batch so clients can fetch the
// current rendered row state. It implements track.PatchSink.
type RowView struct {
	mu   sync.RWMutex
	rows map[string]map[string]*RowState // batchID -> rowID -> state
}

// NewRowView creates an empty row view
func NewRowView() *RowView {
	return &RowView{
		rows: make(map[string]map[string]*RowState),
	}
}

// RowPatch folds one patch into the view state for a row
func (v *RowView) RowPatch(batchID, rowID string, patch track.RowPatch) {
	v.mu.Lock()
	defer v.mu.Unlock()

	batch, ok := v.rows[batchID]
	if !ok {
		batch = make(map[string]*RowState)
		v.rows[batchID] = batch
	}
	row, ok := batch[rowID]
	if !ok {
		row = &RowState{RowID: rowID}
		batch[rowID] = row
	}

	if patch.ProgressLabel != "" {
		row.ProgressLabel = patch.ProgressLabel
		row.BarWidth = patch.BarWidth
	}
	if patch.Metrics != nil {
		m := *patch.Metrics
		row.Metrics = &m
	}
	if patch.Statuses != nil {
		s := *patch.Statuses
		row.Statuses = &s
	}
	if patch.Date != "" {
		row.Date = patch.Date
	}
	if patch.ReportURL != "" {
		row.ReportURL = patch.ReportURL
	}
	if patch.DownloadURL != "" {
		row.DownloadURL = patch.DownloadURL
	}
	if patch.DeleteURL != "" {
		row.DeleteURL = patch.DeleteURL
	}
	if patch.Degraded {
		row.Degraded = true
	}
}

// Rows returns copies of the row states for a batch in the given order.
// Rows without any state yet come back as bare RowID entries.
func (v *RowView) Rows(batchID string, order []string) []RowState {
	v.mu.RLock()
	defer v.mu.RUnlock()

	batch := v.rows[batchID]
	out := make([]RowState, 0, len(order))
	for _, rowID := range order {
		if row, ok := batch[rowID]; ok {
			out = append(out, *row)
		} else {
			out = append(out, RowState{RowID: rowID})
		}
	}
	return out
}

// Drop discards the view state for a batch
func (v *RowView) Drop(batchID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.rows, batchID)
}
