package track

import (
	"context"

	"valfront/internal/status"
)

// TokenLength is the fixed width of a submission token. The backend
// accepts a single concatenated string of fixed-width tokens and returns
// a progress array in matching order.
const TokenLength = 32

// Progress sentinel values reported by the backend
const (
	ProgressQueued   = -1  // queued, not yet started
	ProgressFailed   = -2  // terminated with an internal error
	ProgressComplete = 100 // finished
)

// barWidthScale converts a progress percentage into a bar width in pixels
const barWidthScale = 2

// State is the per-token state of the progress state machine
type State string

const (
	StateQueued   State = "queued"
	StateRunning  State = "running"
	StateComplete State = "complete"
	StateFailed   State = "failed"
)

// StateFor maps a raw progress value onto the state machine
func StateFor(progress int) State {
	switch {
	case progress == ProgressFailed:
		return StateFailed
	case progress >= ProgressComplete:
		return StateComplete
	case progress < 0:
		return StateQueued
	}
	return StateRunning
}

// Terminal reports whether no further progress updates apply to a state
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// FileSpec describes one just-submitted file when a batch is registered
type FileSpec struct {
	Token    string `json:"token"`
	RowID    string `json:"rowId"`
	Filename string `json:"filename"`
}

// FileEntry is the tracked state of one token within a batch
type FileEntry struct {
	Token         string
	RowID         string
	Filename      string
	Progress      int
	GeometryCount int
	PropertyCount int
}

// State returns the state machine state for the entry
func (e *FileEntry) State() State {
	return StateFor(e.Progress)
}

// FileMetrics are the best-effort per-file counters reported on every poll
type FileMetrics struct {
	GeometryCount int `json:"geometryCount"`
	PropertyCount int `json:"propertyCount"`
}

// ProgressResult is one combined poll response for a whole batch,
// array order matching the submitted token order
type ProgressResult struct {
	Progress []int         `json:"progress"`
	Metrics  []FileMetrics `json:"metrics"`
}

// CategoryStatuses holds the terminal per-category statuses of a file
type CategoryStatuses struct {
	Syntax   status.CategoryStatus `json:"syntax"`
	Schema   status.CategoryStatus `json:"schema"`
	Rules    status.CategoryStatus `json:"rules"`
	Industry status.CategoryStatus `json:"industry"`
	Bsdd     status.CategoryStatus `json:"bsdd"`
}

// Summary is the terminal detail fetched once a file completes
type Summary struct {
	Statuses  CategoryStatuses `json:"statuses"`
	Date      string           `json:"date"`
	ReportURL string           `json:"reportUrl"`
}

// RowPatch instructs the view to update specific cells of one row.
// Zero-valued fields other than BarWidth are left untouched by the view.
type RowPatch struct {
	ProgressLabel string            `json:"progressLabel,omitempty"`
	BarWidth      int               `json:"barWidth"`
	Metrics       *FileMetrics      `json:"metrics,omitempty"`
	Statuses      *CategoryStatuses `json:"statuses,omitempty"`
	Date          string            `json:"date,omitempty"`
	ReportURL     string            `json:"reportUrl,omitempty"`
	DownloadURL   string            `json:"downloadUrl,omitempty"`
	DeleteURL     string            `json:"deleteUrl,omitempty"`
	Degraded      bool              `json:"degraded,omitempty"`
}

// PatchSink receives row patches emitted by a tracker, exactly once per
// state change. Implemented by the render-facing row view.
type PatchSink interface {
	RowPatch(batchID, rowID string, patch RowPatch)
}

// Backend is the subset of the validation backend the tracker consumes
type Backend interface {
	Progress(ctx context.Context, tokens []string) (*ProgressResult, error)
	Summary(ctx context.Context, token string) (*Summary, error)
}
