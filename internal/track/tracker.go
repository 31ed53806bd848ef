package track

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"
)

// DefaultInterval is the fixed poll interval
const DefaultInterval = time.Second

// Tracker runs the cooperative polling loop for one batch: one combined
// progress request per tick for the entire batch, at most one outstanding
// request at any time. State transitions drive row patches through the sink.
type Tracker struct {
	batch    *Batch
	backend  Backend
	sink     PatchSink
	interval time.Duration

	stopped atomic.Bool
	done    chan struct{}
}

// NewTracker creates a tracker for a batch. The batch registry is owned
// exclusively by this tracker from here on.
func NewTracker(batch *Batch, backend Backend, sink PatchSink, interval time.Duration) *Tracker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Tracker{
		batch:    batch,
		backend:  backend,
		sink:     sink,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Batch returns the batch registry owned by this tracker
func (t *Tracker) Batch() *Batch {
	return t.batch
}

// Announce emits the initial "in queue" patch for every row, once, when the
// batch table is first built
func (t *Tracker) Announce() {
	for _, e := range t.batch.Snapshot() {
		t.sink.RowPatch(t.batch.ID, e.RowID, RowPatch{ProgressLabel: "in queue", BarWidth: 0})
	}
}

// Run executes the polling loop until every token is terminal, the context
// is canceled or Stop is called. The poll request is issued synchronously
// inside the loop, so there is never more than one outstanding request;
// ticks that fire while a request is in flight are dropped.
func (t *Tracker) Run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Liveness flag checked at the top of each tick
		if t.stopped.Load() {
			return
		}

		res, err := t.backend.Progress(ctx, t.batch.Tokens())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient poll failure: retried on the next tick
			log.Printf("Batch %s: poll failed, retrying next tick: %v", t.batch.ID, err)
			continue
		}

		// Stopped while the request was in flight: discard the result
		if t.stopped.Load() {
			return
		}

		t.Apply(ctx, res)

		if t.batch.AllTerminal() {
			log.Printf("Batch %s: all files terminal, polling stopped", t.batch.ID)
			t.stopped.Store(true)
			return
		}
	}
}

// Stop requests a cooperative stop. In-flight requests are allowed to
// complete and their results are discarded.
func (t *Tracker) Stop() {
	t.stopped.Store(true)
}

// Stopped reports whether the tracker has been asked to stop
func (t *Tracker) Stopped() bool {
	return t.stopped.Load()
}

// Done is closed once the polling loop has exited
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

type patchEvent struct {
	rowID string
	patch RowPatch
}

// Apply reconciles one poll response against the registry. Patches are
// emitted only when something actually changed, so the view sees one
// update per state change rather than one write per poll tick.
// Tokens already terminal are never updated again.
func (t *Tracker) Apply(ctx context.Context, res *ProgressResult) {
	if res == nil {
		return
	}

	b := t.batch

	var patches []patchEvent
	var toFinalize []FileEntry

	b.mu.Lock()
	for i, e := range b.entries {
		if i >= len(res.Progress) {
			break
		}
		if e.State().Terminal() {
			continue
		}

		// Best-effort metrics, frozen once terminal
		var metrics *FileMetrics
		if i < len(res.Metrics) {
			m := res.Metrics[i]
			if m.GeometryCount != e.GeometryCount || m.PropertyCount != e.PropertyCount {
				e.GeometryCount = m.GeometryCount
				e.PropertyCount = m.PropertyCount
				metrics = &m
			}
		}

		p := res.Progress[i]
		switch {
		case p >= ProgressComplete:
			e.Progress = ProgressComplete
			if !b.completed[e.Token] {
				b.completed[e.Token] = true
				patches = append(patches, patchEvent{e.RowID, RowPatch{
					ProgressLabel: "100%",
					BarWidth:      ProgressComplete * barWidthScale,
					Metrics:       metrics,
				}})
				toFinalize = append(toFinalize, *e)
			}

		case p == ProgressFailed:
			e.Progress = ProgressFailed
			patches = append(patches, patchEvent{e.RowID, RowPatch{
				ProgressLabel: "an error occured",
				BarWidth:      0,
				Metrics:       metrics,
			}})

		case p < 0:
			changed := e.Progress != ProgressQueued
			e.Progress = ProgressQueued
			if changed || metrics != nil {
				patches = append(patches, patchEvent{e.RowID, RowPatch{
					ProgressLabel: "in queue",
					BarWidth:      0,
					Metrics:       metrics,
				}})
			}

		default:
			changed := e.Progress != p
			e.Progress = p
			if changed || metrics != nil {
				patches = append(patches, patchEvent{e.RowID, RowPatch{
					ProgressLabel: fmt.Sprintf("%d%%", p),
					BarWidth:      p * barWidthScale,
					Metrics:       metrics,
				}})
			}
		}
	}
	b.mu.Unlock()

	for _, pe := range patches {
		t.sink.RowPatch(b.ID, pe.rowID, pe.patch)
	}

	for _, e := range toFinalize {
		t.finalize(ctx, e.Token, e.RowID)
	}
}

// finalize fetches the finished file's summary and patches the row's
// terminal cells. A failed fetch leaves a degraded row; the file stays
// terminal either way, so finalize is never re-attempted.
func (t *Tracker) finalize(ctx context.Context, token, rowID string) {
	sum, err := t.backend.Summary(ctx, token)
	if err != nil {
		log.Printf("Batch %s: finalize %s: summary fetch failed: %v", t.batch.ID, token, err)
		t.sink.RowPatch(t.batch.ID, rowID, RowPatch{
			ProgressLabel: "100%",
			BarWidth:      ProgressComplete * barWidthScale,
			Degraded:      true,
		})
		return
	}

	statuses := sum.Statuses
	t.sink.RowPatch(t.batch.ID, rowID, RowPatch{
		ProgressLabel: "100%",
		BarWidth:      ProgressComplete * barWidthScale,
		Statuses:      &statuses,
		Date:          sum.Date,
		ReportURL:     sum.ReportURL,
		DownloadURL:   "/download/" + rowID,
		DeleteURL:     "/delete/" + rowID,
	})
}
