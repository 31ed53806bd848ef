package track

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store manages the active batches in memory. Each batch gets its own
// tracker goroutine; registries are never shared between batches.
type Store struct {
	mu      sync.RWMutex
	batches map[string]*managedBatch
}

type managedBatch struct {
	batch   *Batch
	tracker *Tracker
	cancel  context.CancelFunc
}

// NewStore creates a new batch store
func NewStore() *Store {
	return &Store{
		batches: make(map[string]*managedBatch),
	}
}

// Register validates the files, builds the batch registry, emits the
// initial row patches and starts the polling loop.
func (s *Store) Register(ctx context.Context, files []FileSpec, backend Backend, sink PatchSink, interval time.Duration) (*Batch, error) {
	batch, err := NewBatch(files)
	if err != nil {
		return nil, err
	}

	tracker := NewTracker(batch, backend, sink, interval)
	tracker.Announce()

	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.batches[batch.ID] = &managedBatch{
		batch:   batch,
		tracker: tracker,
		cancel:  cancel,
	}
	s.mu.Unlock()

	go func() {
		tracker.Run(runCtx)
		cancel()
	}()

	return batch, nil
}

// Get retrieves a batch by ID
func (s *Store) Get(id string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch not found: %s", id)
	}
	return m.batch, nil
}

// Tracker retrieves the tracker for a batch by ID
func (s *Store) Tracker(id string) (*Tracker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.batches[id]
	if !ok {
		return nil, fmt.Errorf("batch not found: %s", id)
	}
	return m.tracker, nil
}

// Stop asks a batch's tracker to stop polling. The batch stays readable
// so the view can still fetch its last row state.
func (s *Store) Stop(id string) error {
	s.mu.RLock()
	m, ok := s.batches[id]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("batch not found: %s", id)
	}

	// Cancel outside the lock
	m.tracker.Stop()
	m.cancel()
	return nil
}

// StopAll stops every active tracker, used on shutdown
func (s *Store) StopAll() {
	s.mu.RLock()
	managed := make([]*managedBatch, 0, len(s.batches))
	for _, m := range s.batches {
		managed = append(managed, m)
	}
	s.mu.RUnlock()

	for _, m := range managed {
		m.tracker.Stop()
		m.cancel()
	}
}

// Active returns the number of batches whose polling loop is still running
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := 0
	for _, m := range s.batches {
		select {
		case <-m.tracker.Done():
		default:
			active++
		}
	}
	return active
}
