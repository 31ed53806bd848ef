package track

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrNoFiles is returned when a batch is registered with no files
	ErrNoFiles = errors.New("batch has no files")
	// ErrBadToken is returned for a token that is not exactly TokenLength characters
	ErrBadToken = errors.New("token must be exactly 32 characters")
	// ErrDuplicateToken is returned when the same token appears twice in one batch
	ErrDuplicateToken = errors.New("duplicate token in batch")
)

// Batch owns the registry for one set of just-submitted files: the ordered
// token sequence, the token→row mapping and the completed set. It is owned
// by exactly one Tracker instance and never shared across batches.
type Batch struct {
	ID string

	mu        sync.Mutex
	entries   []*FileEntry
	byToken   map[string]*FileEntry
	rowIndex  map[string]int // row identifier → display row position, built once
	completed map[string]bool
}

// NewBatch validates the file specs and builds the registry.
// All entries start queued (progress -1).
func NewBatch(files []FileSpec) (*Batch, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	b := &Batch{
		ID:        uuid.New().String(),
		byToken:   make(map[string]*FileEntry, len(files)),
		rowIndex:  make(map[string]int, len(files)),
		completed: make(map[string]bool),
	}

	for i, f := range files {
		if len(f.Token) != TokenLength {
			return nil, fmt.Errorf("file %d (%q): %w", i, f.Token, ErrBadToken)
		}
		if _, exists := b.byToken[f.Token]; exists {
			return nil, fmt.Errorf("file %d (%q): %w", i, f.Token, ErrDuplicateToken)
		}

		rowID := f.RowID
		if rowID == "" {
			rowID = f.Token
		}

		entry := &FileEntry{
			Token:    f.Token,
			RowID:    rowID,
			Filename: f.Filename,
			Progress: ProgressQueued,
		}
		b.entries = append(b.entries, entry)
		b.byToken[f.Token] = entry
		b.rowIndex[rowID] = i
	}

	return b, nil
}

// Tokens returns the ordered token sequence
func (b *Batch) Tokens() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	tokens := make([]string, len(b.entries))
	for i, e := range b.entries {
		tokens[i] = e.Token
	}
	return tokens
}

// Concat returns the concatenation-addressable form of the token sequence
func (b *Batch) Concat() string {
	return strings.Join(b.Tokens(), "")
}

// Size returns the number of files in the batch
func (b *Batch) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// RowIndex returns the display row position for a row identifier
func (b *Batch) RowIndex(rowID string) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.rowIndex[rowID]
	return idx, ok
}

// MarkCompleted adds a token to the completed set. It returns false if the
// token was already in the set; this membership check is the mechanism that
// guarantees at-most-once finalize handling per file.
func (b *Batch) MarkCompleted(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.completed[token] {
		return false
	}
	b.completed[token] = true
	return true
}

// CompletedTokens returns the tokens already finalized as complete
func (b *Batch) CompletedTokens() map[string]bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string]bool, len(b.completed))
	for t := range b.completed {
		out[t] = true
	}
	return out
}

// AllTerminal reports whether every token has reached a terminal state
// (complete or terminated by error), the tracker's stop condition
func (b *Batch) AllTerminal() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, e := range b.entries {
		if !e.State().Terminal() {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the current entries in display order
func (b *Batch) Snapshot() []FileEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]FileEntry, len(b.entries))
	for i, e := range b.entries {
		out[i] = *e
	}
	return out
}
