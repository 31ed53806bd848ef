package track

import (
	"errors"
	"strings"
	"testing"
)

func TestNewBatchValidation(t *testing.T) {
	if _, err := NewBatch(nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("NewBatch(nil) error = %v, want ErrNoFiles", err)
	}

	if _, err := NewBatch([]FileSpec{{Token: "short"}}); !errors.Is(err, ErrBadToken) {
		t.Errorf("short token error = %v, want ErrBadToken", err)
	}

	tok := strings.Repeat("a", TokenLength)
	if _, err := NewBatch([]FileSpec{{Token: tok}, {Token: tok}}); !errors.Is(err, ErrDuplicateToken) {
		t.Errorf("duplicate token error = %v, want ErrDuplicateToken", err)
	}
}

func TestBatchConcat(t *testing.T) {
	b, err := NewBatch([]FileSpec{
		{Token: strings.Repeat("a", TokenLength)},
		{Token: strings.Repeat("b", TokenLength)},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	concat := b.Concat()
	if len(concat) != 2*TokenLength {
		t.Errorf("Concat() length = %d, want %d", len(concat), 2*TokenLength)
	}
	if concat != strings.Repeat("a", TokenLength)+strings.Repeat("b", TokenLength) {
		t.Errorf("Concat() = %q, tokens out of order", concat)
	}
}

func TestBatchRowIndexBuiltOnce(t *testing.T) {
	b, err := NewBatch([]FileSpec{
		{Token: strings.Repeat("a", TokenLength), RowID: "first"},
		{Token: strings.Repeat("b", TokenLength), RowID: "second"},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	if idx, ok := b.RowIndex("second"); !ok || idx != 1 {
		t.Errorf("RowIndex(second) = %d, %v; want 1, true", idx, ok)
	}
	if _, ok := b.RowIndex("missing"); ok {
		t.Error("RowIndex returned a position for an unknown row")
	}
}

func TestBatchRowIDDefaultsToToken(t *testing.T) {
	tok := strings.Repeat("c", TokenLength)
	b, err := NewBatch([]FileSpec{{Token: tok}})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}
	if b.Snapshot()[0].RowID != tok {
		t.Error("empty rowId should fall back to the token")
	}
}

func TestMarkCompletedAtMostOnce(t *testing.T) {
	tok := strings.Repeat("a", TokenLength)
	b, err := NewBatch([]FileSpec{{Token: tok}})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	if !b.MarkCompleted(tok) {
		t.Error("first MarkCompleted() = false, want true")
	}
	if b.MarkCompleted(tok) {
		t.Error("second MarkCompleted() = true, want false")
	}
}

func TestAllTerminal(t *testing.T) {
	b, err := NewBatch([]FileSpec{
		{Token: strings.Repeat("a", TokenLength)},
		{Token: strings.Repeat("b", TokenLength)},
	})
	if err != nil {
		t.Fatalf("NewBatch() error = %v", err)
	}

	if b.AllTerminal() {
		t.Error("fresh batch reported all terminal")
	}

	b.entries[0].Progress = ProgressComplete
	if b.AllTerminal() {
		t.Error("half-finished batch reported all terminal")
	}

	b.entries[1].Progress = ProgressFailed
	if !b.AllTerminal() {
		t.Error("batch with complete+failed entries should be all terminal")
	}
}

func TestStateFor(t *testing.T) {
	cases := []struct {
		progress int
		want     State
	}{
		{-1, StateQueued},
		{-2, StateFailed},
		{0, StateRunning},
		{99, StateRunning},
		{100, StateComplete},
	}
	for _, c := range cases {
		if got := StateFor(c.progress); got != c.want {
			t.Errorf("StateFor(%d) = %q, want %q", c.progress, got, c.want)
		}
	}

	if !StateComplete.Terminal() || !StateFailed.Terminal() {
		t.Error("complete and failed must be terminal")
	}
	if StateQueued.Terminal() || StateRunning.Terminal() {
		t.Error("queued and running must not be terminal")
	}
}
