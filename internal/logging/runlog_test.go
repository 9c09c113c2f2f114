package logging

import (
	"path/filepath"
	"testing"

	"github.com/davismoran/offline-eval/go-estimator/internal/store"
)

func TestLogRunRoundTrip(t *testing.T) {
	s, err := store.NewStore(filepath.Join(t.TempDir(), "eval.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer s.Close()

	entries := []RunEntry{
		{RunID: "run-1", Kind: "train", Detail: `{"loss":3.0}`},
		{RunID: "run-2", Kind: "estimate", Reason: "nightly evaluation"},
	}
	for _, e := range entries {
		if err := LogRun(s.DB(), e); err != nil {
			t.Fatalf("log run: %v", err)
		}
	}

	got, err := ListEntries(s.DB(), 10)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	// Newest first.
	if got[0].RunID != "run-2" || got[0].Kind != "estimate" {
		t.Errorf("unexpected head entry: %+v", got[0])
	}
	if got[1].Detail != `{"loss":3.0}` {
		t.Errorf("detail did not round-trip: %q", got[1].Detail)
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected a created_at timestamp to be filled in")
	}
}
