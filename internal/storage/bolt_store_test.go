package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/braintree-graphql-client/internal/domain"
)

func openTestStore(t *testing.T, opts Options) *boltStore {
	t.Helper()
	storeRaw, err := openBolt(filepath.Join(t.TempDir(), "probes.db"), normalizeOptions(opts))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStoreRecordsNewestFirst(t *testing.T) {
	store := openTestStore(t, Options{})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"o1", "o2", "o3"} {
		err := store.Record(domain.Outcome{ID: id, EndpointID: "sandbox", Success: true, At: base.Add(time.Duration(i) * time.Second)})
		if err != nil {
			t.Fatalf("Record %s: %v", id, err)
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "o3" || recent[1].ID != "o2" {
		t.Fatalf("unexpected recent outcomes %#v", recent)
	}
}

func TestBoltStoreExpiresOutcomes(t *testing.T) {
	store := openTestStore(t, Options{OutcomeTTL: time.Hour, CleanupInterval: time.Hour})
	now := time.Now()
	store.now = func() time.Time { return now }

	if err := store.Record(domain.Outcome{ID: "old", At: now}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	now = now.Add(2 * time.Hour)
	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected expired outcome to be hidden, got %#v", recent)
	}

	// next write triggers the cleanup sweep
	if err := store.Record(domain.Outcome{ID: "new", At: now}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	recent, err = store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != "new" {
		t.Fatalf("unexpected outcomes after cleanup %#v", recent)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Record(domain.Outcome{ID: "x"}); err != nil {
		t.Fatalf("noop store Record: %v", err)
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatal("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatal("expected error for missing path")
	}
}
