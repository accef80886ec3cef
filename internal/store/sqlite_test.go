package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/memoria-ai/memoria/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), Options{})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr(f float64) *float64 { return &f }

func TestRememberAndRecall(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts, err := s.Remember(ctx, RememberParams{
		OwnerID:          "faith_builder",
		Content:          "Human: hello there",
		Importance:       ptr(0.9),
		EmotionalContext: "joy, gratitude",
		Category:         "greeting",
		Timestamp:        ptr(100),
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if ts != 100 {
		t.Errorf("expected caller timestamp 100, got %g", ts)
	}

	records, err := s.Recall(ctx, RecallParams{OwnerID: "faith_builder"})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ID == 0 {
		t.Error("expected assigned id")
	}
	if r.Content != "Human: hello there" {
		t.Errorf("content = %q", r.Content)
	}
	if r.EmotionalContext != "joy, gratitude" {
		t.Errorf("emotional context = %q", r.EmotionalContext)
	}
	if r.Importance != 0.9 {
		t.Errorf("importance = %g", r.Importance)
	}
	if r.Category != "greeting" {
		t.Errorf("category = %q", r.Category)
	}
	if r.Fingerprint != Fingerprint("faith_builder", "Human: hello there") {
		t.Error("fingerprint not derived from owner and content")
	}
}

func TestRememberAssignsTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	before := model.TimestampOf(time.Now())
	ts, err := s.Remember(ctx, RememberParams{OwnerID: "u", Content: "no explicit timestamp"})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if ts < before {
		t.Errorf("expected store-assigned timestamp >= %g, got %g", before, ts)
	}
}

func TestRememberEpochZeroTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts, err := s.Remember(ctx, RememberParams{OwnerID: "u", Content: "epoch", Timestamp: ptr(0)})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if ts != 0 {
		t.Errorf("explicit epoch-zero timestamp replaced with %g", ts)
	}

	records, _ := s.Recall(ctx, RecallParams{OwnerID: "u"})
	if len(records) != 1 || records[0].Timestamp != 0 {
		t.Errorf("epoch-zero record not stored as-is: %+v", records)
	}
}

func TestRememberDefaultImportance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "plain"})

	records, _ := s.Recall(ctx, RecallParams{OwnerID: "u"})
	if records[0].Importance != DefaultImportance {
		t.Errorf("expected default importance %g, got %g", DefaultImportance, records[0].Importance)
	}
}

func TestRememberIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.Remember(ctx, RememberParams{OwnerID: "u", Content: "once", Timestamp: ptr(50)})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	second, err := s.Remember(ctx, RememberParams{OwnerID: "u", Content: "once", Timestamp: ptr(999)})
	if err != nil {
		t.Fatalf("duplicate remember: %v", err)
	}
	if second != first {
		t.Errorf("duplicate must return original timestamp %g, got %g", first, second)
	}

	records, _ := s.Recall(ctx, RecallParams{OwnerID: "u"})
	if len(records) != 1 {
		t.Errorf("expected exactly 1 stored record, got %d", len(records))
	}
}

func TestSameContentDifferentOwners(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, RememberParams{OwnerID: "a", Content: "shared words"})
	s.Remember(ctx, RememberParams{OwnerID: "b", Content: "shared words"})

	a, _ := s.Recall(ctx, RecallParams{OwnerID: "a"})
	b, _ := s.Recall(ctx, RecallParams{OwnerID: "b"})
	if len(a) != 1 || len(b) != 1 {
		t.Errorf("dedup must be per-owner: got %d and %d", len(a), len(b))
	}
}

func TestRememberValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	cases := []struct {
		name  string
		p     RememberParams
		field string
	}{
		{"empty owner", RememberParams{Content: "x"}, "owner_id"},
		{"empty content", RememberParams{OwnerID: "u"}, "content"},
		{"blank content", RememberParams{OwnerID: "u", Content: "   "}, "content"},
		{"importance too high", RememberParams{OwnerID: "u", Content: "x", Importance: ptr(1.5)}, "importance"},
		{"importance negative", RememberParams{OwnerID: "u", Content: "x", Importance: ptr(-0.1)}, "importance"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Remember(ctx, tc.p)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %q, got %q", tc.field, ve.Field)
			}
		})
	}
}

func TestRecallOrderingAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, ts := range []float64{300, 100, 500, 200, 400} {
		s.Remember(ctx, RememberParams{
			OwnerID:   "u",
			Content:   "memory " + string(rune('a'+i)),
			Timestamp: ptr(ts),
		})
	}

	records, err := s.Recall(ctx, RecallParams{OwnerID: "u", Limit: 3})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("limit not applied: got %d", len(records))
	}
	want := []float64{500, 400, 300}
	for i, r := range records {
		if r.Timestamp != want[i] {
			t.Errorf("position %d: expected timestamp %g, got %g", i, want[i], r.Timestamp)
		}
	}
}

func TestRecallFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "early", Timestamp: ptr(100), Importance: ptr(0.2)})
	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "mid", Timestamp: ptr(200), Importance: ptr(0.8), Category: "tech"})
	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "late", Timestamp: ptr(300), Importance: ptr(0.6)})
	s.Remember(ctx, RememberParams{OwnerID: "other", Content: "elsewhere", Timestamp: ptr(200)})

	records, err := s.Recall(ctx, RecallParams{
		OwnerID:       "u",
		StartTime:     ptr(150),
		EndTime:       ptr(300),
		MinImportance: 0.5,
	})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		if r.OwnerID != "u" {
			t.Errorf("wrong owner %q", r.OwnerID)
		}
		if r.Timestamp < 150 || r.Timestamp > 300 {
			t.Errorf("timestamp %g outside range", r.Timestamp)
		}
		if r.Importance < 0.5 {
			t.Errorf("importance %g below floor", r.Importance)
		}
	}

	byCategory, _ := s.Recall(ctx, RecallParams{OwnerID: "u", Category: "tech"})
	if len(byCategory) != 1 || byCategory[0].Content != "mid" {
		t.Errorf("category filter failed: %+v", byCategory)
	}
}

func TestRecallInvalidRange(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Recall(ctx, RecallParams{OwnerID: "u", StartTime: ptr(200), EndTime: ptr(100)})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestRecallClampsMinImportance(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "x", Importance: ptr(0.3)})

	records, err := s.Recall(ctx, RecallParams{OwnerID: "u", MinImportance: -5})
	if err != nil {
		t.Fatalf("recall: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("negative min importance should clamp to 0, got %d records", len(records))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, RememberParams{
		OwnerID:  "u",
		Content:  "with metadata",
		Metadata: map[string]any{"k": "v", "n": 3.5},
	})

	records, _ := s.Recall(ctx, RecallParams{OwnerID: "u"})
	meta := records[0].Metadata
	if meta["k"] != "v" {
		t.Errorf("expected structured map back, got %#v", meta)
	}
	if meta["n"] != 3.5 {
		t.Errorf("expected numeric value back, got %#v", meta["n"])
	}
}

func TestRelationshipMonotonic(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	clock := time.Unix(1000, 0)
	s.now = func() time.Time { return clock }

	const n = 5
	for i := 0; i < n; i++ {
		clock = clock.Add(time.Minute)
		_, err := s.Remember(ctx, RememberParams{OwnerID: "u", Content: "memory " + string(rune('0'+i))})
		if err != nil {
			t.Fatalf("remember %d: %v", i, err)
		}
	}

	rel, err := s.GetRelationship(ctx, "u")
	if err != nil {
		t.Fatalf("get relationship: %v", err)
	}
	if rel.TotalInteractions != n {
		t.Errorf("expected %d interactions, got %d", n, rel.TotalInteractions)
	}
	if rel.FirstContact != model.TimestampOf(time.Unix(1000, 0).Add(time.Minute)) {
		t.Errorf("first contact moved: %g", rel.FirstContact)
	}
	if rel.LastContact != model.TimestampOf(clock) {
		t.Errorf("last contact not advanced: %g", rel.LastContact)
	}
	if rel.TrustLevel != 0.5 {
		t.Errorf("trust level must stay at default, got %g", rel.TrustLevel)
	}
}

func TestDuplicateDoesNotTouchRelationship(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "once"})
	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "once"})

	rel, _ := s.GetRelationship(ctx, "u")
	if rel.TotalInteractions != 1 {
		t.Errorf("duplicate write must not touch relationship, got %d interactions", rel.TotalInteractions)
	}
}

func TestRelationshipNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetRelationship(ctx, "stranger")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTouchRelationshipNotes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rel, err := s.TouchRelationship(ctx, "u", "likes databases")
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if rel.PersonalNotes != "likes databases" {
		t.Errorf("notes not set: %q", rel.PersonalNotes)
	}
	if rel.TotalInteractions != 1 {
		t.Errorf("expected 1 interaction, got %d", rel.TotalInteractions)
	}

	// Empty notes must not erase existing ones.
	rel, err = s.TouchRelationship(ctx, "u", "")
	if err != nil {
		t.Fatalf("touch: %v", err)
	}
	if rel.PersonalNotes != "likes databases" {
		t.Errorf("empty notes overwrote existing: %q", rel.PersonalNotes)
	}
	if rel.TotalInteractions != 2 {
		t.Errorf("expected 2 interactions, got %d", rel.TotalInteractions)
	}
}

func TestConcurrentDedup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const n = 8
	var wg sync.WaitGroup
	timestamps := make([]float64, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			timestamps[i], errs[i] = s.Remember(ctx, RememberParams{OwnerID: "u", Content: "race"})
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("concurrent remember %d: %v", i, errs[i])
		}
		if timestamps[i] != timestamps[0] {
			t.Errorf("timestamps diverge: %g vs %g", timestamps[i], timestamps[0])
		}
	}

	records, _ := s.Recall(ctx, RecallParams{OwnerID: "u"})
	if len(records) != 1 {
		t.Errorf("expected exactly 1 row after %d concurrent writes, got %d", n, len(records))
	}
	rel, _ := s.GetRelationship(ctx, "u")
	if rel.TotalInteractions != 1 {
		t.Errorf("expected 1 interaction, got %d", rel.TotalInteractions)
	}
}

func TestOnWriteObserver(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	var observed []model.MemoryRecord
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"), Options{
		OnWrite: func(r model.MemoryRecord) { observed = append(observed, r) },
	})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	defer s.Close()

	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "seen"})
	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "seen"})

	if len(observed) != 1 {
		t.Fatalf("observer must fire once per accepted write, got %d", len(observed))
	}
	if observed[0].OwnerID != "u" || observed[0].Content != "seen" {
		t.Errorf("observed record mismatch: %+v", observed[0])
	}
}

func TestCorruptDBFailsLoudly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.db")
	if err := os.WriteFile(path, []byte("this is definitely not a sqlite database, not even close"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewSQLiteStore(path, Options{})
	if err == nil {
		t.Fatal("expected error opening corrupt database")
	}

	// Recovery is explicit opt-in.
	s, err := NewSQLiteStore(path, Options{RecoverCorrupt: true})
	if err != nil {
		t.Fatalf("recover corrupt: %v", err)
	}
	defer s.Close()

	if _, err := s.Remember(context.Background(), RememberParams{OwnerID: "u", Content: "fresh start"}); err != nil {
		t.Errorf("rebuilt store not writable: %v", err)
	}
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := NewSQLiteStore(dbPath, Options{})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestDurableAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	s, err := NewSQLiteStore(path, Options{})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Remember(ctx, RememberParams{OwnerID: "u", Content: "persisted", Timestamp: ptr(42)})
	s.Close()

	s2, err := NewSQLiteStore(path, Options{})
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer s2.Close()

	records, err := s2.Recall(ctx, RecallParams{OwnerID: "u"})
	if err != nil {
		t.Fatalf("recall after reopen: %v", err)
	}
	if len(records) != 1 || records[0].Timestamp != 42 {
		t.Errorf("record not durable across reopen: %+v", records)
	}

	// Uniqueness constraint survives restarts too.
	ts, _ := s2.Remember(ctx, RememberParams{OwnerID: "u", Content: "persisted"})
	if ts != 42 {
		t.Errorf("dedup lost after reopen: got %g", ts)
	}
}
