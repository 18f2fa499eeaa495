package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return NewStore(db)
}

func TestRecordAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.Record(ctx, Entry{
		Idea:        "a robot who learns to dance",
		ContentType: catalog.Song,
		Audience:    catalog.Kids,
		Language:    "English",
		Text:        "Beep boop",
		Moral:       "Keep trying.",
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Error("expected generated ID")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.Idea != saved.Idea || got.ContentType != catalog.Song || got.Audience != catalog.Kids ||
		got.Language != "English" || got.Text != "Beep boop" || got.Moral != "Keep trying." {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.CreatedAt.UnixMilli() != saved.CreatedAt.UnixMilli() {
		t.Errorf("CreatedAt mismatch: %v vs %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	got, err := s.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, idea := range []string{"first", "second", "third"} {
		_, err := s.Record(ctx, Entry{
			Idea:        idea,
			ContentType: catalog.Story,
			Audience:    catalog.Adult,
			Language:    "Hindi",
			Text:        "t",
			Moral:       "m",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Idea != "third" || all[2].Idea != "first" {
		t.Errorf("expected newest first, got %s, %s, %s", all[0].Idea, all[1].Idea, all[2].Idea)
	}

	two, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(two) != 2 {
		t.Errorf("expected limit 2, got %d", len(two))
	}

	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count = %d, %v; want 3", n, err)
	}
}
