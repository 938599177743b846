package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_ActivityNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	entries := []Activity{
		{Action: "tag", Status: StatusOK, Target: "a.md", Detail: "#x", CreatedAt: base},
		{Action: "chat.create", Status: StatusFailed, Target: "Daily Notes/b.md", Detail: "exists", CreatedAt: base.Add(time.Minute)},
		{Action: "calendar", Target: "Calendar Items.md"},
	}
	for _, e := range entries {
		if err := store.RecordActivity(ctx, e); err != nil {
			t.Fatalf("RecordActivity: %v", err)
		}
	}

	got, err := store.ListActivity(ctx, 2)
	if err != nil {
		t.Fatalf("ListActivity: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d, want 2", len(got))
	}
	if got[0].Action != "calendar" || got[0].Status != StatusOK {
		t.Fatalf("got[0]=%+v, want defaulted ok status", got[0])
	}
	if got[1].Action != "chat.create" || got[1].Status != StatusFailed || !got[1].CreatedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("got[1]=%+v", got[1])
	}
}

func TestSQLiteStore_DraftLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := DraftRecord{ID: "d-1", Name: "Meeting", Body: "# new", Status: "pending"}
	if err := store.RecordDraft(ctx, d); err != nil {
		t.Fatalf("RecordDraft: %v", err)
	}
	if err := store.RecordDraft(ctx, d); err == nil {
		t.Fatal("duplicate draft id should fail")
	}
	if err := store.ResolveDraft(ctx, "d-1", "applied", "Meeting.md"); err != nil {
		t.Fatalf("ResolveDraft: %v", err)
	}
	loaded, err := store.LoadDraft(ctx, "d-1")
	if err != nil {
		t.Fatalf("LoadDraft: %v", err)
	}
	if loaded.Status != "applied" || loaded.Path != "Meeting.md" || loaded.Body != "# new" {
		t.Fatalf("loaded=%+v", loaded)
	}

	if err := store.ResolveDraft(ctx, "missing", "declined", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ResolveDraft(missing) err=%v, want ErrNotFound", err)
	}
	if _, err := store.LoadDraft(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadDraft(missing) err=%v, want ErrNotFound", err)
	}
}

func TestSQLiteStore_ListDraftsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, name := range []string{"Plan", "Budget", "Garden"} {
		d := DraftRecord{ID: fmt.Sprintf("d-%d", i), Name: name, Body: "body " + name, Status: "pending", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.RecordDraft(ctx, d); err != nil {
			t.Fatalf("RecordDraft: %v", err)
		}
	}
	if err := store.ResolveDraft(ctx, "d-1", "declined", ""); err != nil {
		t.Fatalf("ResolveDraft: %v", err)
	}

	got, err := store.ListDrafts(ctx, 2)
	if err != nil {
		t.Fatalf("ListDrafts: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Garden" || got[1].Name != "Budget" {
		t.Fatalf("ListDrafts=%+v", got)
	}
	if got[1].Status != "declined" || got[1].Body != "" {
		t.Fatalf("got[1]=%+v, want declined without body", got[1])
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "journal.db")
	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.RecordActivity(context.Background(), Activity{Action: "tasks"}); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	got, err := reopened.ListActivity(context.Background(), 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("ListActivity after reopen = %v, %v", got, err)
	}
}
