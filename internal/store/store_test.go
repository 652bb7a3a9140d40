package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/serialbinder/internal/source"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "serialbinder.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st, path
}

func fixedClock(st *Store, t time.Time) *time.Time {
	now := t
	st.now = func() time.Time { return now }
	return &now
}

func testPost(id, author string) source.Post {
	liked := true
	return source.Post{
		ID:        id,
		Title:     "Chapter " + id,
		CreatedAt: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Channel:   "HFY",
		Author:    author,
		Liked:     &liked,
		URL:       "https://www.reddit.com/r/HFY/comments/" + id + "/",
	}
}

func TestOpenAndMigrate(t *testing.T) {
	st, path := openTestStore(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file not created: %v", err)
	}

	version, err := st.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("schema version = %d, want %d", version, schemaVersion)
	}

	// Reopening an existing database keeps the version.
	_ = st.Close()
	st2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = st2.Close() }()
	if v, _ := st2.SchemaVersion(context.Background()); v != schemaVersion {
		t.Errorf("version after reopen = %d", v)
	}
}

func TestOpen_NewerSchemaRejected(t *testing.T) {
	st, path := openTestStore(t)
	if _, err := st.db.Exec("UPDATE metadata SET value = '99' WHERE key = 'schema_version'"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = st.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected error for newer schema")
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestCacheSetGet(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	want := testPost("abc", "someone")

	if err := st.Set(ctx, want.ID, want, time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := st.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Title != want.Title || got.Channel != want.Channel || got.URL != want.URL {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if got.Liked == nil || !*got.Liked {
		t.Errorf("liked = %v, want true", got.Liked)
	}

	// Upsert replaces the cached copy.
	want.Hidden = true
	if err := st.Set(ctx, want.ID, want, time.Hour); err != nil {
		t.Fatalf("set again: %v", err)
	}
	got, _, _ = st.Get(ctx, "abc")
	if !got.Hidden {
		t.Error("upsert did not replace the cached post")
	}
}

func TestCacheMiss(t *testing.T) {
	st, _ := openTestStore(t)

	_, ok, err := st.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestCacheExpiry(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	now := fixedClock(st, time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC))

	if err := st.Set(ctx, "short", testPost("short", "a"), time.Minute); err != nil {
		t.Fatalf("set short: %v", err)
	}
	if err := st.Set(ctx, "forever", testPost("forever", "a"), 0); err != nil {
		t.Fatalf("set forever: %v", err)
	}

	*now = now.Add(2 * time.Minute)

	if _, ok, _ := st.Get(ctx, "short"); ok {
		t.Error("expired post returned")
	}
	if _, ok, _ := st.Get(ctx, "forever"); !ok {
		t.Error("post without ttl expired")
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.CachedPosts != 2 || stats.ExpiredPosts != 1 {
		t.Errorf("stats = %+v", stats)
	}

	n, err := st.PruneExpired(ctx)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
}

func TestCacheDelete(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	if err := st.Set(ctx, "a", testPost("a", "x"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := st.Delete(ctx, "never"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if _, ok, _ := st.Get(ctx, "a"); ok {
		t.Error("deleted post returned")
	}
}

func TestCacheDeleteAuthor(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	for _, p := range []source.Post{testPost("a", "Tigra21"), testPost("b", "tigra21"), testPost("c", "other")} {
		if err := st.Set(ctx, p.ID, p, 0); err != nil {
			t.Fatalf("set %s: %v", p.ID, err)
		}
	}

	n, err := st.DeleteAuthor(ctx, "Tigra21")
	if err != nil {
		t.Fatalf("delete author: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if _, ok, _ := st.Get(ctx, "c"); !ok {
		t.Error("other author's post removed")
	}
}

func TestCacheSet_RequiresID(t *testing.T) {
	st, _ := openTestStore(t)
	if err := st.Set(context.Background(), "", testPost("", "a"), 0); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestNilStore(t *testing.T) {
	var st *Store
	ctx := context.Background()
	if _, _, err := st.Get(ctx, "a"); err == nil {
		t.Error("Get on nil store should fail")
	}
	if err := st.Set(ctx, "a", source.Post{}, 0); err == nil {
		t.Error("Set on nil store should fail")
	}
	if err := st.Close(); err != nil {
		t.Errorf("Close on nil store: %v", err)
	}
}

func TestSaveAndListBatches(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	now := fixedClock(st, time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC))

	entries := []source.Entry{
		{Post: testPost("p2", "someone"), CanonicalTitle: "Story 2"},
		{Post: testPost("p1", "someone"), CanonicalTitle: "Story 1"},
	}
	first, err := st.SaveBatch(ctx, BatchInput{
		Author:      "someone",
		Title:       "Story - 1-2",
		Filename:    "Story - 1-2.azw3",
		ReadCounted: 1,
		Entries:     entries,
	})
	if err != nil {
		t.Fatalf("save batch: %v", err)
	}
	if _, err := uuid.Parse(first.ID); err != nil {
		t.Errorf("batch id %q is not a uuid: %v", first.ID, err)
	}

	*now = now.Add(time.Hour)
	if _, err := st.SaveBatch(ctx, BatchInput{
		Author:   "other",
		Title:    "Other 5",
		Filename: "Other 5.azw3",
		Entries:  entries[:1],
	}); err != nil {
		t.Fatalf("save second batch: %v", err)
	}

	all, err := st.ListBatches(ctx, "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("batches = %d, want 2", len(all))
	}
	if all[0].Author != "other" {
		t.Errorf("newest batch first: got %q", all[0].Author)
	}

	mine, err := st.ListBatches(ctx, "SOMEONE", 1)
	if err != nil {
		t.Fatalf("list by author: %v", err)
	}
	if len(mine) != 1 {
		t.Fatalf("batches = %d, want 1", len(mine))
	}
	b := mine[0]
	if b.ID != first.ID || b.Title != "Story - 1-2" || b.Filename != "Story - 1-2.azw3" || b.ReadCounted != 1 {
		t.Errorf("batch = %+v", b)
	}
	if !b.CreatedAt.Equal(time.Date(2026, 6, 20, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", b.CreatedAt)
	}
	if len(b.Posts) != 2 || b.Posts[0].PostID != "p2" || b.Posts[1].CanonicalTitle != "Story 1" {
		t.Errorf("posts = %+v", b.Posts)
	}

	stats, err := st.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Batches != 2 || !stats.LastBatch.Equal(now.UTC()) {
		t.Errorf("stats = %+v", stats)
	}
}

func TestSaveBatch_Validation(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()
	entry := []source.Entry{{Post: testPost("a", "x"), CanonicalTitle: "A"}}

	tests := []struct {
		name string
		in   BatchInput
	}{
		{"no author", BatchInput{Title: "t", Entries: entry}},
		{"no title", BatchInput{Author: "x", Entries: entry}},
		{"no posts", BatchInput{Author: "x", Title: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := st.SaveBatch(ctx, tt.in); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
