package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/pders01/ytsweep/internal/comments"
	"github.com/pders01/ytsweep/internal/config"
	"golang.org/x/oauth2"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSearch() *SavedSearch {
	r := comments.NewResult()
	r.Add("v1", "First video",
		comments.Comment{ID: "c1", Text: "great stuff", Author: "a", VideoID: "v1", VideoTitle: "First video", ReplyCount: 1,
			PublishedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		comments.Comment{ID: "r1", Text: "great reply", Author: "b", IsReply: true, ParentID: "c1", VideoID: "v1", VideoTitle: "First video",
			PublishedAt: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
	)
	r.Add("v2", "Second video", comments.Comment{ID: "c2", Text: "great", VideoID: "v2", VideoTitle: "Second video"})
	return &SavedSearch{
		Keyword:    "great",
		Exclusions: []string{"spam"},
		Result:     r,
		SavedAt:    time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		Quota:      12,
	}
}

func TestStore_LastSearchRoundTrip(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.LastSearch(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	saved := sampleSearch()
	if err := store.SaveLastSearch(saved); err != nil {
		t.Fatalf("failed to save search: %v", err)
	}

	got, err := store.LastSearch()
	if err != nil {
		t.Fatalf("failed to load search: %v", err)
	}

	if got.Keyword != "great" || len(got.Exclusions) != 1 || got.Exclusions[0] != "spam" {
		t.Errorf("unexpected header: %+v", got)
	}
	if !got.SavedAt.Equal(saved.SavedAt) {
		t.Errorf("SavedAt = %v, want %v", got.SavedAt, saved.SavedAt)
	}

	want := saved.Result.Flat()
	flat := got.Result.Flat()
	if len(flat) != len(want) {
		t.Fatalf("expected %d comments, got %d", len(want), len(flat))
	}
	for i := range want {
		if flat[i] != want[i] {
			t.Errorf("comment %d = %+v, want %+v", i, flat[i], want[i])
		}
	}
	if got.Result.Videos["v2"].VideoTitle != "Second video" {
		t.Errorf("video title lost in round trip")
	}
}

func TestStore_UpdateLastSearch(t *testing.T) {
	store := setupTestStore(t)

	if err := store.UpdateLastSearch(func(*SavedSearch) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.SaveLastSearch(sampleSearch()); err != nil {
		t.Fatal(err)
	}
	err := store.UpdateLastSearch(func(s *SavedSearch) error {
		s.Result.Remove("c1", "c2")
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := store.LastSearch()
	if err != nil {
		t.Fatal(err)
	}
	if ids := got.Result.IDs(); len(ids) != 1 || ids[0] != "r1" {
		t.Errorf("remaining ids = %v, want [r1]", ids)
	}

	boom := errors.New("boom")
	if err := store.UpdateLastSearch(func(*SavedSearch) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("expected callback error, got %v", err)
	}
}

func TestStore_ClearLastSearch(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveLastSearch(sampleSearch()); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearLastSearch(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LastSearch(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestStore_HistoryNewestFirstAndPruned(t *testing.T) {
	store := setupTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < maxHistory+5; i++ {
		s := sampleSearch()
		s.Keyword = fmt.Sprintf("kw-%d", i)
		s.SavedAt = base.Add(time.Duration(i) * time.Minute)
		if err := store.SaveLastSearch(s); err != nil {
			t.Fatal(err)
		}
	}

	hist, err := store.History(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != maxHistory {
		t.Fatalf("history length = %d, want %d", len(hist), maxHistory)
	}
	if hist[0].Keyword != fmt.Sprintf("kw-%d", maxHistory+4) {
		t.Errorf("newest entry = %s", hist[0].Keyword)
	}
	if hist[len(hist)-1].Keyword != "kw-5" {
		t.Errorf("oldest kept entry = %s, want kw-5", hist[len(hist)-1].Keyword)
	}
	if hist[0].Matches != 3 || hist[0].Videos != 2 {
		t.Errorf("summary counts = %d/%d, want 3/2", hist[0].Matches, hist[0].Videos)
	}

	limited, _ := store.History(3)
	if len(limited) != 3 {
		t.Errorf("History(3) returned %d", len(limited))
	}
}

func TestStore_Token(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.LoadToken(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := store.SaveToken(&oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: expiry}); err != nil {
		t.Fatal(err)
	}

	tok, err := store.LoadToken()
	if err != nil {
		t.Fatal(err)
	}
	if tok.AccessToken != "a" || tok.RefreshToken != "r" || !tok.Expiry.Equal(expiry) {
		t.Errorf("unexpected token %+v", tok)
	}

	if err := store.DeleteToken(); err != nil {
		t.Fatal(err)
	}
	if _, err := store.LoadToken(); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "ytsweep.db")
	store, err := Open(config.DatabaseConfig{Path: path, Timeout: time.Second})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	store.Close()
}
