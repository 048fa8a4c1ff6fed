package ingest

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/qepting91/reddit-collector/internal/domain"
	"github.com/qepting91/reddit-collector/internal/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTargets(t *testing.T) {
	path := writeFile(t, "subreddits.csv",
		"\uFEFFsubreddit,min_score\ngolang,10\nr/rust, 3\nx,5\nbad name!,1\nChatGPT\n")

	targets, err := LoadTargets(path)
	if err != nil {
		t.Fatalf("LoadTargets: %v", err)
	}
	want := []domain.Target{
		{Subreddit: "golang", MinScore: 10},
		{Subreddit: "rust", MinScore: 3},
		{Subreddit: "ChatGPT"},
	}
	if !slices.Equal(targets, want) {
		t.Fatalf("expected %v, got %v", want, targets)
	}
}

func TestLoadTargets_MissingFile(t *testing.T) {
	if _, err := LoadTargets(filepath.Join(t.TempDir(), "nope.csv")); domain.ExitCode(err) != 2 {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoadKeywords(t *testing.T) {
	path := writeFile(t, "keywords.csv", "keyword\nAI partner\n  GPT-5  \n\nmodel update,extra\n")

	kws, err := LoadKeywords(path)
	if err != nil {
		t.Fatalf("LoadKeywords: %v", err)
	}
	if want := []string{"AI partner", "GPT-5", "model update"}; !slices.Equal(kws, want) {
		t.Fatalf("expected %v, got %v", want, kws)
	}
}

func TestLoadPosts_ReadsStorageOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posts.csv")
	w, err := storage.Open(path, domain.PostHeader)
	if err != nil {
		t.Fatal(err)
	}
	in := domain.Post{
		Subreddit: "golang", SearchKeyword: "iter", ID: "abc", Title: "Range over func, finally",
		Author: "gopher", CreatedUTC: time.Date(2025, 8, 2, 3, 4, 5, 0, time.UTC),
		Score: 12, UpvoteRatio: 0.5, CommentCount: 4, Selftext: "multi\nline", IsSelf: true,
	}
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	posts, err := LoadPosts(path)
	if err != nil {
		t.Fatalf("LoadPosts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected 1 post, got %d", len(posts))
	}
	got := posts[0]
	if got.Title != in.Title || got.Selftext != in.Selftext || got.Score != 12 || !got.CreatedUTC.Equal(in.CreatedUTC) || !got.IsSelf {
		t.Fatalf("unexpected post %+v", got)
	}
}

func TestLoadPosts_RejectsForeignCSV(t *testing.T) {
	path := writeFile(t, "other.csv", "a,b\n1,2\n")
	if _, err := LoadPosts(path); domain.ExitCode(err) != 5 {
		t.Fatalf("expected IOError, got %v", err)
	}
}
