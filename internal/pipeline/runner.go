// Package pipeline runs one collection study: every subreddit and keyword
// pair is collected, filtered and appended to the posts file, then comments
// are gathered for the posts that were kept.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/qepting91/reddit-collector/internal/collector"
	"github.com/qepting91/reddit-collector/internal/config"
	"github.com/qepting91/reddit-collector/internal/domain"
	"github.com/qepting91/reddit-collector/internal/storage"
)

type Runner struct {
	Collector domain.Collector
	Study     config.Study
	Logger    *slog.Logger
	// Now stamps output file names; defaults to time.Now.
	Now func() time.Time
}

// Summary describes what a run wrote.
type Summary struct {
	PostsPath    string
	CommentsPath string
	Posts        int
	Comments     int
	Duplicates   int
	Filtered     int
}

// Paths returns the posts and comments file paths for this run.
func (r *Runner) Paths() (posts, comments string) {
	out := r.Study.Output
	suffix := ""
	if out.AppendTimestamp {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		suffix = "_" + now().Format("20060102_150405")
	}
	posts = filepath.Join(out.Dir, fmt.Sprintf("%s_posts%s.csv", out.Prefix, suffix))
	comments = filepath.Join(out.Dir, fmt.Sprintf("%s_comments%s.csv", out.Prefix, suffix))
	return posts, comments
}

// Run collects posts and, if enabled, comments. The first fetch or write
// error aborts the run; rows already written stay on disk.
func (r *Runner) Run(ctx context.Context) (sum Summary, err error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	postsPath, commentsPath := r.Paths()
	sum.PostsPath = postsPath

	kept, err := r.collectPosts(ctx, logger, postsPath, &sum)
	if err != nil {
		return sum, err
	}
	logger.Info("Posts collected", "posts", sum.Posts, "duplicates", sum.Duplicates, "filtered", sum.Filtered, "file", postsPath)

	if !r.Study.CollectComments || len(kept) == 0 {
		return sum, nil
	}
	sum.CommentsPath = commentsPath
	if err := r.collectComments(ctx, logger, commentsPath, kept, &sum); err != nil {
		return sum, err
	}
	logger.Info("Comments collected", "comments", sum.Comments, "file", commentsPath)
	return sum, nil
}

func (r *Runner) collectPosts(ctx context.Context, logger *slog.Logger, path string, sum *Summary) (kept []string, err error) {
	sum.Posts, err = storage.WriteAll(path, domain.PostHeader, r.posts(ctx, logger, sum, &kept))
	return kept, err
}

// posts yields the kept posts of every target and keyword pair. IDs are
// appended to kept once the consumer has accepted the post.
func (r *Runner) posts(ctx context.Context, logger *slog.Logger, sum *Summary, kept *[]string) iter.Seq2[domain.Post, error] {
	return func(yield func(domain.Post, error) bool) {
		keywords := r.Study.Keywords
		if len(keywords) == 0 {
			keywords = []string{""}
		}
		limit := collector.Limit{MaxItems: r.Study.Limit, MaxPages: r.Study.MaxPages}
		seen := make(map[string]bool)

		for _, target := range r.Study.Targets {
			for _, kw := range keywords {
				q := domain.Query{
					Subreddit:  target.Subreddit,
					Keyword:    kw,
					Sort:       r.Study.Sort,
					TimeFilter: r.Study.TimeFilter,
					PageSize:   r.Study.PageSize,
				}
				logger.Info("Collecting", "sub", q.Subreddit, "keyword", kw)

				for post, err := range collector.Collect(ctx, r.Collector, q, limit) {
					if err != nil {
						logger.Error("Collection aborted", "sub", q.Subreddit, "keyword", kw, "err", err)
						yield(domain.Post{}, fmt.Errorf("collect r/%s: %w", q.Subreddit, err))
						return
					}
					if post.Score < target.MinScore || !r.inWindow(post.CreatedUTC) {
						sum.Filtered++
						continue
					}
					if seen[post.ID] {
						sum.Duplicates++
						continue
					}
					seen[post.ID] = true

					if !yield(post, nil) {
						return
					}
					*kept = append(*kept, post.ID)
				}
			}
		}
	}
}

func (r *Runner) collectComments(ctx context.Context, logger *slog.Logger, path string, postIDs []string, sum *Summary) (err error) {
	sum.Comments, err = storage.WriteAll(path, domain.CommentHeader, r.comments(ctx, logger, postIDs))
	return err
}

func (r *Runner) comments(ctx context.Context, logger *slog.Logger, postIDs []string) iter.Seq2[domain.Comment, error] {
	return func(yield func(domain.Comment, error) bool) {
		opts := domain.CommentOptions{TopLevelOnly: r.Study.TopLevel(), Limit: r.Study.CommentLimit}
		for i, id := range postIDs {
			logger.Debug("Collecting comments", "post", id, "n", i+1, "total", len(postIDs))
			comments, err := r.Collector.FetchComments(ctx, id, opts)
			if err != nil {
				logger.Error("Comment collection aborted", "post", id, "err", err)
				yield(domain.Comment{}, fmt.Errorf("comments for %s: %w", id, err))
				return
			}
			for _, c := range comments {
				if !yield(c, nil) {
					return
				}
			}
		}
	}
}

func (r *Runner) inWindow(t time.Time) bool {
	if !r.Study.Start.IsZero() && t.Before(r.Study.Start) {
		return false
	}
	if !r.Study.End.IsZero() && t.After(r.Study.End) {
		return false
	}
	return true
}
