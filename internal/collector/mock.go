package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/qepting91/reddit-collector/internal/domain"
)

const mockPages = 3

// MockClient implements domain.Collector with canned data.
// With Pages unset it generates mockPages synthetic pages per query.
type MockClient struct {
	// Pages are served in order; page i's After must be the cursor for page i+1.
	Pages []domain.ListingPage
	// FailAt makes the FailAt'th page request (1-based) fail.
	FailAt   int
	Comments map[string][]domain.Comment

	// Afters records the cursor of every FetchPage call.
	Afters []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (mc *MockClient) FetchPage(ctx context.Context, q domain.Query, after string) (domain.ListingPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ListingPage{}, &domain.FetchError{Op: "listing", Subreddit: q.Subreddit, Err: err}
	}
	mc.Afters = append(mc.Afters, after)
	if mc.FailAt > 0 && len(mc.Afters) == mc.FailAt {
		return domain.ListingPage{}, &domain.FetchError{Op: "listing", Subreddit: q.Subreddit, StatusCode: 503}
	}

	if mc.Pages == nil {
		return syntheticPage(q, after), nil
	}

	idx := 0
	if after != "" {
		idx = -1
		for i, p := range mc.Pages {
			if p.After == after {
				idx = i + 1
				break
			}
		}
		if idx < 0 || idx >= len(mc.Pages) {
			return domain.ListingPage{}, &domain.FetchError{
				Op:        "listing",
				Subreddit: q.Subreddit,
				Err:       fmt.Errorf("unknown cursor %q", after),
			}
		}
	}
	if len(mc.Pages) == 0 {
		return domain.ListingPage{}, nil
	}

	src := mc.Pages[idx]
	page := domain.ListingPage{After: src.After, Items: make([]domain.Post, 0, len(src.Items))}
	for _, p := range src.Items {
		if p.Subreddit == "" {
			p.Subreddit = q.Subreddit
		}
		if p.SearchKeyword == "" {
			p.SearchKeyword = q.Keyword
		}
		page.Items = append(page.Items, p)
	}
	return page, nil
}

func (mc *MockClient) FetchComments(ctx context.Context, postID string, opts domain.CommentOptions) ([]domain.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, &domain.FetchError{Op: "comments", Err: err}
	}
	cs := mc.Comments[postID]
	if mc.Comments == nil {
		cs = []domain.Comment{{
			PostID:     postID,
			ID:         postID + "_c0",
			Author:     "simulated_user",
			Body:       "Simulated comment",
			Score:      1,
			CreatedUTC: time.Now().UTC(),
		}}
	}
	if opts.Limit > 0 && len(cs) > opts.Limit {
		cs = cs[:opts.Limit]
	}
	return cs, nil
}

func syntheticPage(q domain.Query, after string) domain.ListingPage {
	n := 0
	if after != "" {
		fmt.Sscanf(after, "mock_page_%d", &n)
	}
	size := q.PageSize
	if size <= 0 {
		size = 25
	}

	page := domain.ListingPage{}
	now := time.Now().UTC()
	for i := 0; i < size; i++ {
		seq := n*maxPageSize + i
		page.Items = append(page.Items, domain.Post{
			Subreddit:     q.Subreddit,
			SearchKeyword: q.Keyword,
			ID:            fmt.Sprintf("mock_%s_%d", q.Subreddit, seq),
			Title:         fmt.Sprintf("[%s] Simulated post #%d", q.Subreddit, seq),
			Author:        "simulated_user",
			CreatedUTC:    now.Add(-time.Duration(seq) * time.Minute),
			Score:         (seq * 37) % 500,
			UpvoteRatio:   0.9,
			CommentCount:  seq % 50,
			URL:           "http://localhost/mock-url",
			IsSelf:        true,
			Permalink:     domain.Permalink(fmt.Sprintf("/r/%s/comments/mock_%d/", q.Subreddit, seq)),
		})
	}
	if n+1 < mockPages {
		page.After = fmt.Sprintf("mock_page_%d", n+1)
	}
	return page
}
