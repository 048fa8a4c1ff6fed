package collector

import (
	"context"
	"errors"
	"net/http"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/reddit-collector/internal/domain"
	"golang.org/x/time/rate"
)

// PublicClient reads the unauthenticated endpoints through go-reddit's
// read-only client.
type PublicClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
}

func NewPublicClient(userAgent string, opts ...reddit.Opt) (*PublicClient, error) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	base := []reddit.Opt{
		reddit.WithUserAgent(userAgent),
		reddit.WithHTTPClient(newHTTPClient()),
	}
	client, err := reddit.NewReadonlyClient(append(base, opts...)...)
	if err != nil {
		return nil, err
	}

	return &PublicClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(publicRequestInterval), 1),
	}, nil
}

func (pc *PublicClient) FetchPage(ctx context.Context, q domain.Query, after string) (domain.ListingPage, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return domain.ListingPage{}, &domain.FetchError{Op: "listing", Subreddit: q.Subreddit, Err: err}
	}

	listOpts := reddit.ListOptions{Limit: min(q.PageSize, maxPageSize), After: after}

	var (
		posts []*reddit.Post
		resp  *reddit.Response
		err   error
	)
	switch {
	case q.Keyword != "":
		posts, resp, err = pc.client.Subreddit.SearchPosts(ctx, q.Keyword, q.Subreddit, &reddit.ListPostSearchOptions{
			ListPostOptions: reddit.ListPostOptions{ListOptions: listOpts, Time: q.TimeFilter},
			Sort:            q.Sort,
		})
	case q.Sort == "hot":
		posts, resp, err = pc.client.Subreddit.HotPosts(ctx, q.Subreddit, &listOpts)
	case q.Sort == "top":
		posts, resp, err = pc.client.Subreddit.TopPosts(ctx, q.Subreddit, &reddit.ListPostOptions{ListOptions: listOpts, Time: q.TimeFilter})
	default:
		posts, resp, err = pc.client.Subreddit.NewPosts(ctx, q.Subreddit, &listOpts)
	}
	if err != nil {
		return domain.ListingPage{}, publicFetchError("listing", q.Subreddit, err)
	}

	var page domain.ListingPage
	if resp != nil {
		page.After = resp.After
	}
	for _, p := range posts {
		if p == nil {
			continue
		}
		post := domain.Post{
			Subreddit:     q.Subreddit,
			SearchKeyword: q.Keyword,
			ID:            p.ID,
			Title:         p.Title,
			Author:        p.Author,
			Score:         p.Score,
			UpvoteRatio:   float64(p.UpvoteRatio),
			CommentCount:  p.NumberOfComments,
			URL:           p.URL,
			Selftext:      p.Body,
			LinkFlairText: p.LinkFlairText,
			IsSelf:        p.IsSelfPost,
			Permalink:     domain.Permalink(p.Permalink),
		}
		if p.Created != nil {
			post.CreatedUTC = p.Created.Time.UTC()
		}
		page.Items = append(page.Items, post)
	}
	return page, nil
}

func (pc *PublicClient) FetchComments(ctx context.Context, postID string, opts domain.CommentOptions) ([]domain.Comment, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return nil, &domain.FetchError{Op: "comments", Err: err}
	}

	pac, _, err := pc.client.Post.Get(ctx, postID)
	if err != nil {
		return nil, publicFetchError("comments", "", err)
	}

	var out []domain.Comment
	var walk func(cs []*reddit.Comment) bool
	walk = func(cs []*reddit.Comment) bool {
		for _, c := range cs {
			if c == nil {
				continue
			}
			comment := domain.Comment{
				PostID:      postID,
				ID:          c.ID,
				Author:      c.Author,
				Body:        c.Body,
				Score:       c.Score,
				IsSubmitter: c.IsSubmitter,
				Permalink:   domain.Permalink(c.Permalink),
			}
			if c.Created != nil {
				comment.CreatedUTC = c.Created.Time.UTC()
			}
			out = append(out, comment)
			if opts.Limit > 0 && len(out) >= opts.Limit {
				return false
			}
			if !opts.TopLevelOnly && !walk(c.Replies.Comments) {
				return false
			}
		}
		return true
	}
	walk(pac.Comments)
	return out, nil
}

func publicFetchError(op, sub string, err error) error {
	fe := &domain.FetchError{Op: op, Subreddit: sub, Err: err}
	var errResp *reddit.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		fe.StatusCode = errResp.Response.StatusCode
		fe.RateLimited = fe.StatusCode == http.StatusTooManyRequests
	}
	return fe
}
