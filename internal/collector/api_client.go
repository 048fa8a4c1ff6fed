package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/reddit-collector/internal/domain"
	"golang.org/x/time/rate"
)

var (
	errNotAuthenticated = errors.New("no access token, authenticate first")
	errTokenExpired     = errors.New("access token expired")
)

// APIConfig configures an APIClient. Zero values pick the production defaults.
type APIConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// APIClient lists subreddits through the OAuth API with a bearer token.
type APIClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	cred       domain.Credential
	limiter    *rate.Limiter
}

type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string   `json:"kind"`
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	CreatedUTC    float64 `json:"created_utc"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	URL           string  `json:"url"`
	Selftext      string  `json:"selftext"`
	LinkFlairText string  `json:"link_flair_text"`
	IsSelf        bool    `json:"is_self"`
	Permalink     string  `json:"permalink"`
}

func NewAPIClient(cred domain.Credential, cfg APIConfig) (*APIClient, error) {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultAPIURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, &domain.ConfigError{Fields: []string{"REDDIT_API_URL"}, Message: err.Error()}
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(apiRequestInterval), 1)
	}

	return &APIClient{
		httpClient: withUserAgent(cfg.HTTPClient, cred.UserAgent),
		baseURL:    parsed,
		cred:       cred,
		limiter:    limiter,
	}, nil
}

// FetchPage requests one listing page. No retry is attempted; a 429 comes
// back as a rate limited *domain.FetchError.
func (ac *APIClient) FetchPage(ctx context.Context, q domain.Query, after string) (domain.ListingPage, error) {
	body, err := ac.get(ctx, "listing", q.Subreddit, listingURL(ac.baseURL, q, after))
	if err != nil {
		return domain.ListingPage{}, err
	}

	var resp listingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ListingPage{}, &domain.FetchError{
			Op:        "listing",
			Subreddit: q.Subreddit,
			Err:       fmt.Errorf("decode listing: %w", err),
		}
	}

	page := domain.ListingPage{After: resp.Data.After}
	for _, child := range resp.Data.Children {
		if child.Kind != "" && child.Kind != "t3" {
			continue
		}
		d := child.Data
		page.Items = append(page.Items, domain.Post{
			Subreddit:     q.Subreddit,
			SearchKeyword: q.Keyword,
			ID:            d.ID,
			Title:         d.Title,
			Author:        d.Author,
			CreatedUTC:    domain.FromUnix(d.CreatedUTC),
			Score:         d.Score,
			UpvoteRatio:   d.UpvoteRatio,
			CommentCount:  d.NumComments,
			URL:           d.URL,
			Selftext:      d.Selftext,
			LinkFlairText: d.LinkFlairText,
			IsSelf:        d.IsSelf,
			Permalink:     domain.Permalink(d.Permalink),
		})
	}
	return page, nil
}

// FetchComments returns the comments of one post in depth-first order.
func (ac *APIClient) FetchComments(ctx context.Context, postID string, opts domain.CommentOptions) ([]domain.Comment, error) {
	v := url.Values{}
	v.Set("raw_json", "1")
	if opts.TopLevelOnly {
		v.Set("depth", "1")
	}
	if opts.Limit > 0 {
		v.Set("limit", strconv.Itoa(opts.Limit))
	}
	u := ac.baseURL.ResolveReference(&url.URL{Path: "comments/" + url.PathEscape(postID)})
	u.RawQuery = v.Encode()

	body, err := ac.get(ctx, "comments", "", u)
	if err != nil {
		return nil, err
	}
	comments, err := parseComments(body, postID, opts)
	if err != nil {
		return nil, &domain.FetchError{Op: "comments", Err: err}
	}
	return comments, nil
}

func (ac *APIClient) get(ctx context.Context, op, sub string, u *url.URL) ([]byte, error) {
	fail := func(status int, err error) error {
		return &domain.FetchError{Op: op, Subreddit: sub, StatusCode: status, Err: err}
	}

	if ac.cred.AccessToken == "" {
		return nil, fail(0, errNotAuthenticated)
	}
	if ac.cred.Expired(time.Now()) {
		return nil, fail(0, errTokenExpired)
	}
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fail(0, err)
	}
	req.Header.Set("Authorization", "bearer "+ac.cred.AccessToken)

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fail(resp.StatusCode, err)
		}
		return body, nil
	case http.StatusTooManyRequests:
		return nil, &domain.FetchError{Op: op, Subreddit: sub, StatusCode: resp.StatusCode, RateLimited: true}
	default:
		return nil, fail(resp.StatusCode, nil)
	}
}

// listingURL builds /r/{sub}/{sort} for plain listings and
// /r/{sub}/search for keyword queries.
func listingURL(base *url.URL, q domain.Query, after string) *url.URL {
	v := url.Values{}
	v.Set("raw_json", "1")
	if q.PageSize > 0 {
		v.Set("limit", strconv.Itoa(min(q.PageSize, maxPageSize)))
	}
	if after != "" {
		v.Set("after", after)
	}

	sub := url.PathEscape(q.Subreddit)
	var path string
	if q.Keyword != "" {
		path = "r/" + sub + "/search"
		v.Set("q", q.Keyword)
		v.Set("restrict_sr", "on")
		if q.Sort != "" {
			v.Set("sort", q.Sort)
		}
		if q.TimeFilter != "" {
			v.Set("t", q.TimeFilter)
		}
	} else {
		sort := listingSort(q.Sort)
		path = "r/" + sub + "/" + sort
		if sort == "top" && q.TimeFilter != "" {
			v.Set("t", q.TimeFilter)
		}
	}

	u := base.ResolveReference(&url.URL{Path: path})
	u.RawQuery = v.Encode()
	return u
}

// listingSort maps a sort to a plain listing path. Search-only sorts fall back to new.
func listingSort(sort string) string {
	switch sort {
	case "hot", "top", "new":
		return sort
	default:
		return "new"
	}
}
