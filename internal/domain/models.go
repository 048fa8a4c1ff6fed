package domain

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Regex for valid subreddit names
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// ValidSubreddit reports whether name is a syntactically valid subreddit name.
func ValidSubreddit(name string) bool {
	return subNameRegex.MatchString(name)
}

// Target represents one subreddit to collect from
type Target struct {
	Subreddit string
	MinScore  int
}

// Credential is the result of the client-credentials exchange. It lives for one run.
type Credential struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	AccessToken  string
	TokenType    string
	Expiry       time.Time
}

// Expired reports whether the token is unusable at now. A zero Expiry never expires.
func (c Credential) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

func (c Credential) String() string {
	return fmt.Sprintf("Credential{client_id=%s, user_agent=%q, expiry=%s}",
		c.ClientID, c.UserAgent, c.Expiry.Format(time.RFC3339))
}

// Query selects one listing. An empty Keyword lists /r/{sub}/{sort},
// otherwise the listing is a search restricted to the subreddit.
type Query struct {
	Subreddit  string
	Keyword    string
	Sort       string
	TimeFilter string
	PageSize   int
}

// ListingPage is one page of a listing plus the cursor to the next one.
type ListingPage struct {
	Items []Post
	After string
}

// CommentOptions controls comment collection for a single post.
type CommentOptions struct {
	TopLevelOnly bool
	Limit        int
}

// PostHeader is the fixed column order of the posts CSV.
var PostHeader = []string{
	"subreddit", "search_keyword", "post_id", "title", "author", "created_utc",
	"score", "upvote_ratio", "num_comments", "url", "selftext",
	"link_flair_text", "is_self", "permalink",
}

// Post is the flattened record for a submission
type Post struct {
	Subreddit     string
	SearchKeyword string
	ID            string
	Title         string
	Author        string
	CreatedUTC    time.Time
	Score         int
	UpvoteRatio   float64
	CommentCount  int
	URL           string
	Selftext      string
	LinkFlairText string
	IsSelf        bool
	Permalink     string
}

// Values returns the row for p in PostHeader order.
func (p Post) Values() []string {
	return []string{
		p.Subreddit,
		p.SearchKeyword,
		p.ID,
		p.Title,
		p.Author,
		formatTime(p.CreatedUTC),
		strconv.Itoa(p.Score),
		strconv.FormatFloat(p.UpvoteRatio, 'f', -1, 64),
		strconv.Itoa(p.CommentCount),
		p.URL,
		p.Selftext,
		p.LinkFlairText,
		strconv.FormatBool(p.IsSelf),
		p.Permalink,
	}
}

// CommentHeader is the fixed column order of the comments CSV.
var CommentHeader = []string{
	"post_id", "comment_id", "author", "body", "score", "created_utc",
	"is_submitter", "permalink",
}

// Comment is the flattened record for a comment
type Comment struct {
	PostID      string
	ID          string
	Author      string
	Body        string
	Score       int
	CreatedUTC  time.Time
	IsSubmitter bool
	Permalink   string
}

// Values returns the row for c in CommentHeader order.
func (c Comment) Values() []string {
	return []string{
		c.PostID,
		c.ID,
		c.Author,
		c.Body,
		strconv.Itoa(c.Score),
		formatTime(c.CreatedUTC),
		strconv.FormatBool(c.IsSubmitter),
		c.Permalink,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FromUnix converts Reddit's created_utc seconds to a time.
func FromUnix(sec float64) time.Time {
	whole := int64(sec)
	return time.Unix(whole, int64((sec-float64(whole))*1e9)).UTC()
}

// Permalink turns a relative reddit permalink into an absolute URL.
func Permalink(path string) string {
	if path == "" {
		return ""
	}
	return "https://reddit.com" + path
}

// Collector defines the interface for data fetching
type Collector interface {
	FetchPage(ctx context.Context, q Query, after string) (ListingPage, error)
	FetchComments(ctx context.Context, postID string, opts CommentOptions) ([]Comment, error)
}
