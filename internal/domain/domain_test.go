package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestPostValuesMatchHeader(t *testing.T) {
	p := Post{
		Subreddit:     "golang",
		SearchKeyword: "generics",
		ID:            "abc",
		Title:         "Hello, world",
		Author:        "gopher",
		CreatedUTC:    time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		Score:         42,
		UpvoteRatio:   0.97,
		CommentCount:  7,
		URL:           "https://example.com",
		IsSelf:        true,
		Permalink:     "https://reddit.com/r/golang/comments/abc/",
	}
	got := p.Values()
	if len(got) != len(PostHeader) {
		t.Fatalf("expected %d values, got %d", len(PostHeader), len(got))
	}
	want := map[string]string{
		"post_id":      "abc",
		"created_utc":  "2025-08-01T12:00:00Z",
		"score":        "42",
		"upvote_ratio": "0.97",
		"is_self":      "true",
	}
	for i, col := range PostHeader {
		if w, ok := want[col]; ok && got[i] != w {
			t.Errorf("column %s: expected %q, got %q", col, w, got[i])
		}
	}
}

func TestCommentValuesMatchHeader(t *testing.T) {
	c := Comment{PostID: "p1", ID: "c1", Body: "text", Score: -3}
	got := c.Values()
	if len(got) != len(CommentHeader) {
		t.Fatalf("expected %d values, got %d", len(CommentHeader), len(got))
	}
	if got[4] != "-3" || got[5] != "" {
		t.Fatalf("unexpected row: %q", got)
	}
}

func TestFromUnix(t *testing.T) {
	got := FromUnix(1754049600.5)
	if got.Unix() != 1754049600 || got.Nanosecond() != 5e8 {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestCredentialExpiredAndString(t *testing.T) {
	now := time.Now()
	c := Credential{ClientID: "id", ClientSecret: "shh", AccessToken: "tok", Expiry: now.Add(time.Minute)}
	if c.Expired(now) {
		t.Fatal("expected credential to be valid")
	}
	if !c.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("expected credential to be expired")
	}
	if (Credential{}).Expired(now) {
		t.Fatal("zero expiry should never expire")
	}
	s := c.String()
	if strings.Contains(s, "shh") || strings.Contains(s, "tok") {
		t.Fatalf("credential string leaks secrets: %s", s)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"config", &ConfigError{Fields: []string{"REDDIT_CLIENT_ID"}, Message: "required"}, 2},
		{"auth", &AuthError{StatusCode: 401}, 3},
		{"fetch wrapped", fmt.Errorf("collect: %w", &FetchError{StatusCode: 500}), 4},
		{"io", &IOError{Path: "x.csv", Op: "open", Err: errors.New("denied")}, 5},
		{"canceled", context.Canceled, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	fe := &FetchError{Op: "listing", Subreddit: "golang", RateLimited: true}
	if got := fe.Error(); got != "fetch error during listing for r/golang: rate limited" {
		t.Fatalf("unexpected message %q", got)
	}
	ae := &AuthError{StatusCode: 401, Body: `{"error":"invalid_client"}`}
	if !strings.Contains(ae.Error(), "status code 401") {
		t.Fatalf("unexpected message %q", ae.Error())
	}
	inner := errors.New("disk full")
	ioe := &IOError{Path: "out.csv", Op: "write", Err: inner}
	if !errors.Is(ioe, inner) {
		t.Fatal("expected IOError to unwrap")
	}
}
