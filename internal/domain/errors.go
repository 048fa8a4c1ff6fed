package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports missing or invalid configuration. Always fatal.
type ConfigError struct {
	Fields  []string
	Message string
}

func (e *ConfigError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("config error in %s: %s", strings.Join(e.Fields, ", "), e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// AuthError reports a rejected or failed credential exchange.
type AuthError struct {
	StatusCode int
	// Body is the raw token endpoint response, when there was one.
	Body string
	Err  error
}

func (e *AuthError) Error() string {
	var sb strings.Builder
	sb.WriteString("auth error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status code %d", e.StatusCode)
	}
	if e.Body != "" {
		fmt.Fprintf(&sb, ", body: %q", e.Body)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ", err: %v", e.Err)
	}
	return sb.String()
}

func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed listing or comment request.
type FetchError struct {
	Op          string
	Subreddit   string
	StatusCode  int
	RateLimited bool
	Err         error
}

func (e *FetchError) Error() string {
	var sb strings.Builder
	sb.WriteString("fetch error")
	if e.Op != "" {
		fmt.Fprintf(&sb, " during %s", e.Op)
	}
	if e.Subreddit != "" {
		fmt.Fprintf(&sb, " for r/%s", e.Subreddit)
	}
	if e.RateLimited {
		sb.WriteString(": rate limited")
	} else if e.StatusCode != 0 {
		fmt.Fprintf(&sb, ": status code %d", e.StatusCode)
	}
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// IOError reports a failure opening, reading or writing an output file.
type IOError struct {
	Path string
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error during %s of %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var (
		cfgErr   *ConfigError
		authErr  *AuthError
		fetchErr *FetchError
		ioErr    *IOError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &cfgErr):
		return 2
	case errors.As(err, &authErr):
		return 3
	case errors.As(err, &fetchErr):
		return 4
	case errors.As(err, &ioErr):
		return 5
	default:
		return 1
	}
}
