package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/qepting91/reddit-collector/internal/domain"
	yaml "gopkg.in/yaml.v2"
)

const (
	ModeOAuth  = "oauth"
	ModePublic = "public"
	ModeMock   = "mock"

	EnvClientID     = "REDDIT_CLIENT_ID"
	EnvClientSecret = "REDDIT_CLIENT_SECRET"
	EnvUserAgent    = "REDDIT_USER_AGENT"

	dateLayout = "2006-01-02"

	defaultLimit    = 100
	defaultPageSize = 100
	maxPageSize     = 100
)

var (
	validSorts       = []string{"relevance", "hot", "top", "new", "comments"}
	validTimeFilters = []string{"all", "year", "month", "week", "day", "hour"}
)

// Credentials are the three required REDDIT_* variables.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
}

// Config is the process configuration taken from the environment.
type Config struct {
	Credentials

	Mode     string
	TokenURL string
	// APIURL is the OAuth listing host. PublicURL is the anonymous host
	// used in public mode; the two are never interchanged.
	APIURL    string
	PublicURL string
	LogFormat string
	LogLevel  string

	Study Study
}

type Output struct {
	Dir             string `yaml:"dir"`
	Prefix          string `yaml:"prefix"`
	AppendTimestamp bool   `yaml:"append_timestamp"`
}

// Study describes what to collect in one run.
type Study struct {
	Subreddits []string `yaml:"subreddits"`
	Keywords   []string `yaml:"keywords"`
	MinScore   int      `yaml:"min_score"`

	// StartDate and EndDate are inclusive YYYY-MM-DD days in UTC.
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	Limit      int    `yaml:"limit"`
	MaxPages   int    `yaml:"max_pages"`
	PageSize   int    `yaml:"page_size"`
	Sort       string `yaml:"sort"`
	TimeFilter string `yaml:"time_filter"`

	CollectComments bool  `yaml:"collect_comments"`
	TopLevelOnly    *bool `yaml:"top_level_only"`
	CommentLimit    int   `yaml:"comment_limit"`

	Output Output `yaml:"output"`

	// Filled by Finalize.
	Targets []domain.Target `yaml:"-"`
	Start   time.Time       `yaml:"-"`
	End     time.Time       `yaml:"-"`
}

// LoadDotEnv loads .env style files into the process environment.
// Missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &domain.ConfigError{Fields: []string{p}, Message: err.Error()}
		}
	}
	return nil
}

// FromEnv reads the environment through lookup, normally os.LookupEnv.
// Every missing required variable is reported in a single ConfigError.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := Config{
		Credentials: Credentials{
			ClientID:     get(EnvClientID),
			ClientSecret: get(EnvClientSecret),
			UserAgent:    get(EnvUserAgent),
		},
		Mode:      strings.ToLower(get("COLLECTOR_MODE")),
		TokenURL:  get("REDDIT_TOKEN_URL"),
		APIURL:    get("REDDIT_API_URL"),
		PublicURL: get("REDDIT_PUBLIC_URL"),
		LogFormat: get("LOG_FORMAT"),
		LogLevel:  get("LOG_LEVEL"),
	}

	var missing []string
	for _, kv := range [][2]string{
		{EnvClientID, cfg.ClientID},
		{EnvClientSecret, cfg.ClientSecret},
		{EnvUserAgent, cfg.UserAgent},
	} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return Config{}, &domain.ConfigError{Fields: missing, Message: "required environment variable is not set"}
	}

	switch cfg.Mode {
	case "", "api":
		cfg.Mode = ModeOAuth
	case ModeOAuth, ModePublic, ModeMock:
	default:
		return Config{}, &domain.ConfigError{
			Fields:  []string{"COLLECTOR_MODE"},
			Message: fmt.Sprintf("unknown mode %q (use 'oauth', 'public', or 'mock')", cfg.Mode),
		}
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	return cfg, nil
}

// LoadStudy reads a YAML study file. An empty path returns an empty study.
func LoadStudy(path string) (Study, error) {
	var s Study
	if path == "" {
		return s, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return s, &domain.ConfigError{Fields: []string{"config"}, Message: err.Error()}
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return s, &domain.ConfigError{Fields: []string{"config"}, Message: err.Error()}
	}
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return s, &domain.ConfigError{Fields: []string{"config"}, Message: fmt.Sprintf("parse %s: %v", path, err)}
	}
	return s, nil
}

// Finalize validates the study and applies defaults. Subreddits are merged
// into Targets; targets already present keep their own MinScore.
func (s *Study) Finalize() error {
	for _, name := range s.Subreddits {
		name = strings.TrimPrefix(strings.TrimSpace(name), "r/")
		if !domain.ValidSubreddit(name) {
			return &domain.ConfigError{Fields: []string{"subreddits"}, Message: fmt.Sprintf("invalid subreddit name %q", name)}
		}
		if !slices.ContainsFunc(s.Targets, func(t domain.Target) bool { return strings.EqualFold(t.Subreddit, name) }) {
			s.Targets = append(s.Targets, domain.Target{Subreddit: name, MinScore: s.MinScore})
		}
	}
	if len(s.Targets) == 0 {
		return &domain.ConfigError{Fields: []string{"subreddits"}, Message: "at least one subreddit is required"}
	}

	keywords := s.Keywords[:0]
	for _, k := range s.Keywords {
		if k = strings.TrimSpace(k); k != "" && !slices.Contains(keywords, k) {
			keywords = append(keywords, k)
		}
	}
	s.Keywords = keywords

	if s.Limit < 0 || s.MaxPages < 0 || s.PageSize < 0 || s.CommentLimit < 0 {
		return &domain.ConfigError{Fields: []string{"limit", "max_pages", "page_size", "comment_limit"}, Message: "must not be negative"}
	}
	if s.Limit == 0 {
		s.Limit = defaultLimit
	}
	if s.PageSize == 0 {
		s.PageSize = defaultPageSize
	}
	s.PageSize = min(s.PageSize, maxPageSize)

	if s.Sort == "" {
		s.Sort = "new"
		if len(s.Keywords) > 0 {
			s.Sort = "relevance"
		}
	}
	if !slices.Contains(validSorts, s.Sort) {
		return &domain.ConfigError{Fields: []string{"sort"}, Message: fmt.Sprintf("%q is not one of %v", s.Sort, validSorts)}
	}
	if s.TimeFilter == "" {
		s.TimeFilter = "all"
	}
	if !slices.Contains(validTimeFilters, s.TimeFilter) {
		return &domain.ConfigError{Fields: []string{"time_filter"}, Message: fmt.Sprintf("%q is not one of %v", s.TimeFilter, validTimeFilters)}
	}

	var err error
	if s.Start, err = parseDate("start_date", s.StartDate); err != nil {
		return err
	}
	if s.End, err = parseDate("end_date", s.EndDate); err != nil {
		return err
	}
	if !s.End.IsZero() {
		// inclusive of the whole end day
		s.End = s.End.Add(24*time.Hour - time.Nanosecond)
	}
	if !s.Start.IsZero() && !s.End.IsZero() && s.Start.After(s.End) {
		return &domain.ConfigError{Fields: []string{"start_date", "end_date"}, Message: "start_date is after end_date"}
	}

	if s.TopLevelOnly == nil {
		topLevel := true
		s.TopLevelOnly = &topLevel
	}

	if s.Output.Dir == "" {
		s.Output.Dir = "data"
	}
	if s.Output.Prefix == "" {
		s.Output.Prefix = "reddit_data"
	}
	return nil
}

func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, &domain.ConfigError{Fields: []string{field}, Message: fmt.Sprintf("expected YYYY-MM-DD, got %q", v)}
	}
	return t, nil
}

// TopLevel reports whether only top-level comments are collected.
func (s Study) TopLevel() bool {
	return s.TopLevelOnly == nil || *s.TopLevelOnly
}
