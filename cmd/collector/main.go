package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/qepting91/reddit-collector/internal/collector"
	"github.com/qepting91/reddit-collector/internal/config"
	"github.com/qepting91/reddit-collector/internal/domain"
	"github.com/qepting91/reddit-collector/internal/ingest"
	"github.com/qepting91/reddit-collector/internal/logging"
	"github.com/qepting91/reddit-collector/internal/pipeline"
	"github.com/qepting91/reddit-collector/internal/report"
)

type options struct {
	configPath     string
	envFile        string
	subredditsFile string
	keywordsFile   string
	subreddits     string
	keywords       string
	limit          int
	pages          int
	sort           string
	timeFilter     string
	comments       bool
	outDir         string
	prefix         string
	reportPath     string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.LookupEnv))
}

func run(args []string, stdout io.Writer, lookup func(string) (string, bool)) int {
	opts, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// 1. Setup
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return domain.ExitCode(err)
	}
	format, _ := lookup("LOG_FORMAT")
	level, _ := lookup("LOG_LEVEL")
	logger := logging.New(stdout, format, level).With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	// 2. Configuration, before any network call
	cfg, err := loadConfig(opts, lookup)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		return domain.ExitCode(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Client (Using Factory)
	client, err := collector.NewCollector(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize collector", "err", err)
		return domain.ExitCode(err)
	}
	logger.Info("Collector initialized", "mode", cfg.Mode, "targets", len(cfg.Study.Targets), "keywords", len(cfg.Study.Keywords))

	// 4. Collect
	runner := &pipeline.Runner{Collector: client, Study: cfg.Study, Logger: logger}
	sum, err := runner.Run(ctx)
	if err != nil {
		logger.Error("Collection failed", "err", err, "posts_written", sum.Posts, "file", sum.PostsPath)
		return domain.ExitCode(err)
	}
	logger.Info("Collection complete", "posts", sum.Posts, "comments", sum.Comments, "posts_file", sum.PostsPath, "comments_file", sum.CommentsPath)

	// 5. Report
	if opts.reportPath != "" {
		if err := report.RenderFile(sum.PostsPath, opts.reportPath); err != nil {
			logger.Error("Report failed", "err", err)
			return domain.ExitCode(err)
		}
		logger.Info("Report written", "file", opts.reportPath)
	}
	return 0
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("collector", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", "", "path to a YAML study file")
	fs.StringVar(&o.envFile, "env-file", ".env", "dotenv file to load if present")
	fs.StringVar(&o.subredditsFile, "subreddits-file", "", "CSV of subreddit,min_score targets")
	fs.StringVar(&o.keywordsFile, "keywords-file", "", "CSV of search keywords")
	fs.StringVar(&o.subreddits, "subreddit", "", "comma separated subreddits")
	fs.StringVar(&o.keywords, "keyword", "", "comma separated search keywords")
	fs.IntVar(&o.limit, "limit", 0, "max posts per subreddit and keyword")
	fs.IntVar(&o.pages, "pages", 0, "max pages per subreddit and keyword (0 = no limit)")
	fs.StringVar(&o.sort, "sort", "", "relevance, hot, top, new or comments")
	fs.StringVar(&o.timeFilter, "time", "", "all, year, month, week, day or hour")
	fs.BoolVar(&o.comments, "comments", false, "also collect comments of kept posts")
	fs.StringVar(&o.outDir, "out-dir", "", "output directory")
	fs.StringVar(&o.prefix, "prefix", "", "output file prefix")
	fs.StringVar(&o.reportPath, "report", "", "write an HTML chart report of the posts file")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

func loadConfig(o options, lookup func(string) (string, bool)) (config.Config, error) {
	cfg, err := config.FromEnv(lookup)
	if err != nil {
		return cfg, err
	}

	study, err := config.LoadStudy(o.configPath)
	if err != nil {
		return cfg, err
	}

	// Load Inputs
	if o.subredditsFile != "" {
		targets, err := ingest.LoadTargets(o.subredditsFile)
		if err != nil {
			return cfg, err
		}
		study.Targets = append(study.Targets, targets...)
	}
	if o.keywordsFile != "" {
		kws, err := ingest.LoadKeywords(o.keywordsFile)
		if err != nil {
			return cfg, err
		}
		study.Keywords = append(study.Keywords, kws...)
	}

	study.Subreddits = append(study.Subreddits, splitList(o.subreddits)...)
	study.Keywords = append(study.Keywords, splitList(o.keywords)...)
	if o.limit > 0 {
		study.Limit = o.limit
	}
	if o.pages > 0 {
		study.MaxPages = o.pages
	}
	if o.sort != "" {
		study.Sort = o.sort
	}
	if o.timeFilter != "" {
		study.TimeFilter = o.timeFilter
	}
	if o.comments {
		study.CollectComments = true
	}
	if o.outDir != "" {
		study.Output.Dir = o.outDir
	}
	if o.prefix != "" {
		study.Output.Prefix = o.prefix
	}

	if err := study.Finalize(); err != nil {
		return cfg, err
	}
	cfg.Study = study
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
