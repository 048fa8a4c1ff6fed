package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/reddit-collector/internal/domain"
)

// LoadTargets reads a subreddit,min_score CSV. Rows with an invalid
// subreddit name are skipped rather than failing the load.
func LoadTargets(path string) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigError{Fields: []string{path}, Message: err.Error()}
	}
	defer f.Close()

	// Wrap in BOM stripper
	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var targets []domain.Target
	line := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		line++
		if line == 1 {
			continue
		}

		sub := strings.TrimPrefix(strings.TrimSpace(record[0]), "r/")
		if !domain.ValidSubreddit(sub) {
			continue
		}

		score := 0
		if len(record) > 1 {
			score, _ = strconv.Atoi(strings.TrimSpace(record[1]))
		}

		targets = append(targets, domain.Target{
			Subreddit: sub,
			MinScore:  score,
		})
	}
	return targets, nil
}

// LoadKeywords reads the first column of a keyword CSV, skipping the header.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigError{Fields: []string{path}, Message: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1

	var kws []string
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if line > 0 && len(rec) > 0 {
			if kw := strings.TrimSpace(rec[0]); kw != "" {
				kws = append(kws, kw)
			}
		}
		line++
	}
	return kws, nil
}

// LoadPosts reads back a posts CSV written by the storage package.
func LoadPosts(path string) ([]domain.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	header, err := r.Read()
	if err != nil {
		return nil, &domain.IOError{Path: path, Op: "read header", Err: err}
	}
	if !slices.Equal(header, domain.PostHeader) {
		return nil, &domain.IOError{Path: path, Op: "read header", Err: fmt.Errorf("unexpected header %v", header)}
	}

	var posts []domain.Post
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return posts, &domain.IOError{Path: path, Op: "read", Err: err}
		}
		posts = append(posts, postFromRow(rec))
	}
	return posts, nil
}

func postFromRow(rec []string) domain.Post {
	score, _ := strconv.Atoi(rec[6])
	ratio, _ := strconv.ParseFloat(rec[7], 64)
	comments, _ := strconv.Atoi(rec[8])
	isSelf, _ := strconv.ParseBool(rec[12])
	created, _ := time.Parse(time.RFC3339, rec[5])
	return domain.Post{
		Subreddit:     rec[0],
		SearchKeyword: rec[1],
		ID:            rec[2],
		Title:         rec[3],
		Author:        rec[4],
		CreatedUTC:    created,
		Score:         score,
		UpvoteRatio:   ratio,
		CommentCount:  comments,
		URL:           rec[9],
		Selftext:      rec[10],
		LinkFlairText: rec[11],
		IsSelf:        isSelf,
		Permalink:     rec[13],
	}
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
