package report

import (
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/reddit-collector/internal/domain"
	"github.com/qepting91/reddit-collector/internal/ingest"
)

const noKeyword = "(listing)"

// Render writes an HTML page charting the collected posts.
func Render(w io.Writer, posts []domain.Post) error {
	// 1. Subreddit share
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Subreddit Dominance"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)
	subCounts := make(map[string]int)
	for _, p := range posts {
		subCounts[p.Subreddit]++
	}
	var pieItems []opts.PieData
	for _, k := range sortedKeys(subCounts) {
		pieItems = append(pieItems, opts.PieData{Name: k, Value: subCounts[k]})
	}
	pie.AddSeries("Posts", pieItems)

	// 2. Posts per search keyword
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Keyword Yield"}))
	kwCounts := make(map[string]int)
	for _, p := range posts {
		kw := p.SearchKeyword
		if kw == "" {
			kw = noKeyword
		}
		kwCounts[kw]++
	}
	barX := sortedKeys(kwCounts)
	var barY []opts.BarData
	for _, k := range barX {
		barY = append(barY, opts.BarData{Value: kwCounts[k]})
	}
	bar.SetXAxis(barX).AddSeries("Posts", barY)

	// 3. Posts per day
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Posting Velocity"}))
	dayCounts := make(map[string]int)
	for _, p := range posts {
		if !p.CreatedUTC.IsZero() {
			dayCounts[p.CreatedUTC.UTC().Format("2006-01-02")]++
		}
	}
	days := sortedKeys(dayCounts)
	var lineY []opts.LineData
	for _, d := range days {
		lineY = append(lineY, opts.LineData{Value: dayCounts[d]})
	}
	line.SetXAxis(days).AddSeries("Posts", lineY)

	page := components.NewPage()
	page.AddCharts(pie, bar, line)
	return page.Render(w)
}

// RenderFile charts the posts CSV at csvPath into htmlPath.
func RenderFile(csvPath, htmlPath string) (err error) {
	posts, err := ingest.LoadPosts(csvPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(htmlPath), 0o755); err != nil {
		return &domain.IOError{Path: htmlPath, Op: "mkdir", Err: err}
	}
	f, err := os.Create(htmlPath)
	if err != nil {
		return &domain.IOError{Path: htmlPath, Op: "create", Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &domain.IOError{Path: htmlPath, Op: "close", Err: cerr}
		}
	}()

	if err := Render(f, posts); err != nil {
		return &domain.IOError{Path: htmlPath, Op: "render", Err: err}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
