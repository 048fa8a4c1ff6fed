package collector

import (
	"context"
	"errors"
	"iter"

	"github.com/qepting91/reddit-collector/internal/domain"
)

// ErrConsumed is yielded when a collected sequence is ranged over a second time.
var ErrConsumed = errors.New("collector: sequence already consumed")

// Limit bounds a collection. Zero fields are unbounded; the listing's own
// end still terminates the sequence.
type Limit struct {
	MaxItems int
	MaxPages int
}

// Collect lazily walks a listing page by page. The only state carried from
// one page to the next is the after cursor. The first error is yielded once
// and ends the sequence. The sequence can be ranged over only once.
func Collect(ctx context.Context, c domain.Collector, q domain.Query, limit Limit) iter.Seq2[domain.Post, error] {
	consumed := false
	return func(yield func(domain.Post, error) bool) {
		if consumed {
			yield(domain.Post{}, ErrConsumed)
			return
		}
		consumed = true

		after := ""
		items, pages := 0, 0
		for {
			if limit.MaxPages > 0 && pages >= limit.MaxPages {
				return
			}
			if err := ctx.Err(); err != nil {
				yield(domain.Post{}, err)
				return
			}

			pq := q
			if limit.MaxItems > 0 {
				remaining := limit.MaxItems - items
				if pq.PageSize <= 0 || pq.PageSize > remaining {
					pq.PageSize = remaining
				}
			}

			page, err := c.FetchPage(ctx, pq, after)
			if err != nil {
				yield(domain.Post{}, err)
				return
			}
			pages++

			for _, p := range page.Items {
				if !yield(p, nil) {
					return
				}
				items++
				if limit.MaxItems > 0 && items >= limit.MaxItems {
					return
				}
			}

			if page.After == "" || len(page.Items) == 0 {
				return
			}
			after = page.After
		}
	}
}
