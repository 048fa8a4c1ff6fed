package collector

import (
	"errors"

	"github.com/qepting91/reddit-collector/internal/domain"
	"github.com/tidwall/gjson"
)

// parseComments walks the second listing of a /comments/{id} response.
// "more" stubs are skipped; replies are followed unless TopLevelOnly is set.
func parseComments(body []byte, postID string, opts domain.CommentOptions) ([]domain.Comment, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("invalid comments json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, errors.New("comments response is not a listing pair")
	}

	var out []domain.Comment
	walkComments(root.Get("1.data.children"), postID, opts, &out)
	return out, nil
}

func walkComments(children gjson.Result, postID string, opts domain.CommentOptions, out *[]domain.Comment) bool {
	for _, child := range children.Array() {
		if child.Get("kind").String() != "t1" {
			continue
		}
		d := child.Get("data")
		*out = append(*out, domain.Comment{
			PostID:      postID,
			ID:          d.Get("id").String(),
			Author:      d.Get("author").String(),
			Body:        d.Get("body").String(),
			Score:       int(d.Get("score").Int()),
			CreatedUTC:  domain.FromUnix(d.Get("created_utc").Float()),
			IsSubmitter: d.Get("is_submitter").Bool(),
			Permalink:   domain.Permalink(d.Get("permalink").String()),
		})
		if opts.Limit > 0 && len(*out) >= opts.Limit {
			return false
		}
		if opts.TopLevelOnly {
			continue
		}
		// replies is "" when a comment has none
		if !walkComments(d.Get("replies.data.children"), postID, opts, out) {
			return false
		}
	}
	return true
}
