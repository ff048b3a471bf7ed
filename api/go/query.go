package videolib

import (
	"context"
	"iter"

	"github.com/aep/videolib/api"
)

const pageSize = 100

// All yields every video matching params, fetching one page at a time.
// Limit and Offset in params are ignored.
func (c *Client) All(ctx context.Context, params *api.ListParams, reqEditors ...RequestEditorFn) iter.Seq2[*api.Video, error] {
	var p api.ListParams
	if params != nil {
		p = *params
	}

	return func(yield func(*api.Video, error) bool) {
		limit := pageSize
		offset := 0
		p.Limit = &limit

		for {
			p.Offset = &offset

			page, err := c.ListVideos(ctx, &p, reqEditors...)
			if err != nil {
				yield(nil, err)
				return
			}

			for i := range page.Videos {
				if !yield(&page.Videos[i], nil) {
					return
				}
			}

			offset += len(page.Videos)
			if len(page.Videos) == 0 || offset >= page.Total {
				return
			}
		}
	}
}
