package query

import (
	"cmp"
	"slices"
	"strings"

	"github.com/aep/videolib/api"
)

func Stats(all []api.Video) api.Stats {
	stats := api.Stats{Total: len(all)}
	if len(all) == 0 {
		return stats
	}

	var duration float64
	for _, v := range all {
		stats.TotalViews += v.Views
		duration += v.Duration
	}
	stats.AverageDuration = duration / float64(len(all))
	return stats
}

// Tags counts tags after lower-casing and trimming them, most used first.
func Tags(all []api.Video) []api.TagCount {
	counts := make(map[string]int)
	for _, v := range all {
		for _, tag := range v.Tags {
			counts[strings.ToLower(strings.TrimSpace(tag))]++
		}
	}

	out := make([]api.TagCount, 0, len(counts))
	for tag, count := range counts {
		out = append(out, api.TagCount{Tag: tag, Count: count})
	}

	slices.SortFunc(out, func(a, b api.TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	return out
}
