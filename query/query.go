// Package query implements the listing pipeline for video records:
// filter, stable sort and paginate over the full record set.
package query

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/aep/videolib/api"
)

type Field string

const (
	FieldCreatedAt Field = "created_at"
	FieldTitle     Field = "title"
	FieldViews     Field = "views"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Spec is a validated listing request. Zero DateFrom/DateTo mean unbounded.
type Spec struct {
	Sort     Field
	Order    Order
	Search   string
	Tags     string
	DateFrom time.Time
	DateTo   time.Time
	Limit    int
	Offset   int
}

func DefaultSpec() Spec {
	return Spec{
		Sort:  FieldCreatedAt,
		Order: Desc,
		Limit: DefaultLimit,
	}
}

// Query filters, sorts and paginates all. It does not modify all.
func Query(all []api.Video, spec Spec) api.VideoList {
	limit := spec.Limit
	if limit < 1 {
		limit = DefaultLimit
	}
	offset := max(spec.Offset, 0)

	filtered := make([]api.Video, 0, len(all))
	filterTags := splitTags(spec.Tags)
	search := strings.ToLower(spec.Search)

	for _, v := range all {
		if search != "" && !strings.Contains(strings.ToLower(v.Title), search) {
			continue
		}
		if filterTags != nil && !matchTags(v.Tags, filterTags) {
			continue
		}
		if !inRange(v.CreatedAt, spec.DateFrom, spec.DateTo) {
			continue
		}
		filtered = append(filtered, v)
	}

	byField := comparator(spec.Sort)
	if spec.Order == Asc {
		slices.SortStableFunc(filtered, byField)
	} else {
		slices.SortStableFunc(filtered, func(a, b api.Video) int { return byField(b, a) })
	}

	page := []api.Video{}
	if offset < len(filtered) {
		end := min(offset+limit, len(filtered))
		page = filtered[offset:end]
	}

	return api.VideoList{
		Videos: page,
		Total:  len(filtered),
		Page:   offset/limit + 1,
		Limit:  limit,
	}
}

// splitTags returns nil when no tag filter is set. An empty element
// (e.g. "a,") is kept and matches any tag.
func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return parts
}

func matchTags(tags []string, filter []string) bool {
	for _, tag := range tags {
		tag = strings.ToLower(tag)
		for _, f := range filter {
			if strings.Contains(tag, f) {
				return true
			}
		}
	}
	return false
}

func inRange(createdAt string, from, to time.Time) bool {
	if from.IsZero() && to.IsZero() {
		return true
	}
	t, ok := parseTimestamp(createdAt)
	if !ok {
		return false
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func comparator(field Field) func(a, b api.Video) int {
	switch field {
	case FieldTitle:
		return func(a, b api.Video) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case FieldViews:
		return func(a, b api.Video) int {
			return cmp.Compare(a.Views, b.Views)
		}
	default:
		return func(a, b api.Video) int {
			return cmp.Compare(epochNanos(a.CreatedAt), epochNanos(b.CreatedAt))
		}
	}
}
