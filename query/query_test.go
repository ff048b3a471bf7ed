package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/aep/videolib/api"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoVideos() []api.Video {
	return []api.Video{
		{Id: "v-001", Title: "Intro Tutorial", Views: 10, Duration: 120, Tags: []string{"beginner"}, CreatedAt: "2024-01-10T10:00:00.000Z"},
		{Id: "v-002", Title: "Advanced Guide", Views: 500, Duration: 600, Tags: []string{"advanced"}, CreatedAt: "2024-02-10T10:00:00.000Z"},
	}
}

func library() []api.Video {
	return []api.Video{
		{Id: "v-001", Title: "Go Basics", Views: 30, Tags: []string{"Go", "beginner"}, CreatedAt: "2024-03-01T08:00:00.000Z"},
		{Id: "v-002", Title: "art of testing", Views: 10, Tags: []string{"Testing"}, CreatedAt: "2024-01-15T12:00:00.000Z"},
		{Id: "v-003", Title: "Smart Pointers", Views: 30, Tags: []string{"smart", "cpp"}, CreatedAt: "2024-02-20T09:30:00.000Z"},
		{Id: "v-004", Title: "Zen of Python", Views: 5, Tags: nil, CreatedAt: "2024-03-01T08:00:00.000Z"},
		{Id: "v-005", Title: "Baking Bread", Views: 30, Tags: []string{"Cooking"}, CreatedAt: "2023-12-31T23:59:59.000Z"},
	}
}

func ids(list api.VideoList) []string {
	out := []string{}
	for _, v := range list.Videos {
		out = append(out, v.Id)
	}
	return out
}

func spec(mod func(*Spec)) Spec {
	s := DefaultSpec()
	if mod != nil {
		mod(&s)
	}
	return s
}

func TestQuery_SearchTutorial(t *testing.T) {
	res := Query(twoVideos(), spec(func(s *Spec) { s.Search = "tutorial" }))

	assert.Equal(t, 1, res.Total)
	assert.Equal(t, []string{"v-001"}, ids(res))
}

func TestQuery_ViewsAscFirstPage(t *testing.T) {
	res := Query(twoVideos(), spec(func(s *Spec) {
		s.Sort = FieldViews
		s.Order = Asc
		s.Limit = 1
	}))

	require.Len(t, res.Videos, 1)
	assert.Equal(t, "Intro Tutorial", res.Videos[0].Title)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, 1, res.Limit)
}

func TestQuery_DefaultSortIsNewestFirst(t *testing.T) {
	res := Query(library(), DefaultSpec())

	// v-001 and v-004 share a timestamp and keep their input order
	assert.Equal(t, []string{"v-001", "v-004", "v-003", "v-002", "v-005"}, ids(res))
}

func TestQuery_TotalIndependentOfPagination(t *testing.T) {
	for _, limit := range []int{1, 2, 3, 100} {
		for _, offset := range []int{0, 1, 4, 10} {
			res := Query(library(), spec(func(s *Spec) {
				s.Tags = "g"
				s.Limit = limit
				s.Offset = offset
			}))
			assert.Equal(t, 3, res.Total, "limit=%d offset=%d", limit, offset)
		}
	}
}

func TestQuery_OffsetPastEnd(t *testing.T) {
	res := Query(library(), spec(func(s *Spec) { s.Offset = 5 }))

	assert.NotNil(t, res.Videos)
	assert.Empty(t, res.Videos)
	assert.Equal(t, 5, res.Total)

	res = Query(library(), spec(func(s *Spec) { s.Offset = 500 }))
	assert.Empty(t, res.Videos)
	assert.Equal(t, 5, res.Total)
}

func TestQuery_PageNumber(t *testing.T) {
	cases := []struct{ offset, limit, page int }{
		{0, 20, 1},
		{20, 20, 2},
		{40, 20, 3},
		{2, 2, 2},
		{3, 2, 2},
	}
	for _, c := range cases {
		res := Query(library(), spec(func(s *Spec) {
			s.Offset = c.offset
			s.Limit = c.limit
		}))
		assert.Equal(t, c.page, res.Page, "offset=%d limit=%d", c.offset, c.limit)
	}
}

func TestQuery_AscDescReverseWithStableTies(t *testing.T) {
	views := func(o Order) []string {
		return ids(Query(library(), spec(func(s *Spec) {
			s.Sort = FieldViews
			s.Order = o
		})))
	}

	// 30 views: v-001, v-003, v-005 retain input order in both directions
	assert.Equal(t, []string{"v-004", "v-002", "v-001", "v-003", "v-005"}, views(Asc))
	assert.Equal(t, []string{"v-001", "v-003", "v-005", "v-002", "v-004"}, views(Desc))
}

func TestQuery_TitleIsCaseInsensitive(t *testing.T) {
	res := Query(library(), spec(func(s *Spec) {
		s.Sort = FieldTitle
		s.Order = Asc
	}))

	assert.Equal(t, []string{"v-002", "v-005", "v-001", "v-003", "v-004"}, ids(res))
}

func TestQuery_CreatedAtComparesInstants(t *testing.T) {
	videos := []api.Video{
		{Id: "a", CreatedAt: "2024-01-01T12:00:00+02:00"},
		{Id: "b", CreatedAt: "2024-01-01T11:00:00Z"},
	}

	// a is 10:00Z, earlier than b despite sorting later as a string
	res := Query(videos, spec(func(s *Spec) { s.Order = Asc }))
	assert.Equal(t, []string{"a", "b"}, ids(res))
}

func TestQuery_TagsSubstringAnyOf(t *testing.T) {
	res := Query(library(), spec(func(s *Spec) {
		s.Tags = "art"
		s.Sort = FieldTitle
		s.Order = Asc
	}))
	assert.Equal(t, []string{"v-003"}, ids(res), "art matches smart")

	res = Query(library(), spec(func(s *Spec) {
		s.Tags = " GO , cooking"
		s.Sort = FieldTitle
		s.Order = Asc
	}))
	assert.Equal(t, []string{"v-005", "v-001"}, ids(res))
}

func TestQuery_TitleFilterIsNotAppliedToTags(t *testing.T) {
	res := Query(library(), spec(func(s *Spec) { s.Search = "cooking" }))
	assert.Zero(t, res.Total)
}

func TestQuery_TagsTrailingCommaMatchesAnyTagged(t *testing.T) {
	res := Query(library(), spec(func(s *Spec) { s.Tags = "nomatch," }))
	assert.Equal(t, 4, res.Total, "only the untagged video is excluded")
}

func TestQuery_DateRange(t *testing.T) {
	res := Query(library(), spec(func(s *Spec) {
		s.DateFrom = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		s.DateTo = time.Date(2024, 2, 20, 9, 30, 0, 0, time.UTC)
		s.Order = Asc
	}))

	assert.Equal(t, []string{"v-002", "v-003"}, ids(res), "bounds are inclusive")

	res = Query(library(), spec(func(s *Spec) {
		s.DateFrom = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	}))
	assert.Equal(t, []string{"v-001", "v-004"}, ids(res))
}

func TestQuery_DateRangeExcludesUnparseable(t *testing.T) {
	videos := []api.Video{{Id: "bad", CreatedAt: "yesterday"}, {Id: "good", CreatedAt: "2024-05-05T00:00:00Z"}}

	res := Query(videos, spec(func(s *Spec) { s.DateTo = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }))
	assert.Equal(t, []string{"good"}, ids(res))

	res = Query(videos, DefaultSpec())
	assert.Equal(t, []string{"good", "bad"}, ids(res), "unparseable sorts oldest")
}

func TestQuery_DoesNotMutateInput(t *testing.T) {
	all := library()
	before := library()

	Query(all, spec(func(s *Spec) {
		s.Sort = FieldTitle
		s.Order = Asc
		s.Limit = 2
	}))

	if diff := cmp.Diff(before, all); diff != "" {
		t.Fatalf("input modified (-want +got):\n%s", diff)
	}
}

func TestQuery_Idempotent(t *testing.T) {
	all := library()
	s := spec(func(s *Spec) {
		s.Sort = FieldViews
		s.Limit = 2
		s.Offset = 2
	})

	first := Query(all, s)
	second := Query(all, s)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("results differ (-first +second):\n%s", diff)
	}
}

func TestQuery_InvalidLimitFallsBackToDefault(t *testing.T) {
	var many []api.Video
	for i := range 30 {
		many = append(many, api.Video{Id: fmt.Sprintf("v-%03d", i+1), CreatedAt: "2024-01-01T00:00:00Z"})
	}

	res := Query(many, Spec{Limit: 0})
	assert.Len(t, res.Videos, DefaultLimit)
	assert.Equal(t, DefaultLimit, res.Limit)
}
