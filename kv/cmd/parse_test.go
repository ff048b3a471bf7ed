package cmd

import (
	"testing"

	"github.com/aep/videolib/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideos_Document(t *testing.T) {
	videos, err := parseVideos([]byte(`{"videos": [{"id": "v-001", "title": "One", "duration": 10, "views": 3, "tags": ["a"]}]}`))
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "One", videos[0].Title)
	assert.Equal(t, int64(3), videos[0].Views)
}

func TestParseVideos_YAMLList(t *testing.T) {
	videos, err := parseVideos([]byte(`
- id: v-001
  title: One
  created_at: "2024-01-01T00:00:00.000Z"
  duration: 300
- id: v-002
  title: Two
  duration: 12.5
  tags: [x, y]
`))
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, []string{}, videos[0].Tags)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", videos[0].CreatedAt)
	assert.Equal(t, 12.5, videos[1].Duration)
	assert.Equal(t, []string{"x", "y"}, videos[1].Tags)
}

func TestParseVideos_Invalid(t *testing.T) {
	_, err := parseVideos([]byte(`videos: [`))
	assert.Error(t, err)
}

func TestCheckRecords(t *testing.T) {
	ok := api.Video{Id: "v-001", Title: "ok", Duration: 1}

	assert.NoError(t, checkRecords([]api.Video{ok}))
	assert.ErrorContains(t, checkRecords([]api.Video{ok, ok}), "duplicate")
	assert.ErrorContains(t, checkRecords([]api.Video{{Id: "v-001", Title: "  ", Duration: 1}}), "blank")
	assert.ErrorContains(t, checkRecords([]api.Video{{Id: "v-001", Title: "x"}}), "duration")
	assert.ErrorContains(t, checkRecords([]api.Video{{Id: "v-001", Title: "x", Duration: 1, Views: -1}}), "views")
	assert.ErrorContains(t, checkRecords([]api.Video{{Title: "x", Duration: 1}}), "id")
}
