package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	CMD.SetOut(&out)
	CMD.SetErr(&out)
	CMD.SetArgs(args)
	err := CMD.Execute()

	// flag values stick between executions
	force = false
	return out.String(), err
}

func TestStoreCommands(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "videos.json")
	src := filepath.Join(dir, "import.yaml")

	require.NoError(t, os.WriteFile(src, []byte(`
videos:
- id: v-001
  title: First
  created_at: "2024-01-01T00:00:00.000Z"
  duration: 300
  tags: [intro]
- id: v-002
  title: Second
  duration: 60
`), 0o644))

	_, err := run(t, "init", "--data", data)
	require.NoError(t, err)

	out, err := run(t, "import", "--data", data, "-f", src)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 videos")

	_, err = run(t, "import", "--data", data, "-f", src)
	assert.ErrorContains(t, err, "--force")

	out, err = run(t, "ls", "--data", data)
	require.NoError(t, err)
	assert.Equal(t, "v-001\tFirst\t[intro]\nv-002\tSecond\t[]\n", out)

	out, err = run(t, "get", "--data", data, "v-002")
	require.NoError(t, err)
	assert.Contains(t, out, "title: Second")

	_, err = run(t, "del", "--data", data, "v-001")
	require.NoError(t, err)

	_, err = run(t, "del", "--data", data, "v-001")
	assert.ErrorContains(t, err, "not found")

	exported := filepath.Join(dir, "export.json")
	_, err = run(t, "export", "--data", data, "-o", exported)
	require.NoError(t, err)
	raw, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id": "v-002"`)
	assert.NotContains(t, string(raw), `"id": "v-001"`)

	_, err = run(t, "init", "--data", data)
	assert.ErrorContains(t, err, "--force")

	_, err = run(t, "init", "--data", data, "--force")
	require.NoError(t, err)
	out, err = run(t, "ls", "--data", data)
	require.NoError(t, err)
	assert.Empty(t, out)
}
