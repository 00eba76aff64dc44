package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/testutil"
)

func TestFind(t *testing.T) {
	root := testutil.WriteFiles(t, map[string]string{
		"b.hcl":             "",
		"a.hcl":             "",
		"notes.txt":         "",
		"nested/deep/c.yml": "",
		"nested/d.yaml":     "",
	})
	p := func(rel string) string { return filepath.Join(root, rel) }

	t.Run("directory is searched recursively", func(t *testing.T) {
		files, err := Find([]string{root}, ".hcl", ".yaml", ".yml")
		require.NoError(t, err)
		assert.Equal(t, []string{p("a.hcl"), p("b.hcl"), p("nested/d.yaml"), p("nested/deep/c.yml")}, files)
	})

	t.Run("glob pattern", func(t *testing.T) {
		files, err := Find([]string{filepath.Join(root, "**", "*.y*ml")}, ".yaml", ".yml")
		require.NoError(t, err)
		assert.Equal(t, []string{p("nested/d.yaml"), p("nested/deep/c.yml")}, files)
	})

	t.Run("single file, duplicates and missing paths", func(t *testing.T) {
		files, err := Find([]string{p("b.hcl"), root, p("missing")}, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{p("b.hcl"), p("a.hcl")}, files)
	})

	t.Run("file with another extension is ignored", func(t *testing.T) {
		files, err := Find([]string{p("notes.txt")}, ".hcl")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("no extensions panics", func(t *testing.T) {
		assert.Panics(t, func() { _, _ = Find([]string{root}) })
	})
}
