package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

func TestConnector_Ping(t *testing.T) {
	t.Run("valid directory succeeds", func(t *testing.T) {
		tempDir := t.TempDir()
		c := New(tempDir)
		assert.NoError(t, c.Ping(context.Background()))
	})

	t.Run("non-existent path fails", func(t *testing.T) {
		c := New("/non/existent/path/12345")
		assert.Error(t, c.Ping(context.Background()))
	})

	t.Run("file instead of directory fails", func(t *testing.T) {
		tempDir := t.TempDir()
		filePath := filepath.Join(tempDir, "file.txt")
		require.NoError(t, os.WriteFile(filePath, []byte("x"), 0644))
		c := New(filePath)
		assert.Error(t, c.Ping(context.Background()))
	})
}

func TestConnector_GetDocs(t *testing.T) {
	t.Run("walks visible files", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "file1.txt"), []byte("content 1"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "file2.md"), []byte("# Markdown"), 0644))

		c := New(tempDir)
		docsCh, err := c.GetDocs(context.Background(), domain.TransformedFilter{})
		require.NoError(t, err)

		var paths []string
		for rec := range docsCh {
			paths = append(paths, rec.Doc["filename"].(string))
		}
		assert.ElementsMatch(t, []string{"file1.txt", "file2.md"}, paths)
	})

	t.Run("skips hidden files", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "visible.txt"), []byte("v"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, ".hidden.txt"), []byte("h"), 0644))

		c := New(tempDir)
		docsCh, err := c.GetDocs(context.Background(), domain.TransformedFilter{})
		require.NoError(t, err)

		var count int
		for range docsCh {
			count++
		}
		assert.Equal(t, 1, count)
	})

	t.Run("non-existent directory errors", func(t *testing.T) {
		c := New("/non/existent/path")
		_, err := c.GetDocs(context.Background(), domain.TransformedFilter{})
		assert.Error(t, err)
	})

	t.Run("nested directories are walked", func(t *testing.T) {
		tempDir := t.TempDir()
		nested := filepath.Join(tempDir, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "root.txt"), []byte("r"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(nested, "deep.txt"), []byte("d"), 0644))

		c := New(tempDir)
		docsCh, err := c.GetDocs(context.Background(), domain.TransformedFilter{})
		require.NoError(t, err)

		var count int
		for range docsCh {
			count++
		}
		assert.Equal(t, 2, count)
	})

	t.Run("path_prefix rule filters results", func(t *testing.T) {
		tempDir := t.TempDir()
		keep := filepath.Join(tempDir, "keep")
		skip := filepath.Join(tempDir, "skip")
		require.NoError(t, os.MkdirAll(keep, 0755))
		require.NoError(t, os.MkdirAll(skip, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(keep, "a.txt"), []byte("a"), 0644))
		require.NoError(t, os.WriteFile(filepath.Join(skip, "b.txt"), []byte("b"), 0644))

		c := New(tempDir)
		filter := domain.TransformedFilter{Rules: []map[string]any{{"path_prefix": keep}}}
		docsCh, err := c.GetDocs(context.Background(), filter)
		require.NoError(t, err)

		var paths []string
		for rec := range docsCh {
			paths = append(paths, rec.Doc["path"].(string))
		}
		assert.Equal(t, []string{filepath.Join(keep, "a.txt")}, paths)
	})
}

func TestDetectMIMEType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"file", "text/plain"},
		{"doc.md", "text/markdown"},
		{"code.go", "text/x-go"},
		{"script.py", "text/x-python"},
		{"data.json", "application/json"},
		{"file.zzzzunknown", "application/octet-stream"},
		{"FILE.MD", "text/markdown"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMIMEType(tt.filename))
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, isHidden(".hidden"))
	assert.False(t, isHidden("visible"))
	assert.False(t, isHidden("."))
	assert.False(t, isHidden(".."))
}
