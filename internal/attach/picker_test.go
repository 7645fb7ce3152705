package attach

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestFSPickerClassifies(t *testing.T) {
	dir := t.TempDir()
	img := writeFile(t, dir, "shot.PNG")
	doc := writeFile(t, dir, "notes.md")

	sel, err := FSPicker{BaseDir: dir}.Select(context.Background(), []string{"shot.PNG", doc, " ", img})
	require.NoError(t, err)
	require.Equal(t, []string{img}, sel.Images)
	require.Equal(t, []string{doc}, sel.Files)
	require.Equal(t, 2, sel.Len())
}

func TestFSPickerMissingFile(t *testing.T) {
	_, err := FSPicker{BaseDir: t.TempDir()}.Select(context.Background(), []string{"gone.txt"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFSPickerRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	_, err := FSPicker{BaseDir: dir}.Select(context.Background(), []string{"sub"})
	require.ErrorIs(t, err, ErrIsDirectory)
}

func TestFSPickerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FSPicker{}.Select(ctx, []string{"a"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDisabled(t *testing.T) {
	require.False(t, Disabled(MaxImagesPerMessage-1, 0))
	require.True(t, Disabled(MaxImagesPerMessage, 0))
	require.True(t, Disabled(3, 3))
	require.False(t, Disabled(2, 3))
}

func TestMerge(t *testing.T) {
	images, files, dropped := Merge(
		[]string{"a.png"},
		[]string{"x.go"},
		Selection{Images: []string{"a.png", "b.png", "c.png"}, Files: []string{"x.go", "y.go"}},
		2,
	)
	require.Equal(t, []string{"a.png", "b.png"}, images)
	require.Equal(t, []string{"x.go", "y.go"}, files)
	require.Equal(t, 1, dropped)
}
