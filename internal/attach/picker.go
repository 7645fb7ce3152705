// Package attach resolves user-selected paths into image and file
// attachments for a chat draft.
package attach

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxImagesPerMessage caps how many images a single draft may carry.
const MaxImagesPerMessage = 20

var (
	// ErrNotFound is returned when a selected path does not exist.
	ErrNotFound = errors.New("attachment not found")
	// ErrIsDirectory is returned when a selected path is a directory.
	ErrIsDirectory = errors.New("attachment is a directory")
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// Selection is the result of a pick, split by attachment kind.
type Selection struct {
	Images []string
	Files  []string
}

// Len returns the total number of selected attachments.
func (s Selection) Len() int { return len(s.Images) + len(s.Files) }

// Picker selects attachments. The caller writes the result into the draft.
type Picker interface {
	Select(ctx context.Context, paths []string) (Selection, error)
}

// FSPicker picks attachments from the local filesystem.
type FSPicker struct {
	// BaseDir resolves relative paths. Empty means the working directory.
	BaseDir string
}

// Select validates each path and classifies it as an image or a file.
// Paths are returned absolute and de-duplicated, in input order.
func (p FSPicker) Select(ctx context.Context, paths []string) (Selection, error) {
	var sel Selection
	seen := make(map[string]struct{}, len(paths))
	for _, raw := range paths {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		path, err := p.resolve(raw)
		if err != nil {
			return Selection{}, err
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}

		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return Selection{}, fmt.Errorf("%w: %s", ErrNotFound, raw)
			}
			return Selection{}, fmt.Errorf("failed to stat %s: %w", raw, err)
		}
		if info.IsDir() {
			return Selection{}, fmt.Errorf("%w: %s", ErrIsDirectory, raw)
		}
		if IsImage(path) {
			sel.Images = append(sel.Images, path)
		} else {
			sel.Files = append(sel.Files, path)
		}
	}
	return sel, nil
}

func (p FSPicker) resolve(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	if !filepath.IsAbs(path) && p.BaseDir != "" {
		path = filepath.Join(p.BaseDir, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return abs, nil
}

// IsImage reports whether path has an image extension.
func IsImage(path string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Disabled reports whether the picker should be unavailable because the
// draft already holds max images. A non-positive max means
// MaxImagesPerMessage.
func Disabled(imageCount, max int) bool {
	if max <= 0 {
		max = MaxImagesPerMessage
	}
	return imageCount >= max
}

// Merge appends sel to the existing attachments, skipping duplicates and
// dropping images beyond max. It returns how many images were dropped.
func Merge(images, files []string, sel Selection, max int) ([]string, []string, int) {
	if max <= 0 {
		max = MaxImagesPerMessage
	}
	outImages := appendUnique(images, sel.Images)
	dropped := 0
	if len(outImages) > max {
		dropped = len(outImages) - max
		outImages = outImages[:max]
	}
	return outImages, appendUnique(files, sel.Files), dropped
}

func appendUnique(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
