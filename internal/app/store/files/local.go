package files

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalemusser/strataview/internal/domain/models"
)

// Local is a Browser rooted at a directory on the local filesystem.
// Paths resolving outside the root are treated as not found.
type Local struct {
	root string
}

// NewLocal creates a local browser rooted at basePath.
// The root must exist and be a directory.
func NewLocal(basePath string) (*Local, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root %s: %w", basePath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat storage root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage root %s is not a directory", abs)
	}
	return &Local{root: abs}, nil
}

// resolve maps a request path onto the root, rejecting escapes.
func (l *Local) resolve(path string) (string, error) {
	abs := filepath.Join(l.root, filepath.FromSlash(path))
	if abs != l.root && !strings.HasPrefix(abs, l.root+string(filepath.Separator)) {
		return "", ErrNotFound
	}
	return abs, nil
}

// List returns the immediate children of a directory under the root.
func (l *Local) List(ctx context.Context, path string) ([]models.FileEntry, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	entries := make([]models.FileEntry, 0, len(dirents))
	for _, d := range dirents {
		entry := models.FileEntry{
			Name:  d.Name(),
			IsDir: d.IsDir(),
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				size := info.Size()
				entry.Size = &size
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Download reads a file under the root wholesale.
func (l *Local) Download(ctx context.Context, path string) ([]byte, error) {
	abs, err := l.resolve(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	return os.ReadFile(abs)
}

// Tree returns the directory forest under path, bounded by maxDepth.
func (l *Local) Tree(ctx context.Context, path string, maxDepth int) ([]models.TreeNode, error) {
	return buildTree(ctx, l, path, maxDepth, func(parent, name string) string {
		if parent == "" {
			return name
		}
		return parent + "/" + name
	})
}
