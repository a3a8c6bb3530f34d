// Package files provides the file-browsing backends: a rooted local
// filesystem browser and an S3 bucket browser. Both expose the same
// three read-only operations (list, download, bounded-depth tree) so
// the HTTP layer can serve either interchangeably.
package files

import (
	"context"
	"errors"

	"github.com/dalemusser/strataview/internal/domain/models"
)

// ErrNotFound is returned when a path, key, or bucket does not exist,
// and when a path tries to escape the local root. Handlers translate it
// to 404.
var ErrNotFound = errors.New("file or directory not found")

// Browser is a read-only view over one storage backend.
//
// Paths use forward slashes relative to the backend root ("" is the
// root itself). Listing an empty directory or prefix returns an empty
// slice, not an error.
type Browser interface {
	// List returns the immediate children of a directory or key prefix.
	List(ctx context.Context, path string) ([]models.FileEntry, error)

	// Download returns the full contents of a file or object.
	Download(ctx context.Context, path string) ([]byte, error)

	// Tree returns the directory forest under path, recursing at most
	// maxDepth levels. maxDepth <= 0 yields an empty forest.
	Tree(ctx context.Context, path string, maxDepth int) ([]models.TreeNode, error)
}

// buildTree materializes a bounded-depth tree over any Browser's List
// primitive. Directories at the depth bound keep IsDir=true but carry
// nil children; join composes a child path from the parent path and
// entry name (filesystem and prefix joining differ).
func buildTree(ctx context.Context, b Browser, path string, maxDepth int, join func(parent, name string) string) ([]models.TreeNode, error) {
	if maxDepth <= 0 {
		return []models.TreeNode{}, nil
	}

	entries, err := b.List(ctx, path)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.TreeNode, 0, len(entries))
	for _, e := range entries {
		node := models.TreeNode{
			Name:  e.Name,
			IsDir: e.IsDir,
			Size:  e.Size,
		}
		if e.IsDir && maxDepth > 1 {
			children, err := buildTree(ctx, b, join(path, e.Name), maxDepth-1, join)
			if err != nil {
				return nil, err
			}
			node.Children = children
			if node.Children == nil {
				node.Children = []models.TreeNode{}
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}
