package models

// FileEntry is a single immediate child of a directory or key prefix,
// as returned by the /list endpoints. Size is nil for directories.
type FileEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  *int64 `json:"size"`
}

// TreeNode is a FileEntry with children, as returned by the /tree
// endpoints. Children is nil for files and for directories sitting at
// the traversal depth bound; an empty directory within the bound has an
// empty (non-nil) Children slice.
type TreeNode struct {
	Name     string     `json:"name"`
	IsDir    bool       `json:"is_dir"`
	Size     *int64     `json:"size"`
	Children []TreeNode `json:"children,omitempty"`
}
