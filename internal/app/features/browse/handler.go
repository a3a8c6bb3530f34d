// internal/app/features/browse/handler.go
package browse

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/strataview/internal/app/store/files"
	"github.com/dalemusser/strataview/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

// Tree depth bounds. A request above the cap is clamped rather than
// rejected so a greedy client still gets a bounded response.
const (
	defaultTreeDepth = 5
	maxTreeDepth     = 32
)

// Handler serves the file browsing API for one storage backend.
// The same handler is mounted once per backend (local disk, S3).
type Handler struct {
	browser files.Browser
	backend string // label used in logs: "local" or "aws"
	logger  *zap.Logger
}

// NewHandler creates a browse Handler for the given backend.
func NewHandler(browser files.Browser, backend string, logger *zap.Logger) *Handler {
	return &Handler{browser: browser, backend: backend, logger: logger}
}

// ListResponse is the payload for the list endpoint.
type ListResponse struct {
	Entries any `json:"entries"`
}

// TreeResponse is the payload for the tree endpoint.
type TreeResponse struct {
	Tree any `json:"tree"`
}

func (h *Handler) writeErr(w http.ResponseWriter, path string, err error) {
	if errors.Is(err, files.ErrNotFound) {
		jsonutil.NotFound(w, "path not found")
		return
	}
	h.logger.Error("file browse failed",
		zap.String("backend", h.backend),
		zap.String("path", path),
		zap.Error(err))
	jsonutil.InternalError(w, "storage backend error")
}

// List handles GET /list?path=. An empty path lists the root.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	entries, err := h.browser.List(r.Context(), path)
	if err != nil {
		h.writeErr(w, path, err)
		return
	}
	jsonutil.OK(w, ListResponse{Entries: entries})
}

// Download handles GET /download?path=. The file content is returned as
// raw bytes, not wrapped in JSON.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		jsonutil.BadRequest(w, "path is required")
		return
	}

	data, err := h.browser.Download(r.Context(), path)
	if err != nil {
		h.writeErr(w, path, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// Tree handles GET /tree?path=&max_depth=. An empty path walks from the
// root; max_depth defaults to 5 and is clamped to 1..32.
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	maxDepth := defaultTreeDepth
	if v := r.URL.Query().Get("max_depth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonutil.BadRequest(w, "max_depth must be an integer")
			return
		}
		maxDepth = n
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	if maxDepth > maxTreeDepth {
		maxDepth = maxTreeDepth
	}

	tree, err := h.browser.Tree(r.Context(), path, maxDepth)
	if err != nil {
		h.writeErr(w, path, err)
		return
	}
	jsonutil.OK(w, TreeResponse{Tree: tree})
}
