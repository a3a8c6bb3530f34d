// internal/app/features/browse/routes.go
package browse

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the file browsing endpoints for one backend.
//
// When mounted at /local or /aws:
//   - GET {base}/list?path=                - List one directory level
//   - GET {base}/download?path=            - Download file contents
//   - GET {base}/tree?path=&max_depth=     - Recursive directory tree
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/list", h.List)
	r.Get("/download", h.Download)
	r.Get("/tree", h.Tree)

	return r
}
