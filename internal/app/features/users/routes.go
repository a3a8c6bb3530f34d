// internal/app/features/users/routes.go
package users

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the user management API endpoints.
//
// When mounted at /users:
//   - POST   /users                               - Create user
//   - GET    /users                               - List users (skip/limit)
//   - GET    /users/{id}                          - Get user by ID
//   - GET    /users/by-email/{email}              - Get user by email
//   - GET    /users/by-username/{username}        - Get user by username
//   - PUT    /users/{id}                          - Partial update
//   - DELETE /users/{id}                          - Delete user
//   - GET    /users/count/total                   - Total user count
//   - GET    /users/analytics/statistics          - Aggregate statistics
//   - GET    /users/analytics/activity-status     - Group by active status
//   - GET    /users/analytics/recent-users        - Recently created users
//   - GET    /users/analytics/growth-trend        - Monthly growth trend
//   - GET    /users/search/advanced               - Faceted search
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)

	r.Get("/count/total", h.CountTotal)

	r.Get("/by-email/{email}", h.GetByEmail)
	r.Get("/by-username/{username}", h.GetByUsername)

	r.Route("/analytics", func(ar chi.Router) {
		ar.Get("/statistics", h.Statistics)
		ar.Get("/activity-status", h.ByActivityStatus)
		ar.Get("/recent-users", h.RecentUsers)
		ar.Get("/growth-trend", h.GrowthTrend)
	})

	r.Get("/search/advanced", h.SearchAdvanced)

	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}
