// internal/app/features/users/handler.go
package users

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dalemusser/strataview/internal/app/system/jsonutil"
	"github.com/dalemusser/strataview/internal/app/system/normalize"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Query parameter bounds for list and analytics endpoints.
const (
	defaultListLimit  = 100
	maxListLimit      = 100
	defaultStatusLim  = 10
	defaultRecentDays = 30
	maxRecentDays     = 365
	defaultMonths     = 12
	maxMonths         = 60
)

// Handler handles user management API requests.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// writeServiceErr maps service/store errors to HTTP responses.
func (h *Handler) writeServiceErr(w http.ResponseWriter, err error) {
	switch {
	case IsValidationErr(err) || IsDuplicateErr(err):
		jsonutil.BadRequest(w, err.Error())
	case errors.Is(err, mongo.ErrNoDocuments):
		jsonutil.NotFound(w, "user not found")
	default:
		h.logger.Error("user request failed", zap.Error(err))
		jsonutil.InternalError(w, "internal server error")
	}
}

// Create handles POST /users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	user, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.Created(w, user)
}

// List handles GET /users?skip=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	skip := parseInt64(r.URL.Query().Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}
	limit := clampInt64(parseInt64(r.URL.Query().Get("limit"), defaultListLimit), 1, maxListLimit)

	users, err := h.svc.List(r.Context(), skip, limit)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, users)
}

// Get handles GET /users/{id}. An invalid ObjectID reads as "no such user".
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "user not found")
		return
	}

	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, user)
}

// GetByEmail handles GET /users/by-email/{email}.
func (h *Handler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, user)
}

// GetByUsername handles GET /users/by-username/{username}.
func (h *Handler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.GetByUsername(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, user)
}

// Update handles PUT /users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "user not found")
		return
	}

	var req UpdateRequest
	if err := jsonutil.Decode(r, &req); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	user, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, user)
}

// Delete handles DELETE /users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "user not found")
		return
	}

	deleted, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	if deleted == 0 {
		jsonutil.NotFound(w, "user not found")
		return
	}
	jsonutil.NoContent(w)
}

// CountTotal handles GET /users/count/total.
func (h *Handler) CountTotal(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.Count(r.Context())
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, CountResponse{TotalUsers: total})
}

// Statistics handles GET /users/analytics/statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Store().Statistics(r.Context())
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, stats)
}

// ByActivityStatus handles GET /users/analytics/activity-status?limit=.
func (h *Handler) ByActivityStatus(w http.ResponseWriter, r *http.Request) {
	limit := clampInt64(parseInt64(r.URL.Query().Get("limit"), defaultStatusLim), 1, maxListLimit)

	groups, err := h.svc.Store().ByActivityStatus(r.Context(), limit)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, groups)
}

// RecentUsers handles GET /users/analytics/recent-users?days=.
func (h *Handler) RecentUsers(w http.ResponseWriter, r *http.Request) {
	days := int(clampInt64(parseInt64(r.URL.Query().Get("days"), defaultRecentDays), 1, maxRecentDays))

	recent, err := h.svc.Store().RecentUsers(r.Context(), days)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, recent)
}

// GrowthTrend handles GET /users/analytics/growth-trend?months=.
func (h *Handler) GrowthTrend(w http.ResponseWriter, r *http.Request) {
	months := int(clampInt64(parseInt64(r.URL.Query().Get("months"), defaultMonths), 1, maxMonths))

	trend, err := h.svc.Store().GrowthTrend(r.Context(), months)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, trend)
}

// searchSortFields whitelists sortable fields for advanced search.
var searchSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"username":   true,
	"email":      true,
}

// SearchAdvanced handles GET /users/search/advanced.
//
// Query parameters: search_term, is_active, is_superuser, sort_by,
// sort_order (asc|desc), limit, skip.
func (h *Handler) SearchAdvanced(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	term := normalize.QueryParam(q.Get("search_term"))

	filters := bson.M{}
	if v := q.Get("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonutil.BadRequest(w, "is_active must be a boolean")
			return
		}
		filters["is_active"] = b
	}
	if v := q.Get("is_superuser"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			jsonutil.BadRequest(w, "is_superuser must be a boolean")
			return
		}
		filters["is_superuser"] = b
	}

	sortBy := q.Get("sort_by")
	if !searchSortFields[sortBy] {
		sortBy = "created_at"
	}
	sortOrder := -1
	if q.Get("sort_order") == "asc" {
		sortOrder = 1
	}

	limit := clampInt64(parseInt64(q.Get("limit"), 20), 1, maxListLimit)
	skip := parseInt64(q.Get("skip"), 0)
	if skip < 0 {
		skip = 0
	}

	page, err := h.svc.Store().SearchAdvanced(r.Context(), term, filters, sortBy, sortOrder, limit, skip)
	if err != nil {
		h.writeServiceErr(w, err)
		return
	}
	jsonutil.OK(w, page)
}

func parseInt64(s string, def int64) int64 {
	if s == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func clampInt64(n, lo, hi int64) int64 {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
