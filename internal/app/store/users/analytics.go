// internal/app/store/users/analytics.go
package userstore

import (
	"context"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Aggregate executes an aggregation pipeline against the users collection
// and returns the raw documents. The pipeline is passed through to the
// server as-is; errors propagate to the caller.
func (s *Store) Aggregate(ctx context.Context, pipeline mongo.Pipeline, allowDiskUse bool) ([]bson.M, error) {
	opts := options.Aggregate()
	if allowDiskUse {
		opts.SetAllowDiskUse(true)
	}
	cur, err := s.c.Aggregate(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := []bson.M{}
	if err := cur.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// AggregateOne executes a pipeline and returns the first result, or nil
// if the pipeline produced no documents.
func (s *Store) AggregateOne(ctx context.Context, pipeline mongo.Pipeline, allowDiskUse bool) (bson.M, error) {
	results, err := s.Aggregate(ctx, pipeline, allowDiskUse)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// AggregateCount appends a $count stage to the pipeline and returns the
// resulting total. A pipeline matching no documents counts as zero.
func (s *Store) AggregateCount(ctx context.Context, pipeline mongo.Pipeline, allowDiskUse bool) (int64, error) {
	counted := append(append(mongo.Pipeline{}, pipeline...), bson.D{{Key: "$count", Value: "total"}})
	result, err := s.AggregateOne(ctx, counted, allowDiskUse)
	if err != nil {
		return 0, err
	}
	if result == nil {
		return 0, nil
	}
	return toInt64(result["total"]), nil
}

// Statistics holds collection-wide user statistics.
type Statistics struct {
	TotalUsers            int64    `json:"total_users"`
	ActiveUsers           int64    `json:"active_users"`
	Superusers            int64    `json:"superusers"`
	UsersByMonth          []bson.M `json:"users_by_month"`
	AverageUsernameLength float64  `json:"average_username_length"`
}

// Statistics computes user statistics in a single $facet pass:
// total/active/superuser counts, signups grouped by month, and the
// average username length (rounded to two decimals).
func (s *Store) Statistics(ctx context.Context) (Statistics, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$facet", Value: bson.M{
			"total_users": bson.A{
				bson.M{"$count": "count"},
			},
			"active_users": bson.A{
				bson.M{"$match": bson.M{"is_active": true}},
				bson.M{"$count": "count"},
			},
			"superusers": bson.A{
				bson.M{"$match": bson.M{"is_superuser": true}},
				bson.M{"$count": "count"},
			},
			"users_by_month": bson.A{
				bson.M{"$group": bson.M{
					"_id": bson.M{
						"year":  bson.M{"$year": "$created_at"},
						"month": bson.M{"$month": "$created_at"},
					},
					"count": bson.M{"$sum": 1},
				}},
				bson.M{"$sort": bson.D{
					{Key: "_id.year", Value: 1},
					{Key: "_id.month", Value: 1},
				}},
			},
			"average_username_length": bson.A{
				bson.M{"$group": bson.M{
					"_id":        nil,
					"avg_length": bson.M{"$avg": bson.M{"$strLenCP": "$username"}},
				}},
			},
		}}},
	}

	result, err := s.AggregateOne(ctx, pipeline, false)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{UsersByMonth: []bson.M{}}
	if result == nil {
		return stats, nil
	}

	stats.TotalUsers = facetCount(result["total_users"])
	stats.ActiveUsers = facetCount(result["active_users"])
	stats.Superusers = facetCount(result["superusers"])
	if months, ok := result["users_by_month"].(bson.A); ok {
		for _, m := range months {
			if doc, ok := m.(bson.M); ok {
				stats.UsersByMonth = append(stats.UsersByMonth, doc)
			}
		}
	}
	if facet, ok := result["average_username_length"].(bson.A); ok && len(facet) > 0 {
		if doc, ok := facet[0].(bson.M); ok {
			stats.AverageUsernameLength = math.Round(toFloat64(doc["avg_length"])*100) / 100
		}
	}
	return stats, nil
}

// ByActivityStatus returns users grouped into active/inactive buckets
// with per-bucket counts, each bucket carrying at most limit users.
func (s *Store) ByActivityStatus(ctx context.Context, limit int64) ([]bson.M, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.M{
			"_id": "$is_active",
			"users": bson.M{"$push": bson.M{
				"id":         "$_id",
				"username":   "$username",
				"email":      "$email",
				"full_name":  "$full_name",
				"created_at": "$created_at",
			}},
			"count": bson.M{"$sum": 1},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"status": bson.M{"$cond": bson.M{
				"if":   "$_id",
				"then": "active",
				"else": "inactive",
			}},
			"count": 1,
			"users": bson.M{"$slice": bson.A{"$users", limit}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}
	return s.Aggregate(ctx, pipeline, false)
}

// RecentUsers returns users created within the last days days, with
// computed fields: days_since_created, has_full_name, and email_domain.
func (s *Store) RecentUsers(ctx context.Context, days int) ([]bson.M, error) {
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -days)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"created_at": bson.M{"$gte": cutoff},
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"days_since_created": bson.M{"$floor": bson.M{
				"$divide": bson.A{
					bson.M{"$subtract": bson.A{now, "$created_at"}},
					1000 * 60 * 60 * 24, // milliseconds in a day
				},
			}},
			"has_full_name": bson.M{"$gt": bson.A{
				bson.M{"$strLenCP": bson.M{"$ifNull": bson.A{"$full_name", ""}}}, 0,
			}},
			"email_domain": bson.M{"$substrCP": bson.A{
				"$email",
				bson.M{"$indexOfCP": bson.A{"$email", "@"}},
				bson.M{"$strLenCP": "$email"},
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"username":           1,
			"email":              1,
			"full_name":          1,
			"is_active":          1,
			"is_superuser":       1,
			"created_at":         1,
			"days_since_created": 1,
			"has_full_name":      1,
			"email_domain":       1,
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}
	return s.Aggregate(ctx, pipeline, false)
}

var monthNames = bson.A{
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 1}}, "then": "January"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 2}}, "then": "February"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 3}}, "then": "March"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 4}}, "then": "April"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 5}}, "then": "May"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 6}}, "then": "June"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 7}}, "then": "July"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 8}}, "then": "August"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 9}}, "then": "September"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 10}}, "then": "October"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 11}}, "then": "November"},
	bson.M{"case": bson.M{"$eq": bson.A{"$_id.month", 12}}, "then": "December"},
}

// GrowthTrend returns month-by-month signup counts for the last months
// months: new users, how many of them are active, and how many are
// superusers, with a human-readable month name.
func (s *Store) GrowthTrend(ctx context.Context, months int) ([]bson.M, error) {
	end := time.Now().UTC()
	start := end.AddDate(0, -months, 0)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"created_at": bson.M{"$gte": start, "$lte": end},
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$created_at"},
				"month": bson.M{"$month": "$created_at"},
			},
			"new_users": bson.M{"$sum": 1},
			"active_users": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$is_active", 1, 0},
			}},
			"superusers": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$is_superuser", 1, 0},
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"_id":          0,
			"year":         "$_id.year",
			"month":        "$_id.month",
			"new_users":    1,
			"active_users": 1,
			"superusers":   1,
			"month_name": bson.M{"$switch": bson.M{
				"branches": monthNames,
				"default":  "Unknown",
			}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "year", Value: 1},
			{Key: "month", Value: 1},
		}}},
	}
	return s.Aggregate(ctx, pipeline, false)
}

// SearchPage holds one page of advanced search results.
type SearchPage struct {
	Data       []bson.M         `json:"data"`
	Total      int64            `json:"total"`
	Facets     []bson.M         `json:"facets"`
	Pagination SearchPagination `json:"pagination"`
}

// SearchPagination describes the window of a SearchPage.
type SearchPagination struct {
	Skip    int64 `json:"skip"`
	Limit   int64 `json:"limit"`
	HasMore bool  `json:"has_more"`
}

// SearchAdvanced runs a case-insensitive substring search across
// username, email, and full_name, merged with any extra equality
// filters, and returns one sorted page plus the total match count and
// an is_active facet breakdown.
func (s *Store) SearchAdvanced(ctx context.Context, term string, filters bson.M, sortBy string, sortOrder int, limit, skip int64) (SearchPage, error) {
	match := bson.M{
		"$or": bson.A{
			bson.M{"username": bson.M{"$regex": term, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": term, "$options": "i"}},
			bson.M{"full_name": bson.M{"$regex": term, "$options": "i"}},
		},
	}
	for k, v := range filters {
		match[k] = v
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$facet", Value: bson.M{
			"data": bson.A{
				bson.M{"$sort": bson.D{{Key: sortBy, Value: sortOrder}}},
				bson.M{"$skip": skip},
				bson.M{"$limit": limit},
				bson.M{"$project": bson.M{
					"username":     1,
					"email":        1,
					"full_name":    1,
					"is_active":    1,
					"is_superuser": 1,
					"created_at":   1,
					"updated_at":   1,
				}},
			},
			"total": bson.A{
				bson.M{"$count": "count"},
			},
			"facets": bson.A{
				bson.M{"$group": bson.M{
					"_id":   "$is_active",
					"count": bson.M{"$sum": 1},
				}},
			},
		}}},
	}

	page := SearchPage{
		Data:   []bson.M{},
		Facets: []bson.M{},
		Pagination: SearchPagination{
			Skip:  skip,
			Limit: limit,
		},
	}

	result, err := s.AggregateOne(ctx, pipeline, false)
	if err != nil {
		return SearchPage{}, err
	}
	if result == nil {
		return page, nil
	}

	if data, ok := result["data"].(bson.A); ok {
		for _, d := range data {
			if doc, ok := d.(bson.M); ok {
				page.Data = append(page.Data, doc)
			}
		}
	}
	if facets, ok := result["facets"].(bson.A); ok {
		for _, f := range facets {
			if doc, ok := f.(bson.M); ok {
				page.Facets = append(page.Facets, doc)
			}
		}
	}
	page.Total = facetCount(result["total"])
	page.Pagination.HasMore = skip+limit < page.Total
	return page, nil
}

// facetCount extracts the count from a single-document $count facet.
func facetCount(v any) int64 {
	arr, ok := v.(bson.A)
	if !ok || len(arr) == 0 {
		return 0
	}
	doc, ok := arr[0].(bson.M)
	if !ok {
		return 0
	}
	return toInt64(doc["count"])
}

// toInt64 converts the numeric types the driver may decode into.
func toInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
