// internal/app/store/ledger/ledgerstore.go
package ledgerstore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Entry records one failed API request for debugging integration issues.
type Entry struct {
	ID primitive.ObjectID `bson:"_id"`

	// Request identification
	RequestID       string `bson:"request_id"`                  // Generated UUID
	ClientRequestID string `bson:"client_request_id,omitempty"` // From X-Request-ID header

	// HTTP request metadata
	Method   string            `bson:"method"`
	Path     string            `bson:"path"`
	Query    string            `bson:"query,omitempty"`
	Headers  map[string]string `bson:"headers,omitempty"` // Redacted sensitive headers
	RemoteIP string            `bson:"remote_ip"`

	// Request body handling
	RequestBodySize    int64  `bson:"request_body_size"`
	RequestBodyPreview string `bson:"request_body_preview,omitempty"` // Truncated to config limit
	RequestContentType string `bson:"request_content_type,omitempty"`

	// Response metadata
	StatusCode   int   `bson:"status_code"`
	ResponseSize int64 `bson:"response_size"`

	DurationMs float64 `bson:"duration_ms"`

	StartedAt   time.Time `bson:"started_at"`
	CompletedAt time.Time `bson:"completed_at"`
}

// Store provides ledger entry persistence.
type Store struct {
	c *mongo.Collection
}

// New creates a new ledger store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("ledger_entries")}
}

// Create inserts a new ledger entry.
func (s *Store) Create(ctx context.Context, entry Entry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// GetByRequestID retrieves a ledger entry by request ID.
func (s *Store) GetByRequestID(ctx context.Context, requestID string) (*Entry, error) {
	var entry Entry
	if err := s.c.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListRecent returns the most recent entries, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int64) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteOlderThan removes entries started before the cutoff and returns
// the number deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"started_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
