// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/strataview/internal/app/system/normalize"
	"github.com/dalemusser/strataview/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store provides access to the users collection.
type Store struct {
	c *mongo.Collection
}

// New creates a user store backed by the given database.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when a user with the username already exists.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
)

// Create inserts a new user after normalizing fields and setting timestamps.
// The caller is responsible for hashing the password (see features/users).
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Username = normalize.Username(u.Username)
	u.FullName = normalize.Name(u.FullName)

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, s.dupErr(ctx, u.Email, u.Username)
		}
		return models.User{}, err
	}
	return u, nil
}

// dupErr distinguishes which unique index a duplicate-key error hit.
// The driver error does not always carry the index name across vendors
// (DocumentDB in particular), so probe the collection instead.
func (s *Store) dupErr(ctx context.Context, email, username string) error {
	n, err := s.c.CountDocuments(ctx, bson.M{"email": email})
	if err == nil && n > 0 {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by email (case-insensitive via normalization).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks up a user by exact username.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"username": normalize.Username(username)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users ordered by creation time, skipping skip documents
// and returning at most limit.
func (s *Store) List(ctx context.Context, skip, limit int64) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []models.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateInput holds the optional fields for updating a user.
// All fields are pointers - nil means "don't update this field".
type UpdateInput struct {
	Username     *string
	Email        *string
	FullName     *string
	IsActive     *bool
	IsSuperuser  *bool
	PasswordHash *string
}

// Update applies the non-nil fields of input to the user and advances
// updated_at. Returns mongo.ErrNoDocuments if no user matched, and
// ErrDuplicateEmail/ErrDuplicateUsername on unique index conflicts.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, input UpdateInput) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}

	var email, username string
	if input.Username != nil {
		username = normalize.Username(*input.Username)
		set["username"] = username
	}
	if input.Email != nil {
		email = normalize.Email(*input.Email)
		set["email"] = email
	}
	if input.FullName != nil {
		set["full_name"] = normalize.Name(*input.FullName)
	}
	if input.IsActive != nil {
		set["is_active"] = *input.IsActive
	}
	if input.IsSuperuser != nil {
		set["is_superuser"] = *input.IsSuperuser
	}
	if input.PasswordHash != nil {
		set["password_hash"] = *input.PasswordHash
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return s.dupErr(ctx, email, username)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete deletes a user by ID.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Count returns the number of users matching the given filter.
// Pass bson.M{} to count the whole collection.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}

// Exists reports whether a user with the given ID exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EmailTaken reports whether the email is already used by a user other
// than excludeID. Pass primitive.NilObjectID to check against all users.
func (s *Store) EmailTaken(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"email": normalize.Email(email)}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UsernameTaken reports whether the username is already used by a user
// other than excludeID. Pass primitive.NilObjectID to check against all users.
func (s *Store) UsernameTaken(ctx context.Context, username string, excludeID primitive.ObjectID) (bool, error) {
	filter := bson.M{"username": normalize.Username(username)}
	if !excludeID.IsZero() {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	n, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
