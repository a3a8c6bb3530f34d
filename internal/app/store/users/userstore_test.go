package userstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/strataview/internal/domain/models"
	"github.com/dalemusser/strataview/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func testUser(username, email string) models.User {
	return models.User{
		Username:     username,
		Email:        email,
		FullName:     "Test User",
		IsActive:     true,
		PasswordHash: "$2a$12$not.a.real.hash.but.fine.for.store.tests",
	}
}

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testUser("alice", "Alice@Example.COM"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID.IsZero() {
		t.Error("Create() did not assign an ID")
	}
	if created.Email != "alice@example.com" {
		t.Errorf("Create() email = %q, want lowercased %q", created.Email, "alice@example.com")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() after create error = %v", err)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("GetByID() = %q/%q, want alice/alice@example.com", got.Username, got.Email)
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, testUser("alice", "alice@example.com")); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := store.Create(ctx, testUser("bob", "alice@example.com"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() with taken email error = %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_Create_DuplicateUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, testUser("alice", "alice@example.com")); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := store.Create(ctx, testUser("alice", "other@example.com"))
	if !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("Create() with taken username error = %v, want ErrDuplicateUsername", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testUser("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetByEmail(ctx, "ALICE@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() returned wrong user: %s", got.ID.Hex())
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID() missing error = %v, want mongo.ErrNoDocuments", err)
	}
	if _, err := store.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByEmail() missing error = %v, want mongo.ErrNoDocuments", err)
	}
	if _, err := store.GetByUsername(ctx, "nobody"); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByUsername() missing error = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_List_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names := []string{"user_a", "user_b", "user_c", "user_d", "user_e"}
	for _, name := range names {
		if _, err := store.Create(ctx, testUser(name, name+"@example.com")); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}

	page, err := store.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("List(skip=1, limit=2) returned %d users, want 2", len(page))
	}
	if page[0].Username != "user_b" || page[1].Username != "user_c" {
		t.Errorf("List() page = %q, %q; want user_b, user_c", page[0].Username, page[1].Username)
	}

	all, err := store.List(ctx, 0, 100)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != len(names) {
		t.Errorf("List() returned %d users, want %d", len(all), len(names))
	}
}

func TestStore_Update_Partial(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testUser("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Mongo stores timestamps at millisecond precision; make sure the
	// update lands measurably later than the create.
	time.Sleep(5 * time.Millisecond)

	newName := "Alice Smith"
	inactive := false
	if err := store.Update(ctx, created.ID, UpdateInput{
		FullName: &newName,
		IsActive: &inactive,
	}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.FullName != newName {
		t.Errorf("full_name = %q, want %q", got.FullName, newName)
	}
	if got.IsActive {
		t.Error("is_active was not updated to false")
	}
	// Untouched fields survive
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("untouched fields changed: %q/%q", got.Username, got.Email)
	}
	if !got.UpdatedAt.After(created.UpdatedAt.Truncate(time.Millisecond)) {
		t.Error("updated_at did not advance")
	}
	if !got.CreatedAt.Equal(created.CreatedAt.Truncate(time.Millisecond)) {
		t.Error("created_at changed on update")
	}
}

func TestStore_Update_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	name := "Nobody"
	err := store.Update(ctx, primitive.NewObjectID(), UpdateInput{FullName: &name})
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("Update() missing user error = %v, want mongo.ErrNoDocuments", err)
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testUser("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("Delete() deleted = %d, want 1", deleted)
	}

	if _, err := store.GetByID(ctx, created.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("GetByID() after delete error = %v, want mongo.ErrNoDocuments", err)
	}

	deleted, err = store.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
	if deleted != 0 {
		t.Errorf("second Delete() deleted = %d, want 0", deleted)
	}
}

func TestStore_CountAndExists(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testUser("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	inactive := testUser("bob", "bob@example.com")
	inactive.IsActive = false
	if _, err := store.Create(ctx, inactive); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	total, err := store.Count(ctx, bson.M{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 2 {
		t.Errorf("Count(all) = %d, want 2", total)
	}

	active, err := store.Count(ctx, bson.M{"is_active": true})
	if err != nil {
		t.Fatalf("Count(filter) error = %v", err)
	}
	if active != 1 {
		t.Errorf("Count(active) = %d, want 1", active)
	}

	exists, err := store.Exists(ctx, created.ID)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false for existing user")
	}

	exists, err = store.Exists(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true for missing user")
	}
}

func TestStore_TakenChecks(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, testUser("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	taken, err := store.EmailTaken(ctx, "ALICE@example.com", primitive.NilObjectID)
	if err != nil {
		t.Fatalf("EmailTaken() error = %v", err)
	}
	if !taken {
		t.Error("EmailTaken() = false for existing email")
	}

	// The owner is excluded, so the email reads as free for them.
	taken, err = store.EmailTaken(ctx, "alice@example.com", created.ID)
	if err != nil {
		t.Fatalf("EmailTaken(exclude) error = %v", err)
	}
	if taken {
		t.Error("EmailTaken() = true when excluding the owning user")
	}

	taken, err = store.UsernameTaken(ctx, "alice", primitive.NilObjectID)
	if err != nil {
		t.Fatalf("UsernameTaken() error = %v", err)
	}
	if !taken {
		t.Error("UsernameTaken() = false for existing username")
	}

	taken, err = store.UsernameTaken(ctx, "nobody", primitive.NilObjectID)
	if err != nil {
		t.Fatalf("UsernameTaken() error = %v", err)
	}
	if taken {
		t.Error("UsernameTaken() = true for free username")
	}
}
