package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/erazemk/bloodbank/internal/db"
	"github.com/erazemk/bloodbank/internal/model"
)

// mustHospital registers a hospital and returns its ID.
func mustHospital(t *testing.T, database *sql.DB, name string) int64 {
	t.Helper()
	h, err := CreateHospital(context.Background(), database, model.NewHospital{Name: name})
	if err != nil {
		t.Fatalf("CreateHospital(%q): %v", name, err)
	}
	return h.ID
}

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")

	user, err := CreateUser(ctx, database, "testuser", "hash123", model.RoleStaff, &hid)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", user.Username)
	}
	if user.Role != model.RoleStaff {
		t.Errorf("expected role 'staff', got %q", user.Role)
	}
	if user.HospitalID == nil || *user.HospitalID != hid {
		t.Errorf("expected hospital %d, got %v", hid, user.HospitalID)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "testuser" {
		t.Errorf("expected username 'testuser', got %q", got.Username)
	}
}

func TestCreateUserRequiresHospitalForStaff(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, database, "nohosp", "hash", model.RoleManager, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	admin, err := CreateUser(ctx, database, "root", "hash", model.RoleAdmin, nil)
	if err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if admin.HospitalID != nil {
		t.Errorf("expected no hospital for admin, got %v", *admin.HospitalID)
	}
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "dup", "hash", model.RoleAdmin, nil); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	_, err := CreateUser(ctx, database, "dup", "hash", model.RoleAdmin, nil)
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate username, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin, nil)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Username != "alice" {
		t.Errorf("expected 'alice', got %q", user.Username)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hid := mustHospital(t, database, "General")

	CreateUser(ctx, database, "a", "hash", model.RoleStaff, &hid)
	CreateUser(ctx, database, "b", "hash", model.RoleManager, &hid)

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	n, err := CountUsers(ctx, database)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 2 {
		t.Errorf("expected count 2, got %d", n)
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleAdmin, nil)
	DeleteUser(ctx, database, user.ID)

	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}

	gone, err := GetUserByUsername(ctx, database, "deleteme")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if gone != nil {
		t.Error("expected deleted user to be hidden from login lookup")
	}
}

func TestUpdateUserPassword(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleAdmin, nil)
	UpdateUserPassword(ctx, database, user.ID, "newhash")

	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" {
		t.Errorf("expected password hash 'newhash', got %q", got.PasswordHash)
	}
}
