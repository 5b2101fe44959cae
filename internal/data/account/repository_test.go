package account

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"

	"folio/app/internal/data/database"
	domainaccount "folio/app/internal/domain/account"
	platformlog "folio/app/internal/platform/log"
)

func TestCreateNormalisesAndLooksUp(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	user := &domainaccount.User{
		Email:        "  Ada@Example.COM ",
		Username:     "Ada",
		DisplayName:  " Ada Lovelace ",
		PasswordHash: "$2a$04$hash",
	}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if user.ID == 0 || user.CreatedAt.IsZero() {
		t.Fatalf("expected ID and CreatedAt to be set, got %+v", user)
	}

	byEmail, err := repo.GetByEmail(ctx, "ADA@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Fatalf("expected lookup by email to find the user, got %+v", byEmail)
	}
	if byEmail.Email != "ada@example.com" || byEmail.Username != "ada" || byEmail.DisplayName != "Ada Lovelace" {
		t.Fatalf("expected normalised fields, got %+v", byEmail)
	}

	byID, err := repo.GetByID(ctx, user.ID)
	if err != nil || byID == nil || byID.Username != "ada" {
		t.Fatalf("GetByID returned %+v, %v", byID, err)
	}

	byUsername, err := repo.GetByUsername(ctx, "ADA")
	if err != nil || byUsername == nil || byUsername.ID != user.ID {
		t.Fatalf("GetByUsername returned %+v, %v", byUsername, err)
	}
}

func TestLookupsReturnNilWhenMissing(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	if user, err := repo.GetByEmail(ctx, "nobody@example.com"); err != nil || user != nil {
		t.Fatalf("GetByEmail = %+v, %v; want nil, nil", user, err)
	}
	if user, err := repo.GetByID(ctx, 42); err != nil || user != nil {
		t.Fatalf("GetByID = %+v, %v; want nil, nil", user, err)
	}
	if user, err := repo.GetByID(ctx, 0); err != nil || user != nil {
		t.Fatalf("GetByID(0) = %+v, %v; want nil, nil", user, err)
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t)
	ctx := context.Background()

	first := &domainaccount.User{Email: "ada@example.com", Username: "ada", DisplayName: "Ada", PasswordHash: "h"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	cases := []*domainaccount.User{
		{Email: "ADA@example.com", Username: "someone", DisplayName: "x", PasswordHash: "h"},
		{Email: "other@example.com", Username: "Ada", DisplayName: "x", PasswordHash: "h"},
	}
	for _, dup := range cases {
		if err := repo.Create(ctx, dup); !eris.Is(err, domainaccount.ErrAccountExists) {
			t.Fatalf("expected ErrAccountExists for %s/%s, got %v", dup.Email, dup.Username, err)
		}
	}
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.Open(database.Options{Path: filepath.Join(t.TempDir(), "accounts.db")})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := db.AutoMigrate(&UserRecord{}); err != nil {
		t.Fatalf("migrating users: %v", err)
	}

	repo, err := NewRepository(db, platformlog.Discard())
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	return repo
}
