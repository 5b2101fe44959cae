package account

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

var (
	// ErrAccountExists means the email or username is already registered.
	ErrAccountExists = eris.New("account already exists")
	// ErrInvalidCredentials is returned for unknown emails and wrong passwords alike.
	ErrInvalidCredentials = eris.New("invalid email or password")
)

// User is a registered portfolio owner.
type User struct {
	ID           uint
	Email        string
	Username     string
	DisplayName  string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID   uint
	Username string
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns the caller stored by WithIdentity. A zero user ID counts as absent.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || identity.UserID == 0 {
		return Identity{}, false
	}
	return identity, true
}

// Repository persists user accounts. Lookups return nil without error when nothing matches.
// Create reports duplicate emails or usernames as ErrAccountExists.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
}
