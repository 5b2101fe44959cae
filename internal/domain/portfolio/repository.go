package portfolio

import "context"

// Repository defines persistence operations supported by the portfolio domain.
// Lookups return nil without error when nothing matches. Create and Update report
// unique-index collisions on (owner, slug) as ErrSlugTaken.
type Repository interface {
	SlugChecker
	Create(ctx context.Context, p *Portfolio) error
	Update(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, ownerID, id uint) (bool, error)
	GetByID(ctx context.Context, ownerID, id uint) (*Portfolio, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]Portfolio, error)
	GetPublished(ctx context.Context, username, slug string) (*Portfolio, error)
	LoadProfile(ctx context.Context, portfolioID uint) (*Profile, error)
	ReplaceProfile(ctx context.Context, portfolioID uint, profile Profile) error
}
