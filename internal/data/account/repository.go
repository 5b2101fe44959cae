package account

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"folio/app/internal/data/database"
	domainaccount "folio/app/internal/domain/account"
)

// Repository persists accounts using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed account repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ domainaccount.Repository = (*Repository)(nil)

// Create inserts user and sets its ID. Duplicate emails or usernames yield ErrAccountExists.
func (r *Repository) Create(ctx context.Context, user *domainaccount.User) error {
	if user == nil {
		return eris.New("user is nil")
	}

	record := &UserRecord{
		Email:        strings.ToLower(strings.TrimSpace(user.Email)),
		Username:     strings.ToLower(strings.TrimSpace(user.Username)),
		DisplayName:  strings.TrimSpace(user.DisplayName),
		PasswordHash: user.PasswordHash,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return eris.Wrapf(domainaccount.ErrAccountExists, "email %s or username %s", record.Email, record.Username)
		}
		r.logError(logrus.Fields{"username": record.Username}, err, "creating user")
		return eris.Wrapf(err, "creating user: %s", record.Username)
	}

	user.ID = record.ID
	user.CreatedAt = record.CreatedAt
	return nil
}

// GetByEmail returns the user registered with email or nil.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*domainaccount.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	return r.first(ctx, logrus.Fields{"email": normalized}, "email = ?", normalized)
}

// GetByID returns the user with id or nil.
func (r *Repository) GetByID(ctx context.Context, id uint) (*domainaccount.User, error) {
	if id == 0 {
		return nil, nil
	}
	return r.first(ctx, logrus.Fields{"user_id": id}, "id = ?", id)
}

// GetByUsername returns the user with username or nil.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*domainaccount.User, error) {
	normalized := strings.ToLower(strings.TrimSpace(username))
	return r.first(ctx, logrus.Fields{"username": normalized}, "username = ?", normalized)
}

func (r *Repository) first(ctx context.Context, fields logrus.Fields, query string, arg any) (*domainaccount.User, error) {
	var record UserRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&record).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logError(fields, err, "fetching user")
		return nil, eris.Wrap(err, "fetching user")
	}

	return toDomainUser(&record), nil
}

func (r *Repository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

func toDomainUser(record *UserRecord) *domainaccount.User {
	return &domainaccount.User{
		ID:           record.ID,
		Email:        record.Email,
		Username:     record.Username,
		DisplayName:  record.DisplayName,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}
}
