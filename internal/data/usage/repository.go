package usage

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	domainai "folio/app/internal/domain/ai"
)

// Repository stores usage records using a Gorm database connection.
type Repository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed usage repository.
func NewRepository(db *gorm.DB, logger *logrus.Logger) (*Repository, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Repository{db: db, logger: logger}, nil
}

var _ domainai.UsageStore = (*Repository)(nil)

// CountRecentRequests counts callerID's records created at or after since.
func (r *Repository) CountRecentRequests(ctx context.Context, callerID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&UsageRecord{}).
		Where("owner_id = ? AND created_at >= ?", callerID, since.UTC()).
		Count(&count).Error
	if err != nil {
		r.logError(logrus.Fields{"caller_id": callerID}, err, "counting usage records")
		return 0, eris.Wrapf(err, "counting usage records for caller %d", callerID)
	}

	return count, nil
}

// RecordUsage appends entry.
func (r *Repository) RecordUsage(ctx context.Context, entry domainai.UsageEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	record := &UsageRecord{
		OwnerID:        entry.CallerID,
		RequestType:    entry.RequestType,
		PromptLength:   entry.PromptLength,
		ResponseLength: entry.ResponseLength,
		Model:          entry.Model,
		CreatedAt:      createdAt.UTC(),
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		r.logError(logrus.Fields{"caller_id": entry.CallerID, "request_type": entry.RequestType}, err, "recording usage")
		return eris.Wrapf(err, "recording usage for caller %d", entry.CallerID)
	}

	return nil
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
