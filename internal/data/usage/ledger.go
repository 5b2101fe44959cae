package usage

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	domainai "folio/app/internal/domain/ai"
)

// Ledger keeps usage records in SQL and, when a WindowCounter is configured,
// serves recent-request counts from it instead of the database.
type Ledger struct {
	records *Repository
	window  *WindowCounter
	logger  *logrus.Logger
}

// NewLedger combines records with an optional window. A nil window counts from SQL.
func NewLedger(records *Repository, window *WindowCounter, logger *logrus.Logger) (*Ledger, error) {
	if records == nil {
		return nil, eris.New("usage repository is required")
	}

	return &Ledger{records: records, window: window, logger: logger}, nil
}

var _ domainai.UsageStore = (*Ledger)(nil)

// CountRecentRequests counts callerID's accepted requests at or after since.
func (l *Ledger) CountRecentRequests(ctx context.Context, callerID uint, since time.Time) (int64, error) {
	if l.window == nil {
		return l.records.CountRecentRequests(ctx, callerID, since)
	}

	count, err := l.window.Count(ctx, callerID, since)
	if err != nil {
		if l.logger != nil {
			l.logger.WithFields(logrus.Fields{
				"caller_id": callerID,
				"error":     err.Error(),
			}).Warn("window count failed, falling back to database")
		}
		return l.records.CountRecentRequests(ctx, callerID, since)
	}

	return count, nil
}

// RecordUsage stores entry in SQL and then mirrors it into the window.
// A mirror failure is logged but not returned since the SQL row is authoritative.
func (l *Ledger) RecordUsage(ctx context.Context, entry domainai.UsageEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := l.records.RecordUsage(ctx, entry); err != nil {
		return err
	}

	if l.window == nil {
		return nil
	}

	if err := l.window.Add(ctx, entry.CallerID, entry.CreatedAt); err != nil && l.logger != nil {
		l.logger.WithFields(logrus.Fields{
			"caller_id": entry.CallerID,
			"error":     err.Error(),
		}).Warn("mirroring usage to window failed")
	}

	return nil
}
