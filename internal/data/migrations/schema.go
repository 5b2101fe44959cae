package migrations

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	accountdata "folio/app/internal/data/account"
	portfoliodata "folio/app/internal/data/portfolio"
	usagedata "folio/app/internal/data/usage"
)

// Models returns every record type of the application schema in dependency order.
func Models() []any {
	models := []any{&accountdata.UserRecord{}}
	models = append(models, portfoliodata.Models()...)
	return append(models, &usagedata.UsageRecord{})
}

// Migrate applies the application schema using Gorm's AutoMigrate and logs progress.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "schema.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("schema migration failed")
		}
		return eris.Wrap(err, "auto migrating schema")
	}

	if logger != nil {
		logger.WithFields(logFields).WithField("tables", len(Models())).Info("schema migration complete")
	}

	return nil
}
