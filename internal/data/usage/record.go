package usage

import "time"

// UsageRecord is one accepted AI gateway request. Rows are append-only.
type UsageRecord struct {
	ID             uint      `gorm:"primaryKey"`
	OwnerID        uint      `gorm:"not null;index:idx_usage_owner_created,priority:1"`
	RequestType    string    `gorm:"size:64;not null"`
	PromptLength   int       `gorm:"not null"`
	ResponseLength int       `gorm:"not null"`
	Model          string    `gorm:"size:128;not null"`
	CreatedAt      time.Time `gorm:"not null;index:idx_usage_owner_created,priority:2"`
}

// TableName defines the table name for the usage model.
func (UsageRecord) TableName() string {
	return "ai_usage"
}
