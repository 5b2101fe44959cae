package account

import "time"

// UserRecord is a registered account.
type UserRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"size:320;uniqueIndex:idx_users_email;not null"`
	Username     string `gorm:"size:32;uniqueIndex:idx_users_username;not null"`
	DisplayName  string `gorm:"size:100;not null"`
	PasswordHash string `gorm:"size:100;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName defines the table name for the user model.
func (UserRecord) TableName() string {
	return "users"
}
