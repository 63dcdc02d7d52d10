package models

import "time"

// CustodyEvent is one row of the append-only custody ledger. Rows are never
// updated or deleted; the latest row per tool defines the current owner and
// location.
type CustodyEvent struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ToolID    uint `gorm:"index;not null" json:"tool_id"`
	CompanyID uint `gorm:"index;not null" json:"company_id"`

	// Nil from-user means the tool was unassigned; nil to-user means it was
	// returned to the pool.
	FromUserID *uint `json:"from_user_id"`
	ToUserID   *uint `json:"to_user_id"`

	// Display-name snapshots taken at transfer time so history stays
	// readable after a user account is deleted.
	FromUserName string `gorm:"size:100" json:"from_user_name"`
	ToUserName   string `gorm:"size:100" json:"to_user_name"`

	Location string `gorm:"size:255;not null" json:"location"`
	StoredAt string `gorm:"size:20;not null" json:"stored_at"`
	Notes    string `gorm:"size:500" json:"notes"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
