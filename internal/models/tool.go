package models

import "time"

type Tool struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	CompanyID uint    `gorm:"index;not null" json:"company_id"`
	Company   Company `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	// Display key chosen by the company. Usually numeric ("1", "2", "10")
	// but free text is allowed; list views sort it numerically when possible.
	Number string `gorm:"size:50;not null" json:"number"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	PhotoKey    string `gorm:"size:255" json:"photo_key"`

	// Cache of the ledger head for this tool. The custody_events row with
	// the highest (created_at, id) is the source of truth; every write path
	// that appends an event updates this column in the same transaction.
	CurrentOwnerID *uint `gorm:"index" json:"current_owner_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
