package models

import "time"

// InspectionReport records a defect observed during a transfer. It is
// permanently tied to the custody event that produced it; there is no
// resolved flag, so a report stays open until its checklist item is removed.
type InspectionReport struct {
	ID              uint `gorm:"primaryKey" json:"id"`
	CustodyEventID  uint `gorm:"index;not null" json:"custody_event_id"`
	ChecklistItemID uint `gorm:"index;not null" json:"checklist_item_id"`
	CompanyID       uint `gorm:"index;not null" json:"company_id"`

	Status  string `gorm:"size:30;not null" json:"status"`
	Comment string `gorm:"size:500" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
}
