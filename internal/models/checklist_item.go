package models

import "time"

type ChecklistItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ToolID    uint `gorm:"index;not null" json:"tool_id"`
	Tool      Tool `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CompanyID uint `gorm:"index;not null" json:"company_id"`

	Name     string `gorm:"size:100;not null" json:"name"`
	Required bool   `gorm:"default:false" json:"required"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
