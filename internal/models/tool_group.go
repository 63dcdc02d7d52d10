package models

import "time"

type ToolGroup struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	CompanyID uint   `gorm:"index;not null" json:"company_id"`
	Name      string `gorm:"size:100;not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ToolGroupMember struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ToolGroupID uint      `gorm:"index:idx_group_member,unique;not null" json:"tool_group_id"`
	ToolGroup   ToolGroup `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	ToolID      uint      `gorm:"index:idx_group_member,unique;not null" json:"tool_id"`
	Tool        Tool      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
