package dto

import "time"

type ToolListDTO struct {
	ID          uint   `json:"id"`
	Number      string `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PhotoKey    string `json:"photo_key"`

	OwnerID   *uint  `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	Location  string `json:"location"`
	StoredAt  string `json:"stored_at"`

	ChecklistCount int        `json:"checklist_count"`
	OpenIssueCount int        `json:"open_issue_count"`
	LastTransferAt *time.Time `json:"last_transfer_at"`
}
