package custody

import (
	"context"
	"time"

	"github.com/fieldserve/tool-custody/internal/models"
)

// OpenIssue is an unresolved inspection report joined with the context the
// warning screen needs.
type OpenIssue struct {
	ReportID          uint         `json:"report_id"`
	ToolID            uint         `json:"tool_id"`
	ToolNumber        string       `json:"tool_number"`
	ChecklistItemID   uint         `json:"checklist_item_id"`
	ChecklistItemName string       `json:"checklist_item_name"`
	Status            ReportStatus `json:"status"`
	Comment           string       `json:"comment"`
	ReportedBy        string       `json:"reported_by"`
	ReportedAt        time.Time    `json:"reported_at"`
}

// ReportInput is one defect mark attached to a tool in a transfer request.
type ReportInput struct {
	ChecklistItemID uint         `json:"checklist_item_id"`
	Status          ReportStatus `json:"status"`
	Comment         string       `json:"comment"`
}

// Batch is a validated transfer ready to commit: one ledger append, one
// owner-cache update and zero or more report inserts per tool, all inside
// one transaction.
type Batch struct {
	CompanyID uint
	ActorID   uint

	ToolIDs    []uint
	ToUserID   *uint
	ToUserName string

	Location string
	StoredAt StoredAt
	Notes    string

	// Reports keyed by tool id; each entry becomes an InspectionReport row
	// tied to that tool's new custody event.
	Reports map[uint][]ReportInput
}

type Repository interface {
	// -------- Tools --------
	ToolsByIDs(
		ctx context.Context,
		companyID uint,
		toolIDs []uint,
	) ([]models.Tool, error)

	ToolsOwnedBy(
		ctx context.Context,
		companyID uint,
		userID uint,
	) ([]models.Tool, error)

	// -------- Users --------
	UserInCompany(
		ctx context.Context,
		companyID uint,
		userID uint,
	) (*models.User, error)

	// -------- Ledger --------
	LatestEvent(
		ctx context.Context,
		companyID uint,
		toolID uint,
	) (*models.CustodyEvent, error)

	LatestEvents(
		ctx context.Context,
		companyID uint,
		toolIDs []uint,
	) (map[uint]models.CustodyEvent, error)

	History(
		ctx context.Context,
		companyID uint,
		toolID uint,
	) ([]models.CustodyEvent, error)

	// -------- Checklist catalog --------
	ChecklistItemsFor(
		ctx context.Context,
		companyID uint,
		toolID uint,
	) ([]models.ChecklistItem, error)

	ChecklistCounts(
		ctx context.Context,
		companyID uint,
		toolIDs []uint,
	) (map[uint]int, error)

	// -------- Inspection reports --------
	OpenIssues(
		ctx context.Context,
		companyID uint,
		toolIDs []uint,
	) ([]OpenIssue, error)

	// -------- Commit --------
	CommitBatch(
		ctx context.Context,
		batch Batch,
	) ([]uint, error)
}
