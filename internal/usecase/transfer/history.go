package transfer

import (
	"context"
	"time"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/models"
)

// ======================================================
// TOOL HISTORY
// ======================================================

// CurrentCustody is the derived view of the ledger head for one tool. A
// tool with no events is a defined empty state: unassigned, location
// unknown.
type CurrentCustody struct {
	Assigned  bool       `json:"assigned"`
	OwnerID   *uint      `json:"owner_id"`
	OwnerName string     `json:"owner_name"`
	Location  string     `json:"location"`
	StoredAt  string     `json:"stored_at"`
	Since     *time.Time `json:"since"`
}

type ToolHistoryResult struct {
	Tool    models.Tool           `json:"tool"`
	Current CurrentCustody        `json:"current"`
	Events  []models.CustodyEvent `json:"events"`
	Issues  []domain.OpenIssue    `json:"open_issues"`
}

type ToolHistory struct {
	repo domain.Repository
}

func NewToolHistory(repo domain.Repository) *ToolHistory {
	return &ToolHistory{repo: repo}
}

func (uc *ToolHistory) Execute(
	ctx context.Context,
	companyID uint,
	toolID uint,
) (*ToolHistoryResult, error) {

	tools, err := uc.repo.ToolsByIDs(ctx, companyID, []uint{toolID})
	if err != nil {
		return nil, err
	}
	if len(tools) == 0 {
		return nil, httperr.ErrBusiness("tool_not_in_company")
	}

	events, err := uc.repo.History(ctx, companyID, toolID)
	if err != nil {
		return nil, err
	}

	issues, err := uc.repo.OpenIssues(ctx, companyID, []uint{toolID})
	if err != nil {
		return nil, err
	}

	return &ToolHistoryResult{
		Tool:    tools[0],
		Current: CurrentFromHead(headOf(events)),
		Events:  events,
		Issues:  issues,
	}, nil
}

// headOf expects events ordered newest first, as History returns them.
func headOf(events []models.CustodyEvent) *models.CustodyEvent {
	if len(events) == 0 {
		return nil
	}
	return &events[0]
}

// CurrentFromHead derives the custody view from a ledger head event; nil
// means the tool has no history yet.
func CurrentFromHead(head *models.CustodyEvent) CurrentCustody {
	if head == nil {
		return CurrentCustody{}
	}

	since := head.CreatedAt
	return CurrentCustody{
		Assigned:  head.ToUserID != nil,
		OwnerID:   head.ToUserID,
		OwnerName: domain.ToDisplayName(head),
		Location:  head.Location,
		StoredAt:  head.StoredAt,
		Since:     &since,
	}
}
