package transfer

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fieldserve/tool-custody/internal/audit"
	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/models"
	"github.com/fieldserve/tool-custody/internal/notify"
)

// ======================================================
// INPUT
// ======================================================

type RequestTransferInput struct {
	CompanyID uint
	ActorID   uint

	ToolIDs []uint

	// Recipient resolution: an explicit user id, the actor themself, or
	// neither (return to pool, only valid when the actor owns every tool).
	ToUserID     *uint
	ClaimForSelf bool

	Location string
	StoredAt string
	Notes    string

	// Defect marks keyed by tool id; persisted with that tool's new event.
	Reports map[uint][]domain.ReportInput

	AcknowledgeIssues bool
}

type RequestTransferResult struct {
	State    domain.State       `json:"state"`
	Issues   []domain.OpenIssue `json:"issues,omitempty"`
	EventIDs []uint             `json:"event_ids,omitempty"`
}

// ======================================================
// USE CASE
// ======================================================

type RequestTransfer struct {
	repo  domain.Repository
	audit *audit.Dispatcher
	cache *notify.Cache
}

func NewRequestTransfer(
	repo domain.Repository,
	audit *audit.Dispatcher,
	cache *notify.Cache,
) *RequestTransfer {
	return &RequestTransfer{
		repo:  repo,
		audit: audit,
		cache: cache,
	}
}

// ======================================================
// EXECUTE
// ======================================================

func (uc *RequestTransfer) Execute(
	ctx context.Context,
	in RequestTransferInput,
) (*RequestTransferResult, error) {

	// --------------------------------------------------
	// 1. Field validation (nothing written on failure)
	// --------------------------------------------------
	toolIDs := dedupe(in.ToolIDs)
	if len(toolIDs) == 0 {
		return nil, httperr.ErrBusiness("no_tools_selected")
	}
	if strings.TrimSpace(in.Location) == "" {
		return nil, httperr.ErrBusiness("missing_location")
	}

	storedAt := domain.StoredAt(in.StoredAt)
	if !storedAt.Valid() {
		return nil, httperr.ErrBusiness("invalid_stored_at")
	}

	for toolID, marks := range in.Reports {
		if !containsID(toolIDs, toolID) {
			return nil, httperr.ErrBusiness("report_for_unselected_tool")
		}
		for _, mark := range marks {
			if !mark.Status.Valid() {
				return nil, httperr.ErrBusiness("invalid_report_status")
			}
		}
	}

	// --------------------------------------------------
	// 2. Tenant scope: every tool must belong to the caller's company
	// --------------------------------------------------
	tools, err := uc.repo.ToolsByIDs(ctx, in.CompanyID, toolIDs)
	if err != nil {
		return nil, err
	}
	if len(tools) != len(toolIDs) {
		return nil, httperr.ErrBusiness("tool_not_in_company")
	}

	// --------------------------------------------------
	// 3. Recipient resolution (to_user must never be ambiguous)
	// --------------------------------------------------
	toUser, err := uc.resolveRecipient(ctx, in, tools)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 4. Open-issue gate (advisory, not a hard block)
	// --------------------------------------------------
	issues, err := uc.repo.OpenIssues(ctx, in.CompanyID, toolIDs)
	if err != nil {
		return nil, err
	}
	if len(issues) > 0 && !in.AcknowledgeIssues {
		return &RequestTransferResult{
			State:  domain.StateWarned,
			Issues: issues,
		}, nil
	}

	// --------------------------------------------------
	// 5. Commit the whole batch in one transaction
	// --------------------------------------------------
	notes := in.Notes
	if notes == "" && len(issues) > 0 && in.AcknowledgeIssues &&
		toUser != nil && toUser.ID == in.ActorID {
		notes = "Open issues acknowledged at pickup"
	}

	batch := domain.Batch{
		CompanyID: in.CompanyID,
		ActorID:   in.ActorID,
		ToolIDs:   toolIDs,
		Location:  strings.TrimSpace(in.Location),
		StoredAt:  storedAt,
		Notes:     notes,
		Reports:   in.Reports,
	}
	if toUser != nil {
		batch.ToUserID = &toUser.ID
		batch.ToUserName = toUser.Name
	}

	eventIDs, err := uc.repo.CommitBatch(ctx, batch)
	if err != nil {
		return nil, err
	}

	// --------------------------------------------------
	// 6. Read-side bookkeeping (never fails the transfer)
	// --------------------------------------------------
	uc.invalidateInboxes(ctx, in, tools, toUser)

	uc.audit.Dispatch(audit.Event{
		CompanyID: in.CompanyID,
		UserID:    &in.ActorID,
		Action:    "transfer_committed",
		Entity:    "custody_event",
		Metadata: map[string]any{
			"tool_ids":  toolIDs,
			"event_ids": eventIDs,
			"location":  batch.Location,
			"stored_at": batch.StoredAt,
		},
	})

	return &RequestTransferResult{
		State:    domain.StateCommitted,
		EventIDs: eventIDs,
	}, nil
}

// --------------------------------------------------
// Recipient rules
// --------------------------------------------------

func (uc *RequestTransfer) resolveRecipient(
	ctx context.Context,
	in RequestTransferInput,
	tools []models.Tool,
) (*models.User, error) {

	switch {
	case in.ToUserID != nil:
		user, err := uc.repo.UserInCompany(ctx, in.CompanyID, *in.ToUserID)
		if err == gorm.ErrRecordNotFound {
			return nil, httperr.ErrBusiness("recipient_not_in_company")
		}
		if err != nil {
			return nil, err
		}
		return user, nil

	case in.ClaimForSelf:
		user, err := uc.repo.UserInCompany(ctx, in.CompanyID, in.ActorID)
		if err != nil {
			return nil, err
		}
		return user, nil
	}

	// No recipient: returning to the pool. Only the current holder may do
	// that, otherwise to_user would be ambiguous.
	for _, tool := range tools {
		if tool.CurrentOwnerID == nil || *tool.CurrentOwnerID != in.ActorID {
			return nil, httperr.ErrBusiness("recipient_required")
		}
	}
	return nil, nil
}

func (uc *RequestTransfer) invalidateInboxes(
	ctx context.Context,
	in RequestTransferInput,
	tools []models.Tool,
	toUser *models.User,
) {
	touched := map[uint]bool{in.ActorID: true}
	if toUser != nil {
		touched[toUser.ID] = true
	}
	for _, tool := range tools {
		if tool.CurrentOwnerID != nil {
			touched[*tool.CurrentOwnerID] = true
		}
	}

	userIDs := make([]uint, 0, len(touched))
	for id := range touched {
		userIDs = append(userIDs, id)
	}
	uc.cache.Invalidate(ctx, in.CompanyID, userIDs...)
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
