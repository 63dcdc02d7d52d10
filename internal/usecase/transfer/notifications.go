package transfer

import (
	"context"
	"sort"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/notify"
)

// ======================================================
// INCOMING PROJECTION
// ======================================================

// ListIncoming builds a user's incoming list: every tool whose latest
// ledger event names them as recipient, annotated with the tool's open
// issue count. Served from the cache when warm, recomputed from the ledger
// otherwise.
type ListIncoming struct {
	repo  domain.Repository
	cache *notify.Cache
}

func NewListIncoming(repo domain.Repository, cache *notify.Cache) *ListIncoming {
	return &ListIncoming{repo: repo, cache: cache}
}

func (uc *ListIncoming) Execute(
	ctx context.Context,
	companyID uint,
	userID uint,
) ([]notify.Notification, error) {

	if cached, ok := uc.cache.Get(ctx, companyID, userID); ok {
		return cached, nil
	}

	// The owner cache is written in the same transaction as the ledger
	// append, so it selects exactly the tools whose head event points at
	// this user.
	tools, err := uc.repo.ToolsOwnedBy(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	if len(tools) == 0 {
		return []notify.Notification{}, nil
	}

	toolIDs := make([]uint, 0, len(tools))
	for _, tool := range tools {
		toolIDs = append(toolIDs, tool.ID)
	}

	heads, err := uc.repo.LatestEvents(ctx, companyID, toolIDs)
	if err != nil {
		return nil, err
	}

	issues, err := uc.repo.OpenIssues(ctx, companyID, toolIDs)
	if err != nil {
		return nil, err
	}
	issueCounts := make(map[uint]int, len(issues))
	for _, issue := range issues {
		issueCounts[issue.ToolID]++
	}

	items := make([]notify.Notification, 0, len(tools))
	for _, tool := range tools {
		head, ok := heads[tool.ID]
		if !ok || head.ToUserID == nil || *head.ToUserID != userID {
			continue
		}

		count := issueCounts[tool.ID]
		items = append(items, notify.Notification{
			ToolID:       tool.ID,
			ToolNumber:   tool.Number,
			ToolName:     tool.Name,
			EventID:      head.ID,
			FromUserName: domain.FromDisplayName(&head),
			Location:     head.Location,
			StoredAt:     head.StoredAt,
			Notes:        head.Notes,
			ReceivedAt:   head.CreatedAt,
			IssueCount:   count,
			HasIssues:    count > 0,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ReceivedAt.After(items[j].ReceivedAt)
	})

	uc.cache.Set(ctx, companyID, userID, items)
	return items, nil
}
