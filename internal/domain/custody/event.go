package custody

import "github.com/fieldserve/tool-custody/internal/models"

// DeletedUserName is shown for custody parties whose account no longer
// exists and whose name snapshot is blank (pre-snapshot legacy rows).
const DeletedUserName = "Deleted user"

// ===============================
// Domain helpers over ledger rows
// ===============================

func FromDisplayName(ev *models.CustodyEvent) string {
	if ev == nil || ev.FromUserID == nil {
		return ""
	}
	if ev.FromUserName != "" {
		return ev.FromUserName
	}
	return DeletedUserName
}

func ToDisplayName(ev *models.CustodyEvent) string {
	if ev == nil || ev.ToUserID == nil {
		return ""
	}
	if ev.ToUserName != "" {
		return ev.ToUserName
	}
	return DeletedUserName
}

// LatestByTool folds a ledger slice into the head event per tool. Input
// must be ordered ascending by (created_at, id); the last row wins, which
// matches the ledger's (timestamp desc, id desc) tie-break.
func LatestByTool(events []models.CustodyEvent) map[uint]models.CustodyEvent {
	heads := make(map[uint]models.CustodyEvent, len(events))
	for _, ev := range events {
		heads[ev.ToolID] = ev
	}
	return heads
}
