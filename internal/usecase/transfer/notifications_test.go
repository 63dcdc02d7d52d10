package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/models"
)

func TestListIncomingEmptyForNewUser(t *testing.T) {
	repo := newFakeRepo()
	alice, _, _, _ := seedBasics(repo)
	uc := NewListIncoming(repo, nil)

	items, err := uc.Execute(context.Background(), acmeID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListIncomingBuildsFromLedgerHeads(t *testing.T) {
	repo := newFakeRepo()
	alice, bob, hammer, drill := seedBasics(repo)

	hammer.CurrentOwnerID = &alice.ID
	drill.CurrentOwnerID = &alice.ID
	repo.addTool(hammer)
	repo.addTool(drill)

	older := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)
	repo.heads[hammer.ID] = models.CustodyEvent{
		ID: 31, ToolID: hammer.ID, CompanyID: acmeID,
		FromUserID: &bob.ID, FromUserName: "bob",
		ToUserID: &alice.ID, ToUserName: "alice",
		Location: "truck 2", StoredAt: "on-truck", CreatedAt: older,
	}
	repo.heads[drill.ID] = models.CustodyEvent{
		ID: 32, ToolID: drill.ID, CompanyID: acmeID,
		ToUserID: &alice.ID, ToUserName: "alice",
		Location: "site 9", StoredAt: "on-site", CreatedAt: newer,
	}
	repo.issues = []domain.OpenIssue{{ReportID: 7, ToolID: hammer.ID}}

	items, err := NewListIncoming(repo, nil).Execute(context.Background(), acmeID, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Newest hand-over first.
	assert.Equal(t, drill.ID, items[0].ToolID)
	assert.Equal(t, "site 9", items[0].Location)
	assert.False(t, items[0].HasIssues)

	assert.Equal(t, hammer.ID, items[1].ToolID)
	assert.Equal(t, "bob", items[1].FromUserName)
	assert.Equal(t, 1, items[1].IssueCount)
	assert.True(t, items[1].HasIssues)
}

func TestListIncomingSkipsStaleOwnerCache(t *testing.T) {
	repo := newFakeRepo()
	alice, bob, hammer, _ := seedBasics(repo)

	// Owner cache says alice, but the ledger head already points at bob.
	// The ledger wins; the entry must not show up in alice's list.
	hammer.CurrentOwnerID = &alice.ID
	repo.addTool(hammer)
	repo.heads[hammer.ID] = models.CustodyEvent{
		ID: 31, ToolID: hammer.ID, CompanyID: acmeID,
		ToUserID: &bob.ID, ToUserName: "bob",
		Location: "truck 4", StoredAt: "on-truck",
	}

	items, err := NewListIncoming(repo, nil).Execute(context.Background(), acmeID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListIncomingDeletedSenderName(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)

	hammer.CurrentOwnerID = &alice.ID
	repo.addTool(hammer)

	gone := uint(77)
	repo.heads[hammer.ID] = models.CustodyEvent{
		ID: 31, ToolID: hammer.ID, CompanyID: acmeID,
		FromUserID: &gone, FromUserName: "",
		ToUserID: &alice.ID, ToUserName: "alice",
		Location: "truck 2", StoredAt: "on-truck",
	}

	items, err := NewListIncoming(repo, nil).Execute(context.Background(), acmeID, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.DeletedUserName, items[0].FromUserName)
}
