package transfer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/models"
)

// --------------------------------------------------
// In-memory repository
// --------------------------------------------------

type fakeRepo struct {
	tools  map[uint]models.Tool
	users  map[uint]models.User
	heads  map[uint]models.CustodyEvent
	hist   []models.CustodyEvent
	items  []models.ChecklistItem
	issues []domain.OpenIssue

	batches     []domain.Batch
	nextEventID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tools:       map[uint]models.Tool{},
		users:       map[uint]models.User{},
		heads:       map[uint]models.CustodyEvent{},
		nextEventID: 100,
	}
}

func (f *fakeRepo) addTool(tool models.Tool) { f.tools[tool.ID] = tool }
func (f *fakeRepo) addUser(user models.User) { f.users[user.ID] = user }

func (f *fakeRepo) ToolsByIDs(_ context.Context, companyID uint, toolIDs []uint) ([]models.Tool, error) {
	var out []models.Tool
	for _, id := range toolIDs {
		if tool, ok := f.tools[id]; ok && tool.CompanyID == companyID {
			out = append(out, tool)
		}
	}
	return out, nil
}

func (f *fakeRepo) ToolsOwnedBy(_ context.Context, companyID uint, userID uint) ([]models.Tool, error) {
	var out []models.Tool
	for _, tool := range f.tools {
		if tool.CompanyID == companyID &&
			tool.CurrentOwnerID != nil && *tool.CurrentOwnerID == userID {
			out = append(out, tool)
		}
	}
	return out, nil
}

func (f *fakeRepo) UserInCompany(_ context.Context, companyID uint, userID uint) (*models.User, error) {
	if user, ok := f.users[userID]; ok && user.CompanyID == companyID {
		return &user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) LatestEvent(_ context.Context, companyID uint, toolID uint) (*models.CustodyEvent, error) {
	if ev, ok := f.heads[toolID]; ok && ev.CompanyID == companyID {
		return &ev, nil
	}
	return nil, nil
}

func (f *fakeRepo) LatestEvents(_ context.Context, companyID uint, toolIDs []uint) (map[uint]models.CustodyEvent, error) {
	out := map[uint]models.CustodyEvent{}
	for _, id := range toolIDs {
		if ev, ok := f.heads[id]; ok && ev.CompanyID == companyID {
			out[id] = ev
		}
	}
	return out, nil
}

func (f *fakeRepo) History(_ context.Context, companyID uint, toolID uint) ([]models.CustodyEvent, error) {
	var out []models.CustodyEvent
	for _, ev := range f.hist {
		if ev.CompanyID == companyID && ev.ToolID == toolID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeRepo) ChecklistItemsFor(_ context.Context, companyID uint, toolID uint) ([]models.ChecklistItem, error) {
	var out []models.ChecklistItem
	for _, item := range f.items {
		if item.CompanyID == companyID && item.ToolID == toolID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeRepo) ChecklistCounts(_ context.Context, companyID uint, toolIDs []uint) (map[uint]int, error) {
	counts := map[uint]int{}
	for _, item := range f.items {
		if item.CompanyID == companyID {
			counts[item.ToolID]++
		}
	}
	return counts, nil
}

func (f *fakeRepo) OpenIssues(_ context.Context, _ uint, toolIDs []uint) ([]domain.OpenIssue, error) {
	var out []domain.OpenIssue
	for _, issue := range f.issues {
		for _, id := range toolIDs {
			if issue.ToolID == id {
				out = append(out, issue)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) CommitBatch(_ context.Context, batch domain.Batch) ([]uint, error) {
	f.batches = append(f.batches, batch)

	ids := make([]uint, 0, len(batch.ToolIDs))
	for range batch.ToolIDs {
		f.nextEventID++
		ids = append(ids, f.nextEventID)
	}
	return ids, nil
}

var _ domain.Repository = (*fakeRepo)(nil)

// --------------------------------------------------
// Fixtures
// --------------------------------------------------

const (
	acmeID  = uint(1)
	rivalID = uint(2)
)

func seedBasics(repo *fakeRepo) (alice, bob models.User, hammer, drill models.Tool) {
	alice = models.User{ID: 10, CompanyID: acmeID, Name: "alice"}
	bob = models.User{ID: 11, CompanyID: acmeID, Name: "bob"}
	repo.addUser(alice)
	repo.addUser(bob)

	hammer = models.Tool{ID: 1, CompanyID: acmeID, Number: "1", Name: "Hammer"}
	drill = models.Tool{ID: 2, CompanyID: acmeID, Number: "2", Name: "Drill"}
	repo.addTool(hammer)
	repo.addTool(drill)
	return
}

func validInput(alice models.User, toolIDs ...uint) RequestTransferInput {
	return RequestTransferInput{
		CompanyID:    acmeID,
		ActorID:      alice.ID,
		ToolIDs:      toolIDs,
		ClaimForSelf: true,
		Location:     "truck 2",
		StoredAt:     "on-truck",
	}
}

// --------------------------------------------------
// Validation
// --------------------------------------------------

func TestRequestTransferValidation(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, drill := seedBasics(repo)
	uc := NewRequestTransfer(repo, nil, nil)

	tests := []struct {
		name   string
		mutate func(*RequestTransferInput)
		code   string
	}{
		{
			name:   "no tools selected",
			mutate: func(in *RequestTransferInput) { in.ToolIDs = nil },
			code:   "no_tools_selected",
		},
		{
			name:   "blank location",
			mutate: func(in *RequestTransferInput) { in.Location = "   " },
			code:   "missing_location",
		},
		{
			name:   "unknown stored_at",
			mutate: func(in *RequestTransferInput) { in.StoredAt = "garage" },
			code:   "invalid_stored_at",
		},
		{
			name: "report against unselected tool",
			mutate: func(in *RequestTransferInput) {
				in.Reports = map[uint][]domain.ReportInput{
					drill.ID: {{ChecklistItemID: 1, Status: domain.ReportDamaged}},
				}
			},
			code: "report_for_unselected_tool",
		},
		{
			name: "unknown report status",
			mutate: func(in *RequestTransferInput) {
				in.Reports = map[uint][]domain.ReportInput{
					hammer.ID: {{ChecklistItemID: 1, Status: "fine"}},
				}
			},
			code: "invalid_report_status",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput(alice, hammer.ID)
			tc.mutate(&in)

			_, err := uc.Execute(context.Background(), in)
			require.Error(t, err)
			assert.True(t, httperr.IsBusiness(err, tc.code))
		})
	}

	// None of the rejected requests may have reached the ledger.
	assert.Empty(t, repo.batches)
}

func TestRequestTransferRejectsForeignTool(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	repo.addTool(models.Tool{ID: 99, CompanyID: rivalID, Number: "1", Name: "Saw"})
	uc := NewRequestTransfer(repo, nil, nil)

	_, err := uc.Execute(context.Background(), validInput(alice, hammer.ID, 99))
	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, "tool_not_in_company"))
	assert.Empty(t, repo.batches)
}

// --------------------------------------------------
// Recipient resolution
// --------------------------------------------------

func TestRequestTransferRecipientNotInCompany(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	repo.addUser(models.User{ID: 50, CompanyID: rivalID, Name: "mallory"})
	uc := NewRequestTransfer(repo, nil, nil)

	outsider := uint(50)
	in := validInput(alice, hammer.ID)
	in.ClaimForSelf = false
	in.ToUserID = &outsider

	_, err := uc.Execute(context.Background(), in)
	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, "recipient_not_in_company"))
	assert.Empty(t, repo.batches)
}

func TestRequestTransferPoolReturnNeedsOwnership(t *testing.T) {
	repo := newFakeRepo()
	alice, bob, hammer, _ := seedBasics(repo)

	// Hammer is held by bob; alice cannot return it to the pool for him.
	hammer.CurrentOwnerID = &bob.ID
	repo.addTool(hammer)
	uc := NewRequestTransfer(repo, nil, nil)

	in := validInput(alice, hammer.ID)
	in.ClaimForSelf = false

	_, err := uc.Execute(context.Background(), in)
	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, "recipient_required"))
}

func TestRequestTransferPoolReturnByHolder(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	hammer.CurrentOwnerID = &alice.ID
	repo.addTool(hammer)
	uc := NewRequestTransfer(repo, nil, nil)

	in := validInput(alice, hammer.ID)
	in.ClaimForSelf = false
	in.StoredAt = "on-site"
	in.Location = "main warehouse"

	res, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCommitted, res.State)

	require.Len(t, repo.batches, 1)
	assert.Nil(t, repo.batches[0].ToUserID)
	assert.Empty(t, repo.batches[0].ToUserName)
}

// --------------------------------------------------
// Open-issue gate
// --------------------------------------------------

func TestRequestTransferWarnsWithoutAcknowledgement(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	repo.issues = []domain.OpenIssue{{
		ReportID: 7, ToolID: hammer.ID, ToolNumber: hammer.Number,
		ChecklistItemName: "Cord intact", Status: domain.ReportDamaged,
	}}
	uc := NewRequestTransfer(repo, nil, nil)

	res, err := uc.Execute(context.Background(), validInput(alice, hammer.ID))
	require.NoError(t, err)

	assert.Equal(t, domain.StateWarned, res.State)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "Cord intact", res.Issues[0].ChecklistItemName)
	assert.Empty(t, res.EventIDs)

	// A warning is advisory only: nothing reached the ledger.
	assert.Empty(t, repo.batches)
}

func TestRequestTransferAcknowledgedIssuesCommit(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	repo.issues = []domain.OpenIssue{{ReportID: 7, ToolID: hammer.ID}}
	uc := NewRequestTransfer(repo, nil, nil)

	in := validInput(alice, hammer.ID)
	in.AcknowledgeIssues = true

	res, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCommitted, res.State)
	require.Len(t, res.EventIDs, 1)

	// Self-claim over known issues with no note of its own gets the
	// standard pickup note.
	require.Len(t, repo.batches, 1)
	assert.Equal(t, "Open issues acknowledged at pickup", repo.batches[0].Notes)
}

func TestRequestTransferAutoNoteOnlyForSelfClaim(t *testing.T) {
	repo := newFakeRepo()
	alice, bob, hammer, _ := seedBasics(repo)
	repo.issues = []domain.OpenIssue{{ReportID: 7, ToolID: hammer.ID}}
	uc := NewRequestTransfer(repo, nil, nil)

	in := validInput(alice, hammer.ID)
	in.ClaimForSelf = false
	in.ToUserID = &bob.ID
	in.AcknowledgeIssues = true

	_, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
	assert.Empty(t, repo.batches[0].Notes)
}

func TestRequestTransferKeepsCallerNote(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	repo.issues = []domain.OpenIssue{{ReportID: 7, ToolID: hammer.ID}}
	uc := NewRequestTransfer(repo, nil, nil)

	in := validInput(alice, hammer.ID)
	in.AcknowledgeIssues = true
	in.Notes = "cord already frayed when I picked it up"

	_, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, repo.batches, 1)
	assert.Equal(t, "cord already frayed when I picked it up", repo.batches[0].Notes)
}

// --------------------------------------------------
// Commit semantics
// --------------------------------------------------

func TestRequestTransferDeduplicatesToolIDs(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, drill := seedBasics(repo)
	uc := NewRequestTransfer(repo, nil, nil)

	res, err := uc.Execute(context.Background(), validInput(alice, hammer.ID, hammer.ID, drill.ID))
	require.NoError(t, err)

	require.Len(t, repo.batches, 1)
	assert.Equal(t, []uint{hammer.ID, drill.ID}, repo.batches[0].ToolIDs)
	assert.Len(t, res.EventIDs, 2)
}

func TestRequestTransferResolvesSelfClaim(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	uc := NewRequestTransfer(repo, nil, nil)

	res, err := uc.Execute(context.Background(), validInput(alice, hammer.ID))
	require.NoError(t, err)
	assert.Equal(t, domain.StateCommitted, res.State)

	require.Len(t, repo.batches, 1)
	require.NotNil(t, repo.batches[0].ToUserID)
	assert.Equal(t, alice.ID, *repo.batches[0].ToUserID)
	assert.Equal(t, "alice", repo.batches[0].ToUserName)
	assert.Equal(t, domain.StoredOnTruck, repo.batches[0].StoredAt)
}

func TestRequestTransferDoubleSubmitIsTwoTransfers(t *testing.T) {
	repo := newFakeRepo()
	alice, _, hammer, _ := seedBasics(repo)
	uc := NewRequestTransfer(repo, nil, nil)

	in := validInput(alice, hammer.ID)

	first, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)
	second, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	// Tapping submit twice is two hand-overs on the ledger, never a no-op.
	assert.Len(t, repo.batches, 2)
	require.Len(t, first.EventIDs, 1)
	require.Len(t, second.EventIDs, 1)
	assert.NotEqual(t, first.EventIDs[0], second.EventIDs[0])
}

// --------------------------------------------------
// History view
// --------------------------------------------------

func TestToolHistoryUnknownTool(t *testing.T) {
	repo := newFakeRepo()
	seedBasics(repo)
	uc := NewToolHistory(repo)

	_, err := uc.Execute(context.Background(), acmeID, 999)
	require.Error(t, err)
	assert.True(t, httperr.IsBusiness(err, "tool_not_in_company"))
}

func TestCurrentFromHead(t *testing.T) {
	assert.Equal(t, CurrentCustody{}, CurrentFromHead(nil))

	at := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	owner := uint(10)

	held := CurrentFromHead(&models.CustodyEvent{
		ToUserID: &owner, ToUserName: "alice",
		Location: "truck 2", StoredAt: "on-truck", CreatedAt: at,
	})
	assert.True(t, held.Assigned)
	assert.Equal(t, "alice", held.OwnerName)
	assert.Equal(t, "truck 2", held.Location)
	require.NotNil(t, held.Since)
	assert.Equal(t, at, *held.Since)

	// Pool return: the head names no recipient but still fixes location.
	pooled := CurrentFromHead(&models.CustodyEvent{
		Location: "main warehouse", StoredAt: "on-site", CreatedAt: at,
	})
	assert.False(t, pooled.Assigned)
	assert.Nil(t, pooled.OwnerID)
	assert.Empty(t, pooled.OwnerName)
	assert.Equal(t, "main warehouse", pooled.Location)
}
