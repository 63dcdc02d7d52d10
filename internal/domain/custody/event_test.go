package custody

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fieldserve/tool-custody/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestDisplayNamesFallBackForDeletedUsers(t *testing.T) {
	ev := &models.CustodyEvent{
		FromUserID:   uintPtr(3),
		FromUserName: "",
		ToUserID:     uintPtr(4),
		ToUserName:   "Dana",
	}

	assert.Equal(t, DeletedUserName, FromDisplayName(ev))
	assert.Equal(t, "Dana", ToDisplayName(ev))
}

func TestDisplayNamesEmptyForPoolAndUnassigned(t *testing.T) {
	ev := &models.CustodyEvent{FromUserID: nil, ToUserID: nil}

	assert.Empty(t, FromDisplayName(ev))
	assert.Empty(t, ToDisplayName(ev))
	assert.Empty(t, ToDisplayName(nil))
}

func TestLatestByToolKeepsLastRowPerTool(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	events := []models.CustodyEvent{
		{ID: 1, ToolID: 7, Location: "warehouse", CreatedAt: base},
		{ID: 2, ToolID: 9, Location: "truck 4", CreatedAt: base},
		// Same timestamp as event 1: the later id must win.
		{ID: 3, ToolID: 7, Location: "site 12", CreatedAt: base},
	}

	heads := LatestByTool(events)

	assert.Len(t, heads, 2)
	assert.Equal(t, uint(3), heads[7].ID)
	assert.Equal(t, "site 12", heads[7].Location)
	assert.Equal(t, uint(2), heads[9].ID)
}
