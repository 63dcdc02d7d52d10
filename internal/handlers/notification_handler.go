package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/httpresp"
	"github.com/fieldserve/tool-custody/internal/middleware"
	ucTransfer "github.com/fieldserve/tool-custody/internal/usecase/transfer"
)

type NotificationHandler struct {
	incoming *ucTransfer.ListIncoming
}

func NewNotificationHandler(incoming *ucTransfer.ListIncoming) *NotificationHandler {
	return &NotificationHandler{incoming: incoming}
}

// List serves the caller's incoming projection. Dismissal is client-local;
// entries with has_issues stay visible until the tool's issues are cleared.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	items, err := h.incoming.Execute(c.Request.Context(), companyID, userID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_notifications", "Could not load notifications.")
		return
	}

	httpresp.List(c, items)
}
