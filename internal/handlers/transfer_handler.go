package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/httpresp"
	"github.com/fieldserve/tool-custody/internal/middleware"
	ucTransfer "github.com/fieldserve/tool-custody/internal/usecase/transfer"
)

// ======================================================
// HANDLER
// ======================================================

type TransferHandler struct {
	request *ucTransfer.RequestTransfer
	history *ucTransfer.ToolHistory
}

func NewTransferHandler(
	request *ucTransfer.RequestTransfer,
	history *ucTransfer.ToolHistory,
) *TransferHandler {
	return &TransferHandler{
		request: request,
		history: history,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type ChecklistReportRequest struct {
	ToolID          uint   `json:"tool_id" binding:"required"`
	ChecklistItemID uint   `json:"checklist_item_id" binding:"required"`
	Status          string `json:"status" binding:"required"`
	Comment         string `json:"comment"`
}

type TransferRequest struct {
	ToolIDs      []uint `json:"tool_ids" binding:"required"`
	ToUserID     *uint  `json:"to_user_id"`
	ClaimForSelf bool   `json:"claim_for_self"`

	Location string `json:"location" binding:"required"`
	StoredAt string `json:"stored_at" binding:"required"`
	Notes    string `json:"notes"`

	ChecklistReports  []ChecklistReportRequest `json:"checklist_reports"`
	AcknowledgeIssues bool                     `json:"acknowledge_issues"`
}

// ======================================================
// CREATE (batch transfer endpoint)
// ======================================================

// Create moves custody of one or many tools in a single atomic batch.
// With unacknowledged open issues the response is 409 with the issue list
// and nothing is written; resubmitting with acknowledge_issues commits.
func (h *TransferHandler) Create(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid transfer data.")
		return
	}

	reports := make(map[uint][]domain.ReportInput)
	for _, r := range req.ChecklistReports {
		reports[r.ToolID] = append(reports[r.ToolID], domain.ReportInput{
			ChecklistItemID: r.ChecklistItemID,
			Status:          domain.ReportStatus(r.Status),
			Comment:         r.Comment,
		})
	}

	result, err := h.request.Execute(c.Request.Context(), ucTransfer.RequestTransferInput{
		CompanyID:         companyID,
		ActorID:           userID,
		ToolIDs:           req.ToolIDs,
		ToUserID:          req.ToUserID,
		ClaimForSelf:      req.ClaimForSelf,
		Location:          req.Location,
		StoredAt:          req.StoredAt,
		Notes:             req.Notes,
		Reports:           reports,
		AcknowledgeIssues: req.AcknowledgeIssues,
	})
	if err != nil {
		writeTransferError(c, err)
		return
	}

	if result.State == domain.StateWarned {
		// Advisory gate: full issue list, zero writes, not an error
		// envelope. The client shows a review screen and may resubmit.
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"state":   result.State,
			"issues":  result.Issues,
		})
		return
	}

	httpresp.Created(c, gin.H{
		"success":         true,
		"state":           result.State,
		"transaction_ids": result.EventIDs,
	})
}

// ======================================================
// HISTORY (full per-tool ledger)
// ======================================================

func (h *TransferHandler) History(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	toolID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.history.Execute(c.Request.Context(), companyID, toolID)
	if err != nil {
		if httperr.IsBusiness(err, "tool_not_in_company") {
			httperr.NotFound(c, "tool_not_found", "Tool not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_history", "Could not load history.")
		return
	}

	httpresp.OK(c, result)
}

// ======================================================
// ERROR MAPPING
// ======================================================

func writeTransferError(c *gin.Context, err error) {
	switch {
	// Validation: rejected before any write.
	case httperr.IsBusiness(err, "no_tools_selected"):
		httperr.BadRequest(c, "no_tools_selected", "Select at least one tool.")
	case httperr.IsBusiness(err, "missing_location"):
		httperr.BadRequest(c, "missing_location", "A location is required.")
	case httperr.IsBusiness(err, "invalid_stored_at"):
		httperr.BadRequest(c, "invalid_stored_at", "Stored-at must be on-truck, on-site or n/a.")
	case httperr.IsBusiness(err, "invalid_report_status"):
		httperr.BadRequest(c, "invalid_report_status", "Report status must be damaged or needs-replacement.")
	case httperr.IsBusiness(err, "report_for_unselected_tool"):
		httperr.BadRequest(c, "report_for_unselected_tool", "Reports may only target tools in the batch.")
	case httperr.IsBusiness(err, "recipient_required"):
		httperr.BadRequest(c, "recipient_required", "A recipient is required for tools you do not hold.")
	case httperr.IsBusiness(err, "checklist_item_not_for_tool"):
		httperr.BadRequest(c, "checklist_item_not_for_tool", "Checklist item does not belong to that tool.")

	// Authorization: the tool or user is outside the caller's company.
	case httperr.IsBusiness(err, "tool_not_in_company"):
		httperr.Forbidden(c, "tool_not_in_company", "One or more tools are not in your company.")
	case httperr.IsBusiness(err, "recipient_not_in_company"):
		httperr.Forbidden(c, "recipient_not_in_company", "Recipient is not in your company.")

	// A concurrent transfer won the per-tool race; safe to retry.
	case httperr.IsSerializationConflict(err):
		httperr.Conflict(c, "transfer_conflict", "Another transfer touched these tools, retry.")

	default:
		httperr.Internal(c, "failed_to_transfer", "Could not complete the transfer, try again.")
	}
}
