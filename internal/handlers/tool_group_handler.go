package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/httpresp"
	"github.com/fieldserve/tool-custody/internal/middleware"
	"github.com/fieldserve/tool-custody/internal/models"
	ucTransfer "github.com/fieldserve/tool-custody/internal/usecase/transfer"
)

// ======================================================
// HANDLER
// ======================================================

type ToolGroupHandler struct {
	db      *gorm.DB
	request *ucTransfer.RequestTransfer
}

func NewToolGroupHandler(
	db *gorm.DB,
	request *ucTransfer.RequestTransfer,
) *ToolGroupHandler {
	return &ToolGroupHandler{
		db:      db,
		request: request,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateToolGroupRequest struct {
	Name    string `json:"name" binding:"required"`
	ToolIDs []uint `json:"tool_ids"`
}

type SetGroupMembersRequest struct {
	ToolIDs []uint `json:"tool_ids" binding:"required"`
}

type GroupTransferRequest struct {
	ToUserID     *uint  `json:"to_user_id"`
	ClaimForSelf bool   `json:"claim_for_self"`
	Location     string `json:"location" binding:"required"`
	StoredAt     string `json:"stored_at" binding:"required"`
	Notes        string `json:"notes"`

	ChecklistReports  []ChecklistReportRequest `json:"checklist_reports"`
	AcknowledgeIssues bool                     `json:"acknowledge_issues"`
}

type ToolGroupDTO struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	ToolIDs []uint `json:"tool_ids"`
}

// ======================================================
// CRUD
// ======================================================

func (h *ToolGroupHandler) List(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	var groups []models.ToolGroup
	if err := h.db.
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&groups).Error; err != nil {
		httperr.Internal(c, "failed_to_list_groups", "Could not list tool groups.")
		return
	}

	var members []models.ToolGroupMember
	if len(groups) > 0 {
		groupIDs := make([]uint, 0, len(groups))
		for _, g := range groups {
			groupIDs = append(groupIDs, g.ID)
		}
		if err := h.db.
			Where("tool_group_id IN ?", groupIDs).
			Find(&members).Error; err != nil {
			httperr.Internal(c, "failed_to_list_groups", "Could not list group members.")
			return
		}
	}

	byGroup := make(map[uint][]uint)
	for _, m := range members {
		byGroup[m.ToolGroupID] = append(byGroup[m.ToolGroupID], m.ToolID)
	}

	items := make([]ToolGroupDTO, 0, len(groups))
	for _, g := range groups {
		items = append(items, ToolGroupDTO{
			ID:      g.ID,
			Name:    g.Name,
			ToolIDs: byGroup[g.ID],
		})
	}

	httpresp.List(c, items)
}

func (h *ToolGroupHandler) Create(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	var req CreateToolGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid group data.")
		return
	}

	group := models.ToolGroup{
		CompanyID: companyID,
		Name:      req.Name,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		return replaceMembers(tx, companyID, &group, req.ToolIDs)
	})
	if err != nil {
		if httperr.IsBusiness(err, "tool_not_in_company") {
			httperr.Forbidden(c, "tool_not_in_company", "One or more tools are not in your company.")
			return
		}
		httperr.Internal(c, "failed_to_create_group", "Could not create tool group.")
		return
	}

	httpresp.Created(c, ToolGroupDTO{
		ID:      group.ID,
		Name:    group.Name,
		ToolIDs: req.ToolIDs,
	})
}

func (h *ToolGroupHandler) SetMembers(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	group, ok := h.loadGroup(c, companyID)
	if !ok {
		return
	}

	var req SetGroupMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid member list.")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		return replaceMembers(tx, companyID, group, req.ToolIDs)
	})
	if err != nil {
		if httperr.IsBusiness(err, "tool_not_in_company") {
			httperr.Forbidden(c, "tool_not_in_company", "One or more tools are not in your company.")
			return
		}
		httperr.Internal(c, "failed_to_update_group", "Could not update group members.")
		return
	}

	c.JSON(http.StatusOK, ToolGroupDTO{
		ID:      group.ID,
		Name:    group.Name,
		ToolIDs: req.ToolIDs,
	})
}

func (h *ToolGroupHandler) Delete(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	group, ok := h.loadGroup(c, companyID)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tool_group_id = ?", group.ID).
			Delete(&models.ToolGroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(group).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_delete_group", "Could not delete tool group.")
		return
	}

	httpresp.NoContent(c)
}

// ======================================================
// TRANSFER (whole group as one atomic batch)
// ======================================================

func (h *ToolGroupHandler) Transfer(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uint)
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	group, ok := h.loadGroup(c, companyID)
	if !ok {
		return
	}

	var req GroupTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid transfer data.")
		return
	}

	var members []models.ToolGroupMember
	if err := h.db.
		Where("tool_group_id = ?", group.ID).
		Find(&members).Error; err != nil {
		httperr.Internal(c, "failed_to_transfer", "Could not load group members.")
		return
	}
	if len(members) == 0 {
		httperr.BadRequest(c, "empty_group", "The group has no tools.")
		return
	}

	toolIDs := make([]uint, 0, len(members))
	for _, m := range members {
		toolIDs = append(toolIDs, m.ToolID)
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
		ToolIDs:           toolIDs,
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
// HELPERS
// ======================================================

func (h *ToolGroupHandler) loadGroup(c *gin.Context, companyID uint) (*models.ToolGroup, bool) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	var group models.ToolGroup
	if err := h.db.
		Where("id = ? AND company_id = ?", groupID, companyID).
		First(&group).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "group_not_found", "Tool group not found.")
			return nil, false
		}
		httperr.Internal(c, "failed_to_get_group", "Could not load tool group.")
		return nil, false
	}
	return &group, true
}

func replaceMembers(
	tx *gorm.DB,
	companyID uint,
	group *models.ToolGroup,
	toolIDs []uint,
) error {

	if err := tx.Where("tool_group_id = ?", group.ID).
		Delete(&models.ToolGroupMember{}).Error; err != nil {
		return err
	}
	if len(toolIDs) == 0 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.Tool{}).
		Where("company_id = ? AND id IN ?", companyID, toolIDs).
		Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(toolIDs) {
		return httperr.ErrBusiness("tool_not_in_company")
	}

	members := make([]models.ToolGroupMember, 0, len(toolIDs))
	for _, toolID := range toolIDs {
		members = append(members, models.ToolGroupMember{
			ToolGroupID: group.ID,
			ToolID:      toolID,
		})
	}
	return tx.Create(&members).Error
}
