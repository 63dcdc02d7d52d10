package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fieldserve/tool-custody/internal/audit"
	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/httpresp"
	"github.com/fieldserve/tool-custody/internal/middleware"
	"github.com/fieldserve/tool-custody/internal/models"
)

// ======================================================
// HANDLER
// ======================================================

type ChecklistHandler struct {
	db    *gorm.DB
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewChecklistHandler(
	db *gorm.DB,
	repo domain.Repository,
	auditDispatcher *audit.Dispatcher,
) *ChecklistHandler {
	return &ChecklistHandler{
		db:    db,
		repo:  repo,
		audit: auditDispatcher,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateChecklistItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Required bool   `json:"required"`
}

type UpdateChecklistItemRequest struct {
	Name     *string `json:"name,omitempty"`
	Required *bool   `json:"required,omitempty"`
}

// ======================================================
// LIST (read input to the transfer path)
// ======================================================

func (h *ChecklistHandler) List(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	toolID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	items, err := h.repo.ChecklistItemsFor(c.Request.Context(), companyID, toolID)
	if err != nil {
		httperr.Internal(c, "failed_to_list_checklist", "Could not list checklist items.")
		return
	}

	httpresp.List(c, items)
}

// ======================================================
// MUTATIONS (admin only, routed behind RequireAdmin)
// ======================================================

func (h *ChecklistHandler) Create(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)
	userID := c.MustGet(middleware.ContextUserID).(uint)

	toolID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var tool models.Tool
	if err := h.db.
		Where("id = ? AND company_id = ?", toolID, companyID).
		First(&tool).Error; err != nil {
		httperr.NotFound(c, "tool_not_found", "Tool not found.")
		return
	}

	var req CreateChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid checklist item data.")
		return
	}

	item := models.ChecklistItem{
		ToolID:    tool.ID,
		CompanyID: companyID,
		Name:      req.Name,
		Required:  req.Required,
	}

	if err := h.db.Create(&item).Error; err != nil {
		httperr.Internal(c, "failed_to_create_checklist_item", "Could not create checklist item.")
		return
	}

	h.audit.Dispatch(audit.Event{
		CompanyID: companyID,
		UserID:    &userID,
		Action:    "checklist_item_created",
		Entity:    "checklist_item",
		EntityID:  &item.ID,
	})

	httpresp.Created(c, item)
}

func (h *ChecklistHandler) Update(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var item models.ChecklistItem
	if err := h.db.
		Where("id = ? AND company_id = ?", itemID, companyID).
		First(&item).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "checklist_item_not_found", "Checklist item not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_checklist_item", "Could not load checklist item.")
		return
	}

	var req UpdateChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid checklist item data.")
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Required != nil {
		item.Required = *req.Required
	}

	if err := h.db.Save(&item).Error; err != nil {
		httperr.Internal(c, "failed_to_update_checklist_item", "Could not update checklist item.")
		return
	}

	c.JSON(http.StatusOK, item)
}

// Delete removes a checklist item. This is the one data-layer action that
// clears the item's inspection reports from every open-issue view.
func (h *ChecklistHandler) Delete(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)
	userID := c.MustGet(middleware.ContextUserID).(uint)

	itemID, ok := parseIDParam(c, "itemId")
	if !ok {
		return
	}

	var item models.ChecklistItem
	if err := h.db.
		Where("id = ? AND company_id = ?", itemID, companyID).
		First(&item).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "checklist_item_not_found", "Checklist item not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_checklist_item", "Could not load checklist item.")
		return
	}

	if err := h.db.Delete(&item).Error; err != nil {
		httperr.Internal(c, "failed_to_delete_checklist_item", "Could not delete checklist item.")
		return
	}

	h.audit.Dispatch(audit.Event{
		CompanyID: companyID,
		UserID:    &userID,
		Action:    "checklist_item_deleted",
		Entity:    "checklist_item",
		EntityID:  &item.ID,
	})

	httpresp.NoContent(c)
}
