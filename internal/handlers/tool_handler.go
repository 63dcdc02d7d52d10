package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fieldserve/tool-custody/internal/audit"
	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/dto"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/httpresp"
	"github.com/fieldserve/tool-custody/internal/middleware"
	"github.com/fieldserve/tool-custody/internal/models"
	"github.com/fieldserve/tool-custody/internal/storage"
	ucTransfer "github.com/fieldserve/tool-custody/internal/usecase/transfer"
)

// ======================================================
// HANDLER
// ======================================================

type ToolHandler struct {
	db      *gorm.DB
	repo    domain.Repository
	history *ucTransfer.ToolHistory
	photos  *storage.PhotoStore
	audit   *audit.Dispatcher
}

func NewToolHandler(
	db *gorm.DB,
	repo domain.Repository,
	history *ucTransfer.ToolHistory,
	photos *storage.PhotoStore,
	auditDispatcher *audit.Dispatcher,
) *ToolHandler {
	return &ToolHandler{
		db:      db,
		repo:    repo,
		history: history,
		photos:  photos,
		audit:   auditDispatcher,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateToolRequest struct {
	Number      string `json:"number" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateToolRequest struct {
	Number      *string `json:"number,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ======================================================
// LIST
// ======================================================

func (h *ToolHandler) List(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	query := strings.ToLower(strings.TrimSpace(c.Query("query")))

	q := h.db.Where("company_id = ?", companyID)
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(number) LIKE ? OR LOWER(description) LIKE ?", like, like, like)
	}

	var tools []models.Tool
	if err := q.Find(&tools).Error; err != nil {
		httperr.Internal(c, "failed_to_list_tools", "Could not list tools.")
		return
	}

	// Display numbers sort numerically when possible: 1, 2, 10 not 1, 10, 2.
	domain.SortToolsByNumber(tools)

	toolIDs := make([]uint, 0, len(tools))
	for _, tool := range tools {
		toolIDs = append(toolIDs, tool.ID)
	}

	heads, err := h.repo.LatestEvents(c.Request.Context(), companyID, toolIDs)
	if err != nil {
		httperr.Internal(c, "failed_to_list_tools", "Could not load custody state.")
		return
	}

	counts, err := h.repo.ChecklistCounts(c.Request.Context(), companyID, toolIDs)
	if err != nil {
		httperr.Internal(c, "failed_to_list_tools", "Could not load checklist counts.")
		return
	}

	issues, err := h.repo.OpenIssues(c.Request.Context(), companyID, toolIDs)
	if err != nil {
		httperr.Internal(c, "failed_to_list_tools", "Could not load open issues.")
		return
	}
	issueCounts := make(map[uint]int, len(issues))
	for _, issue := range issues {
		issueCounts[issue.ToolID]++
	}

	items := make([]dto.ToolListDTO, 0, len(tools))
	for _, tool := range tools {
		item := dto.ToolListDTO{
			ID:             tool.ID,
			Number:         tool.Number,
			Name:           tool.Name,
			Description:    tool.Description,
			PhotoKey:       tool.PhotoKey,
			OwnerID:        tool.CurrentOwnerID,
			ChecklistCount: counts[tool.ID],
			OpenIssueCount: issueCounts[tool.ID],
		}

		if head, ok := heads[tool.ID]; ok {
			item.OwnerName = domain.ToDisplayName(&head)
			item.Location = head.Location
			item.StoredAt = head.StoredAt
			at := head.CreatedAt
			item.LastTransferAt = &at
		}

		items = append(items, item)
	}

	httpresp.List(c, items)
}

// ======================================================
// GET (current custody + full ledger + open issues)
// ======================================================

func (h *ToolHandler) Get(c *gin.Context) {
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
		httperr.Internal(c, "failed_to_get_tool", "Could not load tool.")
		return
	}

	httpresp.OK(c, result)
}

// ======================================================
// CREATE / UPDATE / DELETE (admin)
// ======================================================

func (h *ToolHandler) Create(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)
	userID := c.MustGet(middleware.ContextUserID).(uint)

	var req CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid tool data.")
		return
	}

	tool := models.Tool{
		CompanyID:   companyID,
		Number:      strings.TrimSpace(req.Number),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.db.Create(&tool).Error; err != nil {
		httperr.Internal(c, "failed_to_create_tool", "Could not create tool.")
		return
	}

	h.audit.Dispatch(audit.Event{
		CompanyID: companyID,
		UserID:    &userID,
		Action:    "tool_created",
		Entity:    "tool",
		EntityID:  &tool.ID,
	})

	httpresp.Created(c, tool)
}

func (h *ToolHandler) Update(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	toolID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var tool models.Tool
	if err := h.db.
		Where("id = ? AND company_id = ?", toolID, companyID).
		First(&tool).Error; err != nil {

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "tool_not_found", "Tool not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_tool", "Could not load tool.")
		return
	}

	var req UpdateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "Invalid tool data.")
		return
	}

	if req.Number != nil {
		tool.Number = strings.TrimSpace(*req.Number)
	}
	if req.Name != nil {
		tool.Name = *req.Name
	}
	if req.Description != nil {
		tool.Description = *req.Description
	}

	if err := h.db.Save(&tool).Error; err != nil {
		httperr.Internal(c, "failed_to_update_tool", "Could not update tool.")
		return
	}

	c.JSON(http.StatusOK, tool)
}

// Delete removes the tool and cascades its checklist items and group
// memberships. The ledger rows stay: history is never destroyed.
func (h *ToolHandler) Delete(c *gin.Context) {
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

		if err == gorm.ErrRecordNotFound {
			httperr.NotFound(c, "tool_not_found", "Tool not found.")
			return
		}
		httperr.Internal(c, "failed_to_get_tool", "Could not load tool.")
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tool_id = ?", tool.ID).Delete(&models.ChecklistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", tool.ID).Delete(&models.ToolGroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&tool).Error
	})
	if err != nil {
		httperr.Internal(c, "failed_to_delete_tool", "Could not delete tool.")
		return
	}

	h.audit.Dispatch(audit.Event{
		CompanyID: companyID,
		UserID:    &userID,
		Action:    "tool_deleted",
		Entity:    "tool",
		EntityID:  &tool.ID,
	})

	httpresp.NoContent(c)
}

// ======================================================
// PHOTO UPLOAD (decorative, S3 + webp thumbnail)
// ======================================================

func (h *ToolHandler) UploadPhoto(c *gin.Context) {
	companyID := c.MustGet(middleware.ContextCompanyID).(uint)

	if !h.photos.Enabled() {
		httperr.BadRequest(c, "photos_disabled", "Photo storage is not configured.")
		return
	}

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

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		httperr.BadRequest(c, "missing_photo", "A photo file is required.")
		return
	}
	defer file.Close()

	key, err := h.photos.SaveToolPhoto(c.Request.Context(), companyID, tool.ID, file)
	if err != nil {
		httperr.Internal(c, "failed_to_store_photo", "Could not store photo.")
		return
	}

	tool.PhotoKey = key
	if err := h.db.Save(&tool).Error; err != nil {
		httperr.Internal(c, "failed_to_update_tool", "Could not save photo reference.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"photo_key": key})
}
