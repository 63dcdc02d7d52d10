package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/fieldserve/tool-custody/internal/domain/custody"
	"github.com/fieldserve/tool-custody/internal/httperr"
	"github.com/fieldserve/tool-custody/internal/models"
)

type CustodyGormRepository struct {
	db *gorm.DB
}

func NewCustodyGormRepository(db *gorm.DB) *CustodyGormRepository {
	return &CustodyGormRepository{db: db}
}

// --------------------------------------------------
// Tools
// --------------------------------------------------

func (r *CustodyGormRepository) ToolsByIDs(
	ctx context.Context,
	companyID uint,
	toolIDs []uint,
) ([]models.Tool, error) {

	var tools []models.Tool
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id IN ?", companyID, toolIDs).
		Order("id ASC").
		Find(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

func (r *CustodyGormRepository) ToolsOwnedBy(
	ctx context.Context,
	companyID uint,
	userID uint,
) ([]models.Tool, error) {

	var tools []models.Tool
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND current_owner_id = ?", companyID, userID).
		Order("id ASC").
		Find(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

// --------------------------------------------------
// Users
// --------------------------------------------------

func (r *CustodyGormRepository) UserInCompany(
	ctx context.Context,
	companyID uint,
	userID uint,
) (*models.User, error) {

	var user models.User
	if err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", userID, companyID).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// --------------------------------------------------
// Ledger (append-only, latest row wins)
// --------------------------------------------------

func (r *CustodyGormRepository) LatestEvent(
	ctx context.Context,
	companyID uint,
	toolID uint,
) (*models.CustodyEvent, error) {

	var ev models.CustodyEvent
	err := r.db.WithContext(ctx).
		Where("company_id = ? AND tool_id = ?", companyID, toolID).
		Order("created_at DESC, id DESC").
		First(&ev).Error

	if err == gorm.ErrRecordNotFound {
		// No history yet: unassigned, location unknown. Not an error.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *CustodyGormRepository) LatestEvents(
	ctx context.Context,
	companyID uint,
	toolIDs []uint,
) (map[uint]models.CustodyEvent, error) {

	if len(toolIDs) == 0 {
		return map[uint]models.CustodyEvent{}, nil
	}

	// One round trip for the whole batch; the ascending order makes the
	// fold keep the (created_at desc, id desc) winner per tool.
	var events []models.CustodyEvent
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND tool_id IN ?", companyID, toolIDs).
		Order("created_at ASC, id ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	return domain.LatestByTool(events), nil
}

func (r *CustodyGormRepository) History(
	ctx context.Context,
	companyID uint,
	toolID uint,
) ([]models.CustodyEvent, error) {

	var events []models.CustodyEvent
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND tool_id = ?", companyID, toolID).
		Order("created_at DESC, id DESC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// --------------------------------------------------
// Checklist catalog
// --------------------------------------------------

func (r *CustodyGormRepository) ChecklistItemsFor(
	ctx context.Context,
	companyID uint,
	toolID uint,
) ([]models.ChecklistItem, error) {

	var items []models.ChecklistItem
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND tool_id = ?", companyID, toolID).
		Order("name ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *CustodyGormRepository) ChecklistCounts(
	ctx context.Context,
	companyID uint,
	toolIDs []uint,
) (map[uint]int, error) {

	if len(toolIDs) == 0 {
		return map[uint]int{}, nil
	}

	type row struct {
		ToolID uint
		Total  int
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.ChecklistItem{}).
		Select("tool_id, COUNT(*) AS total").
		Where("company_id = ? AND tool_id IN ?", companyID, toolIDs).
		Group("tool_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[uint]int, len(rows))
	for _, rw := range rows {
		counts[rw.ToolID] = rw.Total
	}
	return counts, nil
}

// --------------------------------------------------
// Inspection reports
// --------------------------------------------------

// OpenIssues returns every report whose checklist item still belongs to one
// of the tools. Reports have no resolved flag; removing the checklist item
// is the only thing that clears them.
func (r *CustodyGormRepository) OpenIssues(
	ctx context.Context,
	companyID uint,
	toolIDs []uint,
) ([]domain.OpenIssue, error) {

	if len(toolIDs) == 0 {
		return nil, nil
	}

	var issues []domain.OpenIssue
	if err := r.db.WithContext(ctx).
		Table("inspection_reports AS r").
		Select(`r.id AS report_id,
			ci.tool_id AS tool_id,
			t.number AS tool_number,
			ci.id AS checklist_item_id,
			ci.name AS checklist_item_name,
			r.status AS status,
			r.comment AS comment,
			e.to_user_name AS reported_by,
			r.created_at AS reported_at`).
		Joins("JOIN checklist_items ci ON ci.id = r.checklist_item_id").
		Joins("JOIN tools t ON t.id = ci.tool_id").
		Joins("JOIN custody_events e ON e.id = r.custody_event_id").
		Where("r.company_id = ? AND ci.tool_id IN ?", companyID, toolIDs).
		Order("r.created_at ASC, r.id ASC").
		Scan(&issues).Error; err != nil {
		return nil, err
	}
	return issues, nil
}

// --------------------------------------------------
// Batch commit (the single transactional boundary)
// --------------------------------------------------

// CommitBatch appends one custody event per tool, updates each tool's owner
// cache and inserts that tool's inspection reports, all in one transaction.
// Any failure rolls the whole batch back.
func (r *CustodyGormRepository) CommitBatch(
	ctx context.Context,
	batch domain.Batch,
) ([]uint, error) {

	var eventIDs []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		// 1. Lock the tool rows so concurrent transfers on the same tool
		// serialize. Ascending id order keeps overlapping batches from
		// deadlocking each other. sqlite has no FOR UPDATE; it is a single
		// writer anyway.
		q := tx.Where("company_id = ? AND id IN ?", batch.CompanyID, batch.ToolIDs).
			Order("id ASC")
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var tools []models.Tool
		if err := q.Find(&tools).Error; err != nil {
			return err
		}
		if len(tools) != len(batch.ToolIDs) {
			return httperr.ErrBusiness("tool_not_in_company")
		}

		// 2. Checklist items referenced by the marks must belong to the
		// tool they are filed against.
		itemTool, err := checklistItemOwners(tx, batch)
		if err != nil {
			return err
		}

		// 3. From-user name snapshots for the rows being superseded.
		ownerNames, err := ownerNameSnapshots(tx, batch.CompanyID, tools)
		if err != nil {
			return err
		}

		for _, tool := range tools {
			ev := models.CustodyEvent{
				ToolID:     tool.ID,
				CompanyID:  batch.CompanyID,
				FromUserID: tool.CurrentOwnerID,
				ToUserID:   batch.ToUserID,
				ToUserName: batch.ToUserName,
				Location:   batch.Location,
				StoredAt:   batch.StoredAt.String(),
				Notes:      batch.Notes,
			}
			if tool.CurrentOwnerID != nil {
				ev.FromUserName = ownerNames[*tool.CurrentOwnerID]
			}

			if err := tx.Create(&ev).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Tool{}).
				Where("id = ?", tool.ID).
				Update("current_owner_id", batch.ToUserID).Error; err != nil {
				return err
			}

			for _, mark := range batch.Reports[tool.ID] {
				if !mark.Status.Valid() {
					return httperr.ErrBusiness("invalid_report_status")
				}
				if itemTool[mark.ChecklistItemID] != tool.ID {
					return httperr.ErrBusiness("checklist_item_not_for_tool")
				}

				report := models.InspectionReport{
					CustodyEventID:  ev.ID,
					ChecklistItemID: mark.ChecklistItemID,
					CompanyID:       batch.CompanyID,
					Status:          mark.Status.String(),
					Comment:         mark.Comment,
				}
				if err := tx.Create(&report).Error; err != nil {
					return err
				}
			}

			eventIDs = append(eventIDs, ev.ID)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}
	return eventIDs, nil
}

func checklistItemOwners(
	tx *gorm.DB,
	batch domain.Batch,
) (map[uint]uint, error) {

	var itemIDs []uint
	for _, marks := range batch.Reports {
		for _, mark := range marks {
			itemIDs = append(itemIDs, mark.ChecklistItemID)
		}
	}
	if len(itemIDs) == 0 {
		return map[uint]uint{}, nil
	}

	var items []models.ChecklistItem
	if err := tx.
		Where("company_id = ? AND id IN ?", batch.CompanyID, itemIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}

	itemTool := make(map[uint]uint, len(items))
	for _, item := range items {
		itemTool[item.ID] = item.ToolID
	}
	return itemTool, nil
}

func ownerNameSnapshots(
	tx *gorm.DB,
	companyID uint,
	tools []models.Tool,
) (map[uint]string, error) {

	var ownerIDs []uint
	seen := map[uint]bool{}
	for _, tool := range tools {
		if tool.CurrentOwnerID != nil && !seen[*tool.CurrentOwnerID] {
			seen[*tool.CurrentOwnerID] = true
			ownerIDs = append(ownerIDs, *tool.CurrentOwnerID)
		}
	}

	names := make(map[uint]string, len(ownerIDs))
	for _, id := range ownerIDs {
		// Cache still points at a deleted account until the next transfer.
		names[id] = domain.DeletedUserName
	}
	if len(ownerIDs) == 0 {
		return names, nil
	}

	var users []models.User
	if err := tx.
		Where("company_id = ? AND id IN ?", companyID, ownerIDs).
		Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// Compile-time check
var _ domain.Repository = (*CustodyGormRepository)(nil)
