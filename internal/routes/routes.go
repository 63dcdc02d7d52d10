package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/fieldserve/tool-custody/internal/audit"
	"github.com/fieldserve/tool-custody/internal/config"
	"github.com/fieldserve/tool-custody/internal/handlers"
	infraRepo "github.com/fieldserve/tool-custody/internal/infra/repository"
	"github.com/fieldserve/tool-custody/internal/middleware"
	"github.com/fieldserve/tool-custody/internal/notify"
	"github.com/fieldserve/tool-custody/internal/storage"
	ucTransfer "github.com/fieldserve/tool-custody/internal/usecase/transfer"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	custodyRepo := infraRepo.NewCustodyGormRepository(db)

	auditLogger := audit.New(db)
	auditDispatcher := audit.NewDispatcher(auditLogger)

	inboxCache := notify.NewCache(rdb)
	photoStore := storage.NewPhotoStore(cfg)

	// ======================================================
	// USE CASES
	// ======================================================
	requestTransferUC := ucTransfer.NewRequestTransfer(
		custodyRepo,
		auditDispatcher,
		inboxCache,
	)

	toolHistoryUC := ucTransfer.NewToolHistory(custodyRepo)

	listIncomingUC := ucTransfer.NewListIncoming(
		custodyRepo,
		inboxCache,
	)

	// ======================================================
	// HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	companyHandler := handlers.NewCompanyHandler(db)
	userHandler := handlers.NewUserHandler(db)

	toolHandler := handlers.NewToolHandler(db, custodyRepo, toolHistoryUC, photoStore, auditDispatcher)
	checklistHandler := handlers.NewChecklistHandler(db, custodyRepo, auditDispatcher)
	toolGroupHandler := handlers.NewToolGroupHandler(db, requestTransferUC)

	transferHandler := handlers.NewTransferHandler(requestTransferUC, toolHistoryUC)
	notificationHandler := handlers.NewNotificationHandler(listIncomingUC)

	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// PRIVATE API
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/company", companyHandler.GetMeCompany)
			secured.PATCH("/me/company", companyHandler.UpdateMeCompany)

			secured.GET("/me/users", userHandler.List)

			// ------------------------------
			// TOOLS
			// ------------------------------
			secured.GET("/me/tools", toolHandler.List)
			secured.GET("/me/tools/:id", toolHandler.Get)
			secured.GET("/me/tools/:id/history", transferHandler.History)
			secured.GET("/me/tools/:id/checklist", checklistHandler.List)

			// ------------------------------
			// TRANSFERS (batch endpoint)
			// ------------------------------
			secured.POST("/me/transfers", transferHandler.Create)
			secured.GET("/me/notifications", notificationHandler.List)

			// ------------------------------
			// TOOL GROUPS
			// ------------------------------
			secured.GET("/me/tool-groups", toolGroupHandler.List)
			secured.POST("/me/tool-groups", toolGroupHandler.Create)
			secured.PUT("/me/tool-groups/:id/members", toolGroupHandler.SetMembers)
			secured.DELETE("/me/tool-groups/:id", toolGroupHandler.Delete)
			secured.POST("/me/tool-groups/:id/transfer", toolGroupHandler.Transfer)

			// ------------------------------
			// ADMIN
			// ------------------------------
			admin := secured.Group("/")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/me/users", userHandler.Create)

				admin.POST("/me/tools", toolHandler.Create)
				admin.PATCH("/me/tools/:id", toolHandler.Update)
				admin.DELETE("/me/tools/:id", toolHandler.Delete)
				admin.POST("/me/tools/:id/photo", toolHandler.UploadPhoto)

				admin.POST("/me/tools/:id/checklist", checklistHandler.Create)
				admin.PATCH("/me/checklist-items/:itemId", checklistHandler.Update)
				admin.DELETE("/me/checklist-items/:itemId", checklistHandler.Delete)

				admin.GET("/me/audit-logs", auditLogsHandler.List)
			}
		}
	}
}
