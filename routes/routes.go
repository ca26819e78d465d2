package routes

import (
	"dispatch-board/constants"
	"dispatch-board/controllers/departure"
	"dispatch-board/logger"
	"dispatch-board/middleware"
	"dispatch-board/services/live"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *live.Hub) {
	asyncLogger := logger.NewAsyncLogger(db)
	departureController := departure.NewDepartureController(db, asyncLogger, hub)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Index route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "dispatch-board",
			"status":  "ok",
		})
	})

	/*=============================================================================
	| Public Routes (warehouse display screens, no login)
	===============================================================================*/
	api := app.Group("/api")
	api.Get("/departures", departureController.Index)
	api.Get("/board", departureController.Board)
	api.Get("/board/ws", departure.UpgradeBoardStream, departureController.BoardStream())

	/*=============================================================================
	| Dispatch Routes (mutations require a dispatch role)
	===============================================================================*/
	departureGroup := api.Group("/departures")

	departureGroup.Post("/", middleware.RequirePermissions(
		constants.DispatchWritePermissions...,
	), departureController.Store)

	departureGroup.Put("/:id", middleware.RequirePermissions(
		constants.DispatchWritePermissions...,
	), departureController.Update)

	departureGroup.Patch("/:id/status", middleware.RequirePermissions(
		constants.DispatchWritePermissions...,
	), departureController.UpdateStatus)

	departureGroup.Delete("/:id", middleware.RequirePermissions(
		constants.DispatchWritePermissions...,
	), departureController.Destroy)

	departureGroup.Delete("/", middleware.RequirePermissions(
		constants.PermAdminFull,
	), departureController.Clear)

	// Spreadsheet import/export
	departureGroup.Post("/import", middleware.RequirePermissions(
		constants.DispatchWritePermissions...,
	), departureController.Import)

	departureGroup.Get("/export", middleware.RequireAnyPermission(), departureController.Export)

	/*=============================================================================
	| Route Optimization (AI)
	===============================================================================*/
	departureGroup.Post("/:id/route-status", middleware.RequireAnyPermission(), departureController.RouteStatus)
	api.Post("/optimize", middleware.RequireAnyPermission(), departureController.Optimize)
}
