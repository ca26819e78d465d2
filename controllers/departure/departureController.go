package departure

import (
	"dispatch-board/logger"
	"dispatch-board/services/live"
	"dispatch-board/types"
	"dispatch-board/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

// DepartureController handles departure-related HTTP requests
type DepartureController struct {
	DB     *gorm.DB
	Logger *logger.AsyncLogger
	Hub    *live.Hub
}

// NewDepartureController creates a new departure controller
func NewDepartureController(db *gorm.DB, asyncLogger *logger.AsyncLogger, hub *live.Hub) *DepartureController {
	return &DepartureController{
		DB:     db,
		Logger: asyncLogger,
		Hub:    hub,
	}
}

func (dc *DepartureController) logAPIRequest(c *fiber.Ctx) {
	if dc.Logger == nil {
		return
	}
	dc.Logger.Log(utils.CreateLogEntry(c))
}

// Helper function to send response and log in one call
func (dc *DepartureController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	dc.logAPIRequest(c)
	return result
}

// actorFromClaims returns the username of the authenticated operator, or a
// fallback for unauthenticated paths.
func actorFromClaims(c *fiber.Ctx) string {
	claims, ok := c.Locals("user").(jwt.MapClaims)
	if !ok {
		if m, ok := c.Locals("user").(map[string]interface{}); ok {
			claims = m
		} else {
			return "api"
		}
	}
	if username, ok := claims["username"].(string); ok && username != "" {
		return username
	}
	return "api"
}

// refresh pushes a fresh snapshot to board subscribers after a mutation.
func (dc *DepartureController) refresh() {
	if dc.Hub != nil {
		dc.Hub.Refresh()
	}
}

func (dc *DepartureController) announce(n live.Notice) {
	if dc.Hub != nil {
		dc.Hub.Announce(n)
	}
}
