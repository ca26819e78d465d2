package departure

import (
	"errors"
	"fmt"
	"strconv"

	"dispatch-board/logger"
	departureModel "dispatch-board/models/departure"
	"dispatch-board/services/departure_event"
	"dispatch-board/services/live"
	"dispatch-board/types"
	departureTypes "dispatch-board/types/departure"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Index returns all departures ordered by collection time (admin table).
func (dc *DepartureController) Index(c *fiber.Ctx) error {
	rows, err := departureModel.List(dc.DB)
	if err != nil {
		logger.Error("Failed to load departures", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Departures loaded successfully",
		Data:    rows,
	})
}

// boardRow is the public board's trimmed view of a departure.
type boardRow struct {
	ID             uint                        `json:"id"`
	Carrier        departureModel.Carrier      `json:"carrier"`
	CarrierStyle   departureModel.CarrierStyle `json:"carrier_style"`
	Via            *string                     `json:"via,omitempty"`
	Destination    string                      `json:"destination"`
	TrailerNumber  string                      `json:"trailer_number"`
	CollectionTime string                      `json:"collection_time"`
	BayDoor        *int                        `json:"bay_door,omitempty"`
	Status         departureModel.Status       `json:"status"`
}

func toBoardRow(d departureModel.Departure) boardRow {
	return boardRow{
		ID:             d.ID,
		Carrier:        d.Carrier,
		CarrierStyle:   departureModel.StyleFor(d.Carrier),
		Via:            d.Via,
		Destination:    d.Destination,
		TrailerNumber:  d.TrailerNumber,
		CollectionTime: d.CollectionTime.Format("15:04"),
		BayDoor:        d.BayDoor,
		Status:         d.Status,
	}
}

// Board returns the read-only public board payload: the same ordered list,
// trimmed to the columns the display shows, with the time-of-day component
// pre-formatted.
func (dc *DepartureController) Board(c *fiber.Ctx) error {
	rows, err := departureModel.List(dc.DB)
	if err != nil {
		logger.Error("Failed to load departures for board", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	board := make([]boardRow, 0, len(rows))
	for _, d := range rows {
		board = append(board, toBoardRow(d))
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Board loaded successfully",
		Data:    board,
	})
}

// Store creates a new departure. The store assigns the id; callers must not
// retry blindly on an ambiguous failure, a second create makes a second row.
func (dc *DepartureController) Store(c *fiber.Ctx) error {
	var req departureTypes.DepartureUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor := actorFromClaims(c)
	status := departureModel.Status(req.Status)
	if req.Status == "" {
		status = departureModel.StatusWaiting
	}

	row := departureModel.Departure{
		Carrier:        departureModel.Carrier(req.Carrier),
		Destination:    req.Destination,
		Via:            req.Via,
		TrailerNumber:  req.TrailerNumber,
		CollectionTime: req.CollectionTime,
		BayDoor:        req.BayDoor,
		SealNumber:     req.SealNumber,
		DriverName:     req.DriverName,
		ScheduleNumber: req.ScheduleNumber,
		Status:         status,
		CreatedBy:      actor,
	}

	err := dc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return departure_event.SnapshotDepartureToEvent(tx, &row, departureModel.EventCreated, actor)
	})
	if err != nil {
		logger.Error("Failed to create departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save departure",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Departure created successfully with ID: %d", row.ID))
	dc.refresh()
	dc.announce(live.Notice{
		Kind:    live.NoticeCreated,
		Title:   "Departure added",
		Message: fmt.Sprintf("Trailer %s for %s scheduled.", row.TrailerNumber, row.Carrier),
	})

	return dc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Departure created successfully",
		Data:    row,
	})
}

// Update replaces a departure with the edit form's full payload. A
// non-Departed truck moving to Departed gets its own notification.
func (dc *DepartureController) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid departure id",
			Data:    nil,
		})
	}

	var req departureTypes.DepartureUpsertRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var row departureModel.Departure
	if err := dc.DB.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Departure not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	actor := actorFromClaims(c)
	previousStatus := row.Status
	newStatus := departureModel.Status(req.Status)
	if req.Status == "" {
		newStatus = previousStatus
	}

	row.Carrier = departureModel.Carrier(req.Carrier)
	row.Destination = req.Destination
	row.Via = req.Via
	row.TrailerNumber = req.TrailerNumber
	row.CollectionTime = req.CollectionTime
	row.BayDoor = req.BayDoor
	row.SealNumber = req.SealNumber
	row.DriverName = req.DriverName
	row.ScheduleNumber = req.ScheduleNumber
	row.Status = newStatus
	row.UpdatedBy = actor

	err = dc.DB.Transaction(func(tx *gorm.DB) error {
		// Save writes all fields: this endpoint is the explicit full
		// replacement from the edit form.
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		return departure_event.SnapshotDepartureToEvent(tx, &row, departureModel.EventUpdated, actor)
	})
	if err != nil {
		logger.Error("Failed to update departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save departure",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Departure %d updated successfully", row.ID))
	dc.refresh()
	dc.announce(live.Notice{
		Kind:    live.NoticeUpdated,
		Title:   "Departure updated",
		Message: fmt.Sprintf("Trailer %s for %s updated.", row.TrailerNumber, row.Carrier),
	})
	if previousStatus != departureModel.StatusDeparted && newStatus == departureModel.StatusDeparted {
		dc.announce(live.Notice{
			Kind:    live.NoticeDeparted,
			Title:   "Truck Departed",
			Message: fmt.Sprintf("Trailer %s for %s has departed.", row.TrailerNumber, row.Carrier),
		})
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Departure updated successfully",
		Data:    row,
	})
}

// UpdateStatus is the status-only merge write: no other field is touched.
func (dc *DepartureController) UpdateStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid departure id",
			Data:    nil,
		})
	}

	var req departureTypes.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	if err := req.Validate(); err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
			Data:    nil,
		})
	}

	var row departureModel.Departure
	if err := dc.DB.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Departure not found",
				Data:    nil,
			})
		}
		logger.Error("Database error while loading departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	actor := actorFromClaims(c)
	previousStatus := row.Status
	newStatus := departureModel.Status(req.Status)

	err = dc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&departureModel.Departure{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"status":     newStatus,
				"updated_by": actor,
			}).Error; err != nil {
			return err
		}
		row.Status = newStatus
		row.UpdatedBy = actor
		return departure_event.SnapshotDepartureToEvent(tx, &row, departureModel.EventUpdated, actor)
	})
	if err != nil {
		logger.Error("Failed to update departure status", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to save departure",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Departure %d status set to %s", row.ID, newStatus))
	dc.refresh()
	dc.announce(live.Notice{
		Kind:    live.NoticeStatusChanged,
		Title:   "Status changed",
		Message: fmt.Sprintf("Trailer %s for %s is now %s.", row.TrailerNumber, row.Carrier, newStatus),
	})
	if previousStatus != departureModel.StatusDeparted && newStatus == departureModel.StatusDeparted {
		dc.announce(live.Notice{
			Kind:    live.NoticeDeparted,
			Title:   "Truck Departed",
			Message: fmt.Sprintf("Trailer %s for %s has departed.", row.TrailerNumber, row.Carrier),
		})
	}

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Departure status updated successfully",
		Data:    row,
	})
}

// Destroy deletes a departure. Deleting a row that is already gone is a
// success, not an error.
func (dc *DepartureController) Destroy(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid departure id",
			Data:    nil,
		})
	}

	actor := actorFromClaims(c)

	var row departureModel.Departure
	err = dc.DB.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Idempotent delete.
		return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Departure already removed",
			Data:    nil,
		})
	}
	if err != nil {
		logger.Error("Database error while loading departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	err = dc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&departureModel.Departure{}, row.ID).Error; err != nil {
			return err
		}
		return departure_event.SnapshotDepartureToEvent(tx, &row, departureModel.EventDeleted, actor)
	})
	if err != nil {
		logger.Error("Failed to delete departure", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to delete departure",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Departure %d deleted", row.ID))
	dc.refresh()
	dc.announce(live.Notice{
		Kind:    live.NoticeDeleted,
		Title:   "Departure removed",
		Message: fmt.Sprintf("Trailer %s for %s removed from the board.", row.TrailerNumber, row.Carrier),
	})

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Departure deleted successfully",
		Data:    nil,
	})
}

// Clear removes every departure. An empty board is a no-op reported as such.
func (dc *DepartureController) Clear(c *fiber.Ctx) error {
	var count int64
	if err := dc.DB.Model(&departureModel.Departure{}).Count(&count).Error; err != nil {
		logger.Error("Failed to count departures", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	if count == 0 {
		return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "No departures to clear",
			Data:    fiber.Map{"deleted": 0},
		})
	}

	if err := dc.DB.Where("1 = 1").Delete(&departureModel.Departure{}).Error; err != nil {
		logger.Error("Failed to clear departures", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to clear departures",
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Cleared %d departures", count))
	dc.refresh()
	dc.announce(live.Notice{
		Kind:    live.NoticeCleared,
		Title:   "Board cleared",
		Message: fmt.Sprintf("%d departures removed.", count),
	})

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "All departures cleared",
		Data:    fiber.Map{"deleted": count},
	})
}
