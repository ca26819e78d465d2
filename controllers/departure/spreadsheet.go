package departure

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dispatch-board/logger"
	departureModel "dispatch-board/models/departure"
	"dispatch-board/services/departure_event"
	"dispatch-board/services/live"
	"dispatch-board/types"
	departureTypes "dispatch-board/types/departure"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const sheetName = "Departures"

// sheetColumns is the board's column set, shared by import and export.
var sheetColumns = []string{
	"Carrier", "Via", "Destination", "Trailer", "Collection Time",
	"Bay", "Seal No.", "Driver", "Schedule No.", "Status",
}

const exportTimeLayout = "2006-01-02 15:04"

// Export streams the current departure list as an xlsx workbook.
func (dc *DepartureController) Export(c *fiber.Ctx) error {
	rows, err := departureModel.List(dc.DB)
	if err != nil {
		logger.Error("Failed to load departures for export", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Database error",
			Data:    nil,
		})
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		logger.Error("Failed to build export workbook", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to build export file",
			Data:    nil,
		})
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		logger.Error("Failed to write export workbook", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to build export file",
			Data:    nil,
		})
	}

	fileName := fmt.Sprintf("departures_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, fileName))

	logger.Success(fmt.Sprintf("Exported %d departures", len(rows)))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

// buildWorkbook flattens the departures into one row per record with the
// board's column set. Absent optional fields export as "N/A".
func buildWorkbook(rows []departureModel.Departure) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for i, col := range sheetColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return nil, err
		}
	}

	for r, d := range rows {
		values := []string{
			string(d.Carrier),
			orNA(d.Via),
			d.Destination,
			d.TrailerNumber,
			d.CollectionTime.Format(exportTimeLayout),
			intOrNA(d.BayDoor),
			orNA(d.SealNumber),
			orNA(d.DriverName),
			d.ScheduleNumber,
			string(d.Status),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func intOrNA(i *int) string {
	if i == nil {
		return "N/A"
	}
	return strconv.Itoa(*i)
}

// Import ingests an uploaded xlsx file. Invalid rows are skipped and counted;
// the valid rows are committed in a single transaction.
func (dc *DepartureController) Import(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		logger.Error("No spreadsheet file provided", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "No spreadsheet file provided",
			Data:    nil,
		})
	}

	src, err := file.Open()
	if err != nil {
		logger.Error("Failed to open uploaded spreadsheet", err)
		return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to process uploaded file",
			Data:    nil,
		})
	}
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		logger.Error("Failed to read spreadsheet", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "File is not a readable spreadsheet",
			Data:    nil,
		})
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Spreadsheet has no sheets",
			Data:    nil,
		})
	}

	cells, err := f.GetRows(sheets[0])
	if err != nil {
		logger.Error("Failed to read spreadsheet rows", err)
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Failed to read spreadsheet rows",
			Data:    nil,
		})
	}
	if len(cells) < 2 {
		return dc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Spreadsheet has no data rows",
			Data:    nil,
		})
	}

	header := headerIndex(cells[0])
	actor := actorFromClaims(c)

	report := departureTypes.ImportReport{TotalRows: len(cells) - 1}
	var valid []departureModel.Departure
	for i, row := range cells[1:] {
		d, err := parseImportRow(header, row)
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %v", i+2, err))
			continue
		}
		d.CreatedBy = actor
		valid = append(valid, *d)
	}

	if len(valid) > 0 {
		err = dc.DB.Transaction(func(tx *gorm.DB) error {
			for i := range valid {
				if err := tx.Create(&valid[i]).Error; err != nil {
					return err
				}
				if err := departure_event.SnapshotDepartureToEvent(tx, &valid[i], departureModel.EventImported, actor); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			logger.Error("Failed to commit imported departures", err)
			return dc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Failed to save imported departures",
				Data:    nil,
			})
		}
	}
	report.Imported = len(valid)

	logger.Success(fmt.Sprintf("Imported %d departures, skipped %d", report.Imported, report.Skipped))
	if report.Imported > 0 {
		dc.refresh()
	}
	dc.announce(live.Notice{
		Kind:    live.NoticeImported,
		Title:   "Import complete",
		Message: fmt.Sprintf("%d departures imported, %d rows skipped.", report.Imported, report.Skipped),
	})

	return dc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Import complete",
		Data:    report,
	})
}

// headerIndex maps column names to their positions in the header row.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	return index
}

// cellValue returns a trimmed cell, mapping the "N/A" placeholder to empty.
func cellValue(header map[string]int, row []string, column string) string {
	i, ok := header[column]
	if !ok || i >= len(row) {
		return ""
	}
	v := strings.TrimSpace(row[i])
	if strings.EqualFold(v, "N/A") {
		return ""
	}
	return v
}

// parseImportRow validates one spreadsheet row and converts it into a
// departure. Only hard failures skip a row: a missing carrier,
// destination, trailer or schedule number, an unknown carrier, or an
// unparseable collection time. Bad bay numbers and unknown statuses
// degrade to absent / Waiting instead.
func parseImportRow(header map[string]int, row []string) (*departureModel.Departure, error) {
	carrier := cellValue(header, row, "Carrier")
	if carrier == "" {
		return nil, fmt.Errorf("missing carrier")
	}
	if !departureModel.Carrier(carrier).IsValid() {
		return nil, fmt.Errorf("unknown carrier: %s", carrier)
	}

	destination := cellValue(header, row, "Destination")
	if destination == "" {
		return nil, fmt.Errorf("missing destination")
	}

	trailer := cellValue(header, row, "Trailer")
	if trailer == "" {
		return nil, fmt.Errorf("missing trailer")
	}

	schedule := cellValue(header, row, "Schedule No.")
	if schedule == "" {
		return nil, fmt.Errorf("missing schedule number")
	}

	rawTime := cellValue(header, row, "Collection Time")
	collectionTime, err := parseCollectionTime(rawTime)
	if err != nil {
		return nil, err
	}

	status := departureModel.Status(cellValue(header, row, "Status"))
	if !status.IsValid() {
		status = departureModel.StatusWaiting
	}

	d := &departureModel.Departure{
		Carrier:        departureModel.Carrier(carrier),
		Destination:    destination,
		TrailerNumber:  trailer,
		CollectionTime: collectionTime,
		ScheduleNumber: schedule,
		Status:         status,
	}

	if via := cellValue(header, row, "Via"); via != "" {
		d.Via = &via
	}
	if seal := cellValue(header, row, "Seal No."); seal != "" {
		d.SealNumber = &seal
	}
	if driver := cellValue(header, row, "Driver"); driver != "" {
		d.DriverName = &driver
	}
	if bay := cellValue(header, row, "Bay"); bay != "" {
		if n, err := strconv.Atoi(bay); err == nil {
			d.BayDoor = &n
		}
	}

	return d, nil
}

// parseCollectionTime accepts both a spreadsheet date-serial number and a
// text timestamp.
func parseCollectionTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing collection time")
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid collection time serial %q: %w", raw, err)
		}
		return t, nil
	}

	t, err := now.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable collection time %q", raw)
	}
	return t, nil
}
