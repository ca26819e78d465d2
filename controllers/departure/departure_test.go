package departure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dispatch-board/database"
	departureModel "dispatch-board/models/departure"
	"dispatch-board/services/live"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.MigrateForTest(db))
	return db
}

// setupTestApp wires the controller straight onto a fiber app, no auth
// middleware; permission checks are not under test here.
func setupTestApp(t *testing.T) (*fiber.App, *gorm.DB, *live.Hub) {
	t.Helper()

	db := setupTestDB(t)
	hub := live.NewHub(func() ([]departureModel.Departure, error) {
		return departureModel.List(db)
	})
	dc := NewDepartureController(db, nil, hub)

	app := fiber.New()
	app.Get("/api/departures", dc.Index)
	app.Get("/api/board", dc.Board)
	app.Post("/api/departures", dc.Store)
	app.Put("/api/departures/:id", dc.Update)
	app.Patch("/api/departures/:id/status", dc.UpdateStatus)
	app.Delete("/api/departures/:id", dc.Destroy)
	app.Delete("/api/departures", dc.Clear)
	app.Post("/api/departures/import", dc.Import)
	app.Get("/api/departures/export", dc.Export)

	return app, db, hub
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	var envelope struct {
		Message string          `json:"message"`
		Status  int             `json:"status"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	if out != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
}

func upsertBody(carrier, destination, trailer, schedule string, collectionTime time.Time) map[string]interface{} {
	return map[string]interface{}{
		"carrier":         carrier,
		"destination":     destination,
		"trailer_number":  trailer,
		"schedule_number": schedule,
		"collection_time": collectionTime.Format(time.RFC3339),
	}
}

func TestStoreAndIndexOrdering(t *testing.T) {
	app, _, _ := setupTestApp(t)
	base := time.Now().Truncate(time.Second)

	// Create out of order; Index must come back sorted by collection time.
	later := upsertBody("EVRI", "Manchester", "TR-2", "SCH-2", base.Add(2*time.Hour))
	earlier := upsertBody("Royal Mail", "London", "TR-1", "SCH-1", base.Add(time.Hour))

	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/departures", later))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, fiber.MethodPost, "/api/departures", earlier))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/departures", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []departureModel.Departure
	decodeData(t, resp, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "TR-1", rows[0].TrailerNumber)
	assert.Equal(t, "TR-2", rows[1].TrailerNumber)
	assert.Equal(t, departureModel.StatusWaiting, rows[0].Status, "status defaults to Waiting")
}

func TestStoreRejectsUnknownCarrier(t *testing.T) {
	app, _, _ := setupTestApp(t)

	body := upsertBody("DHL", "London", "TR-1", "SCH-1", time.Now())
	resp, err := app.Test(jsonRequest(t, fiber.MethodPost, "/api/departures", body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateMissingDepartureIs404(t *testing.T) {
	app, _, _ := setupTestApp(t)

	body := upsertBody("EVRI", "Manchester", "TR-1", "SCH-1", time.Now())
	resp, err := app.Test(jsonRequest(t, fiber.MethodPut, "/api/departures/999", body))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestUpdateStatusTouchesOnlyStatus(t *testing.T) {
	app, db, _ := setupTestApp(t)

	via := "Birmingham"
	row := departureModel.Departure{
		Carrier:        departureModel.CarrierRoyalMail,
		Destination:    "London",
		Via:            &via,
		TrailerNumber:  "TR-1",
		CollectionTime: time.Now().Add(time.Hour),
		ScheduleNumber: "SCH-1",
		Status:         departureModel.StatusWaiting,
		CreatedBy:      "seed",
	}
	require.NoError(t, db.Create(&row).Error)

	resp, err := app.Test(jsonRequest(t, fiber.MethodPatch,
		fmt.Sprintf("/api/departures/%d/status", row.ID),
		map[string]string{"status": "Loading"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var got departureModel.Departure
	require.NoError(t, db.First(&got, row.ID).Error)
	assert.Equal(t, departureModel.StatusLoading, got.Status)
	require.NotNil(t, got.Via)
	assert.Equal(t, "Birmingham", *got.Via, "non-status fields untouched")
	assert.Equal(t, "seed", got.CreatedBy)

	var events []departureModel.DepartureEvent
	require.NoError(t, db.Where("departure_id = ?", row.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, departureModel.EventUpdated, events[0].EventType)
}

func TestDepartedTransitionAnnouncesDeparture(t *testing.T) {
	app, db, hub := setupTestApp(t)

	row := departureModel.Departure{
		Carrier:        departureModel.CarrierYodel,
		Destination:    "Glasgow",
		TrailerNumber:  "TR-1",
		CollectionTime: time.Now(),
		ScheduleNumber: "SCH-1",
		Status:         departureModel.StatusLoading,
	}
	require.NoError(t, db.Create(&row).Error)

	var mu sync.Mutex
	var notices []live.Notice
	unsub := hub.SubscribeNotices(func(n live.Notice) {
		mu.Lock()
		notices = append(notices, n)
		mu.Unlock()
	})
	defer unsub()

	resp, err := app.Test(jsonRequest(t, fiber.MethodPatch,
		fmt.Sprintf("/api/departures/%d/status", row.ID),
		map[string]string{"status": "Departed"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	mu.Lock()
	kinds := make([]string, 0, len(notices))
	for _, n := range notices {
		kinds = append(kinds, n.Kind)
	}
	notices = nil
	mu.Unlock()
	assert.Contains(t, kinds, live.NoticeStatusChanged)
	assert.Contains(t, kinds, live.NoticeDeparted, "Departed transition carries its own notice")

	// Departed again is not a transition; no second departed notice.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPatch,
		fmt.Sprintf("/api/departures/%d/status", row.ID),
		map[string]string{"status": "Departed"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	mu.Lock()
	for _, n := range notices {
		assert.NotEqual(t, live.NoticeDeparted, n.Kind)
	}
	mu.Unlock()
}

func TestDestroyIsIdempotent(t *testing.T) {
	app, db, _ := setupTestApp(t)

	row := departureModel.Departure{
		Carrier:        departureModel.CarrierEVRI,
		Destination:    "Manchester",
		TrailerNumber:  "TR-1",
		CollectionTime: time.Now(),
		ScheduleNumber: "SCH-1",
		Status:         departureModel.StatusWaiting,
	}
	require.NoError(t, db.Create(&row).Error)

	target := fmt.Sprintf("/api/departures/%d", row.ID)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, target, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodDelete, target, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode, "deleting an already-deleted row succeeds")
}

func TestClearOnEmptyBoard(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/departures", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var data map[string]interface{}
	decodeData(t, resp, &data)
	assert.Equal(t, float64(0), data["deleted"])
}

func TestClearRemovesEverything(t *testing.T) {
	app, db, _ := setupTestApp(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&departureModel.Departure{
			Carrier:        departureModel.CarrierYodel,
			Destination:    "Glasgow",
			TrailerNumber:  fmt.Sprintf("TR-%d", i),
			CollectionTime: time.Now(),
			ScheduleNumber: fmt.Sprintf("SCH-%d", i),
			Status:         departureModel.StatusWaiting,
		}).Error)
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodDelete, "/api/departures", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var count int64
	require.NoError(t, db.Model(&departureModel.Departure{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBoardPayloadShape(t *testing.T) {
	app, db, _ := setupTestApp(t)

	require.NoError(t, db.Create(&departureModel.Departure{
		Carrier:        departureModel.CarrierRoyalMail,
		Destination:    "London",
		TrailerNumber:  "TR-1",
		CollectionTime: time.Date(2024, 5, 20, 14, 30, 0, 0, time.Local),
		ScheduleNumber: "SCH-1",
		Status:         departureModel.StatusWaiting,
	}).Error)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/board", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var rows []map[string]interface{}
	decodeData(t, resp, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "14:30", rows[0]["collection_time"])
	style, ok := rows[0]["carrier_style"].(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, style["color"])
}

func TestImportEndToEnd(t *testing.T) {
	app, db, _ := setupTestApp(t)

	f, err := buildWorkbook(nil)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheetName, "A2", &[]interface{}{
		"Yodel", "N/A", "Glasgow", "TR-1", "2024-01-01 09:00", "3", "N/A", "N/A", "SCH-1", "Waiting",
	}))
	require.NoError(t, f.SetSheetRow(sheetName, "A3", &[]interface{}{
		"DHL", "N/A", "Paris", "TR-2", "2024-01-01 10:00", "N/A", "N/A", "N/A", "SCH-2", "Waiting",
	}))

	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))
	require.NoError(t, f.Close())

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "departures.xlsx")
	require.NoError(t, err)
	_, err = io.Copy(part, &workbook)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(fiber.MethodPost, "/api/departures/import", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var report struct {
		TotalRows int      `json:"total_rows"`
		Imported  int      `json:"imported"`
		Skipped   int      `json:"skipped"`
		Errors    []string `json:"errors"`
	}
	decodeData(t, resp, &report)
	assert.Equal(t, 2, report.TotalRows)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "row 3")

	var rows []departureModel.Departure
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, departureModel.CarrierYodel, rows[0].Carrier)
	require.NotNil(t, rows[0].BayDoor)
	assert.Equal(t, 3, *rows[0].BayDoor)
}

func TestExportContentType(t *testing.T) {
	app, db, _ := setupTestApp(t)

	require.NoError(t, db.Create(&departureModel.Departure{
		Carrier:        departureModel.CarrierMontgomery,
		Destination:    "Dublin",
		TrailerNumber:  "TR-1",
		CollectionTime: time.Now(),
		ScheduleNumber: "SCH-1",
		Status:         departureModel.StatusWaiting,
	}).Error)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/departures/export", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "departures_")

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
}
