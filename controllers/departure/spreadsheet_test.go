package departure

import (
	"testing"
	"time"

	departureModel "dispatch-board/models/departure"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func importHeader() map[string]int {
	return headerIndex(sheetColumns)
}

// row builds a spreadsheet row in the board's column order.
func row(carrier, via, destination, trailer, collectionTime, bay, seal, driver, schedule, status string) []string {
	return []string{carrier, via, destination, trailer, collectionTime, bay, seal, driver, schedule, status}
}

func TestParseImportRowMinimalRow(t *testing.T) {
	d, err := parseImportRow(importHeader(),
		row("Yodel", "N/A", "Glasgow", "TR-1", "2024-01-01 09:00", "N/A", "N/A", "N/A", "SCH-9", ""))
	require.NoError(t, err)

	assert.Equal(t, departureModel.CarrierYodel, d.Carrier)
	assert.Equal(t, "Glasgow", d.Destination)
	assert.Equal(t, "TR-1", d.TrailerNumber)
	assert.Equal(t, "SCH-9", d.ScheduleNumber)
	assert.Equal(t, departureModel.StatusWaiting, d.Status, "absent status defaults to Waiting")
	assert.Nil(t, d.Via)
	assert.Nil(t, d.BayDoor)
	assert.Nil(t, d.SealNumber)
	assert.Nil(t, d.DriverName)
	assert.Equal(t, "2024-01-01 09:00", d.CollectionTime.Format(exportTimeLayout))
}

func TestParseImportRowFullRow(t *testing.T) {
	d, err := parseImportRow(importHeader(),
		row("Royal Mail", "Birmingham", "London", "TR-2", "2024-03-15 14:30", "4", "S-123", "Jane Smith", "SCH-1", "Loading"))
	require.NoError(t, err)

	require.NotNil(t, d.Via)
	assert.Equal(t, "Birmingham", *d.Via)
	require.NotNil(t, d.BayDoor)
	assert.Equal(t, 4, *d.BayDoor)
	require.NotNil(t, d.SealNumber)
	assert.Equal(t, "S-123", *d.SealNumber)
	require.NotNil(t, d.DriverName)
	assert.Equal(t, "Jane Smith", *d.DriverName)
	assert.Equal(t, departureModel.StatusLoading, d.Status)
}

func TestParseImportRowSkipReasons(t *testing.T) {
	cases := []struct {
		name string
		row  []string
	}{
		{"missing carrier", row("", "", "London", "TR-1", "2024-01-01 09:00", "", "", "", "SCH-1", "")},
		{"unknown carrier", row("DHL", "", "London", "TR-1", "2024-01-01 09:00", "", "", "", "SCH-1", "")},
		{"missing destination", row("EVRI", "", "", "TR-1", "2024-01-01 09:00", "", "", "", "SCH-1", "")},
		{"missing trailer", row("EVRI", "", "London", "", "2024-01-01 09:00", "", "", "", "SCH-1", "")},
		{"missing schedule", row("EVRI", "", "London", "TR-1", "2024-01-01 09:00", "", "", "", "", "")},
		{"missing collection time", row("EVRI", "", "London", "TR-1", "", "", "", "", "SCH-1", "")},
		{"unparseable collection time", row("EVRI", "", "London", "TR-1", "next tuesday-ish", "", "", "", "SCH-1", "")},
		{"N/A carrier is absent", row("N/A", "", "London", "TR-1", "2024-01-01 09:00", "", "", "", "SCH-1", "")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseImportRow(importHeader(), tc.row)
			assert.Error(t, err)
		})
	}
}

func TestParseImportRowDegradesInsteadOfSkipping(t *testing.T) {
	// A bad bay number and an unknown status do not invalidate the row.
	d, err := parseImportRow(importHeader(),
		row("McBurney", "", "Belfast", "TR-3", "2024-01-01 09:00", "dock seven", "", "", "SCH-3", "EnRoute"))
	require.NoError(t, err)
	assert.Nil(t, d.BayDoor)
	assert.Equal(t, departureModel.StatusWaiting, d.Status)
}

func TestParseImportRowShortRow(t *testing.T) {
	// Trailing cells missing entirely from the row slice.
	short := []string{"EVRI", "", "Manchester", "TR-4", "2024-01-01 09:00"}
	_, err := parseImportRow(importHeader(), short)
	assert.Error(t, err, "schedule column absent from a short row")
}

func TestParseCollectionTimeSerialDate(t *testing.T) {
	// 45292.5 is 2024-01-01 12:00 as a spreadsheet date serial.
	got, err := parseCollectionTime("45292.5")
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 12, got.Hour())
}

func TestParseCollectionTimeText(t *testing.T) {
	got, err := parseCollectionTime("2024-06-30 23:45")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-30 23:45", got.Format(exportTimeLayout))
}

func TestWorkbookRoundTrip(t *testing.T) {
	via := "Edinburgh"
	bay := 2
	seal := "S-777"
	rows := []departureModel.Departure{
		{
			ID:             1,
			Carrier:        departureModel.CarrierYodel,
			Destination:    "Glasgow",
			Via:            &via,
			TrailerNumber:  "TR-10",
			CollectionTime: time.Date(2024, 5, 20, 8, 30, 0, 0, time.Local),
			BayDoor:        &bay,
			SealNumber:     &seal,
			ScheduleNumber: "SCH-10",
			Status:         departureModel.StatusLoading,
		},
		{
			ID:             2,
			Carrier:        departureModel.CarrierMontgomery,
			Destination:    "Dublin",
			TrailerNumber:  "TR-11",
			CollectionTime: time.Date(2024, 5, 20, 9, 0, 0, 0, time.Local),
			ScheduleNumber: "SCH-11",
			Status:         departureModel.StatusWaiting,
		},
	}

	f, err := buildWorkbook(rows)
	require.NoError(t, err)
	defer f.Close()

	cells, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, cells, 3, "header plus two data rows")
	assert.Equal(t, sheetColumns, cells[0])

	header := headerIndex(cells[0])
	for i, want := range rows {
		got, err := parseImportRow(header, cells[i+1])
		require.NoError(t, err)

		assert.Equal(t, want.Carrier, got.Carrier)
		assert.Equal(t, want.Destination, got.Destination)
		assert.Equal(t, want.TrailerNumber, got.TrailerNumber)
		assert.Equal(t, want.ScheduleNumber, got.ScheduleNumber)
		assert.Equal(t, want.Status, got.Status)
		assert.Equal(t, want.CollectionTime.Format(exportTimeLayout), got.CollectionTime.Format(exportTimeLayout))
		assert.Equal(t, want.Via, got.Via)
		assert.Equal(t, want.BayDoor, got.BayDoor)
		assert.Equal(t, want.SealNumber, got.SealNumber)
		assert.Equal(t, want.DriverName, got.DriverName)
	}
}

func TestWorkbookExportsAbsentFieldsAsNA(t *testing.T) {
	rows := []departureModel.Departure{
		{
			ID:             1,
			Carrier:        departureModel.CarrierEVRI,
			Destination:    "Manchester",
			TrailerNumber:  "TR-20",
			CollectionTime: time.Date(2024, 5, 20, 10, 0, 0, 0, time.Local),
			ScheduleNumber: "SCH-20",
			Status:         departureModel.StatusWaiting,
		},
	}

	f, err := buildWorkbook(rows)
	require.NoError(t, err)
	defer f.Close()

	cells, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, cells, 2)

	header := headerIndex(cells[0])
	data := cells[1]
	assert.Equal(t, "N/A", data[header["Via"]])
	assert.Equal(t, "N/A", data[header["Bay"]])
	assert.Equal(t, "N/A", data[header["Seal No."]])
	assert.Equal(t, "N/A", data[header["Driver"]])
}
