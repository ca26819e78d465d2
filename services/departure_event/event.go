package departure_event

import (
	departureModel "dispatch-board/models/departure"

	"gorm.io/gorm"
)

// SnapshotDepartureToEvent writes a full snapshot of a departure row into
// DepartureEvent with the given event type.
func SnapshotDepartureToEvent(tx *gorm.DB, d *departureModel.Departure, eventType string, recordedBy string) error {
	ev := departureModel.DepartureEvent{
		DepartureID:    d.ID,
		Carrier:        d.Carrier,
		Destination:    d.Destination,
		Via:            d.Via,
		TrailerNumber:  d.TrailerNumber,
		CollectionTime: d.CollectionTime,
		BayDoor:        d.BayDoor,
		SealNumber:     d.SealNumber,
		DriverName:     d.DriverName,
		ScheduleNumber: d.ScheduleNumber,
		Status:         d.Status,

		EventType:  eventType,
		RecordedBy: recordedBy,
	}

	return tx.Create(&ev).Error
}
