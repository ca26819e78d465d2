package departure

import "time"

// Event types recorded for a departure row.
const (
	EventCreated     = "created"
	EventUpdated     = "updated"
	EventDeleted     = "deleted"
	EventAutoDelayed = "auto_delayed"
	EventImported    = "imported"
)

// DepartureEvent is a full snapshot of a departure row at the moment an
// event happened, kept for audit.
type DepartureEvent struct {
	ID          uint `gorm:"primaryKey;autoIncrement" json:"id"`
	DepartureID uint `gorm:"not null;index" json:"departure_id"`

	Carrier        Carrier   `gorm:"type:varchar(50);not null" json:"carrier"`
	Destination    string    `gorm:"type:varchar(255);not null" json:"destination"`
	Via            *string   `gorm:"type:varchar(255)" json:"via,omitempty"`
	TrailerNumber  string    `gorm:"type:varchar(100);not null" json:"trailer_number"`
	CollectionTime time.Time `gorm:"not null" json:"collection_time"`
	BayDoor        *int      `json:"bay_door,omitempty"`
	SealNumber     *string   `gorm:"type:varchar(100)" json:"seal_number,omitempty"`
	DriverName     *string   `gorm:"type:varchar(255)" json:"driver_name,omitempty"`
	ScheduleNumber string    `gorm:"type:varchar(100);not null" json:"schedule_number"`
	Status         Status    `gorm:"type:varchar(50);not null" json:"status"`

	EventType  string    `gorm:"type:varchar(50);not null;index" json:"event_type"`
	RecordedBy string    `gorm:"type:varchar(255)" json:"recorded_by,omitempty"`
	RecordedAt time.Time `gorm:"autoCreateTime" json:"recorded_at"`
}
