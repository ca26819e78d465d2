package departure

import (
	"time"

	"gorm.io/gorm"
)

// Departure represents one scheduled truck dispatch record.
type Departure struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Carrier        Carrier   `gorm:"type:varchar(50);not null" json:"carrier"`
	Destination    string    `gorm:"type:varchar(255);not null" json:"destination"`
	Via            *string   `gorm:"type:varchar(255)" json:"via,omitempty"`
	TrailerNumber  string    `gorm:"type:varchar(100);not null" json:"trailer_number"`
	CollectionTime time.Time `gorm:"not null;index" json:"collection_time"`
	BayDoor        *int      `json:"bay_door,omitempty"`
	SealNumber     *string   `gorm:"type:varchar(100)" json:"seal_number,omitempty"`
	DriverName     *string   `gorm:"type:varchar(255)" json:"driver_name,omitempty"`
	ScheduleNumber string    `gorm:"type:varchar(100);not null" json:"schedule_number"`
	Status         Status    `gorm:"type:varchar(50);not null" json:"status"`

	CreatedBy string    `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// List returns every departure ordered by collection time ascending.
// Ties are broken by id so the exposed order is stable.
func List(db *gorm.DB) ([]Departure, error) {
	var rows []Departure
	err := db.Order("collection_time asc, id asc").Find(&rows).Error
	return rows, err
}
