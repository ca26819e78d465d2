package seeders

import (
	"log"
	"time"

	"dispatch-board/models/departure"

	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// SeedDepartures loads the demo board rows when the departures table is empty.
// Collection times are offsets from now so the board always has a mix of
// upcoming, due and overdue trucks.
func SeedDepartures(db *gorm.DB) {
	log.Printf("🔍 Checking departures seed data...")

	var count int64
	if err := db.Model(&departure.Departure{}).Count(&count).Error; err != nil {
		log.Printf("❌ Failed to count departures: %v", err)
		return
	}
	if count > 0 {
		log.Printf("✅ Departures table already populated (%d rows), skipping seed", count)
		return
	}

	now := time.Now()

	departures := []departure.Departure{
		{Carrier: departure.CarrierRoyalMail, Destination: "London", Via: strPtr("Birmingham"), TrailerNumber: "TR-12345", CollectionTime: now.Add(30 * time.Minute), BayDoor: intPtr(1), SealNumber: strPtr("S-RM123"), ScheduleNumber: "SCH-001", Status: departure.StatusWaiting, CreatedBy: "seed"},
		{Carrier: departure.CarrierEVRI, Destination: "Manchester", TrailerNumber: "TR-67890", CollectionTime: now.Add(5 * time.Minute), BayDoor: intPtr(3), SealNumber: strPtr("S-EV456"), ScheduleNumber: "SCH-002", Status: departure.StatusLoading, CreatedBy: "seed"},
		{Carrier: departure.CarrierYodel, Destination: "Glasgow", Via: strPtr("Edinburgh"), TrailerNumber: "TR-54321", CollectionTime: now.Add(-60 * time.Minute), BayDoor: intPtr(5), ScheduleNumber: "SCH-003", Status: departure.StatusDeparted, CreatedBy: "seed"},
		{Carrier: departure.CarrierMcBurney, Destination: "Belfast", TrailerNumber: "TR-09876", CollectionTime: now.Add(120 * time.Minute), BayDoor: intPtr(2), ScheduleNumber: "SCH-004", Status: departure.StatusWaiting, CreatedBy: "seed"},
		// Already past collection, the status clock will flag this one.
		{Carrier: departure.CarrierRoyalMail, Destination: "Cardiff", TrailerNumber: "TR-11223", CollectionTime: now.Add(-15 * time.Minute), BayDoor: intPtr(4), ScheduleNumber: "SCH-005", Status: departure.StatusWaiting, CreatedBy: "seed"},
		{Carrier: departure.CarrierEVRI, Destination: "Liverpool", TrailerNumber: "TR-44556", CollectionTime: now.Add(90 * time.Minute), BayDoor: intPtr(7), ScheduleNumber: "SCH-006", Status: departure.StatusCancelled, CreatedBy: "seed"},
	}

	if err := db.Create(&departures).Error; err != nil {
		log.Printf("❌ Failed to seed departures: %v", err)
		return
	}
	log.Printf("✅ Seeded %d departures", len(departures))
}
