package departure

import (
	"fmt"
	"time"

	departureModel "dispatch-board/models/departure"
)

// DepartureUpsertRequest is the payload for creating a departure or replacing
// one from the edit form. Optional fields stay nil when the form leaves them
// blank.
type DepartureUpsertRequest struct {
	Carrier        string    `json:"carrier" validate:"required"`
	Destination    string    `json:"destination" validate:"required,min=1,max=255"`
	Via            *string   `json:"via" validate:"omitempty,max=255"`
	TrailerNumber  string    `json:"trailer_number" validate:"required,min=1,max=100"`
	CollectionTime time.Time `json:"collection_time" validate:"required"`
	BayDoor        *int      `json:"bay_door" validate:"omitempty,min=0"`
	SealNumber     *string   `json:"seal_number" validate:"omitempty,max=100"`
	DriverName     *string   `json:"driver_name" validate:"omitempty,max=255"`
	ScheduleNumber string    `json:"schedule_number" validate:"required,min=1,max=100"`
	Status         string    `json:"status" validate:"omitempty"`
}

func (r DepartureUpsertRequest) Validate() error {
	if r.Carrier == "" {
		return fmt.Errorf("carrier is required")
	}
	if !departureModel.Carrier(r.Carrier).IsValid() {
		return fmt.Errorf("unknown carrier: %s", r.Carrier)
	}
	if r.Destination == "" {
		return fmt.Errorf("destination is required")
	}
	if r.TrailerNumber == "" {
		return fmt.Errorf("trailerNumber is required")
	}
	if r.CollectionTime.IsZero() {
		return fmt.Errorf("collectionTime is required")
	}
	if r.ScheduleNumber == "" {
		return fmt.Errorf("scheduleNumber is required")
	}
	if r.Status != "" && !departureModel.Status(r.Status).IsValid() {
		return fmt.Errorf("unknown status: %s", r.Status)
	}
	return nil
}

// StatusUpdateRequest is the payload for a status-only merge write.
type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
}

func (r StatusUpdateRequest) Validate() error {
	if r.Status == "" {
		return fmt.Errorf("status is required")
	}
	if !departureModel.Status(r.Status).IsValid() {
		return fmt.Errorf("unknown status: %s", r.Status)
	}
	return nil
}

// ImportReport summarizes a spreadsheet import batch.
type ImportReport struct {
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// RouteStatusRequest is the input to the route optimization call.
type RouteStatusRequest struct {
	CurrentLocation string `json:"current_location" validate:"required,min=3"`
	Destination     string `json:"destination" validate:"required,min=3"`
	Via             string `json:"via" validate:"omitempty"`
	TrafficData     string `json:"traffic_data" validate:"omitempty"`
}

func (r RouteStatusRequest) Validate() error {
	if len(r.CurrentLocation) < 3 {
		return fmt.Errorf("currentLocation is required")
	}
	if len(r.Destination) < 3 {
		return fmt.Errorf("destination is required")
	}
	return nil
}

// RouteStatusResponse is the schema the model must return.
type RouteStatusResponse struct {
	OptimizedRoute string `json:"optimized_route"`
	EstimatedTime  string `json:"estimated_time"`
	Reasoning      string `json:"reasoning"`
	RoadWarnings   string `json:"road_warnings,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}
