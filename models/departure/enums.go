package departure

// Status is the lifecycle state of a departure.
type Status string

const (
	StatusWaiting   Status = "Waiting"
	StatusLoading   Status = "Loading"
	StatusDeparted  Status = "Departed"
	StatusCancelled Status = "Cancelled"
	StatusDelayed   Status = "Delayed"
)

// Helper methods for Status
func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusWaiting, StatusLoading, StatusDeparted, StatusCancelled, StatusDelayed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if automatic transitions must never leave this status.
func (s Status) IsTerminal() bool {
	return s == StatusDeparted || s == StatusCancelled
}

// CanAutoTransition returns true if the status clock may advance this status.
// Delayed is excluded: only an operator moves a departure out of Delayed.
func (s Status) CanAutoTransition() bool {
	return s == StatusWaiting || s == StatusLoading
}

// GetAllStatuses returns all valid departure statuses.
func GetAllStatuses() []Status {
	return []Status{
		StatusWaiting,
		StatusLoading,
		StatusDeparted,
		StatusCancelled,
		StatusDelayed,
	}
}

// Carrier is one of the known shipping carriers served by the depot.
type Carrier string

const (
	CarrierRoyalMail  Carrier = "Royal Mail"
	CarrierEVRI       Carrier = "EVRI"
	CarrierYodel      Carrier = "Yodel"
	CarrierMcBurney   Carrier = "McBurney"
	CarrierMontgomery Carrier = "Montgomery"
)

func (c Carrier) String() string {
	return string(c)
}

func (c Carrier) IsValid() bool {
	switch c {
	case CarrierRoyalMail, CarrierEVRI, CarrierYodel, CarrierMcBurney, CarrierMontgomery:
		return true
	default:
		return false
	}
}

// GetAllCarriers returns all known carriers.
func GetAllCarriers() []Carrier {
	return []Carrier{
		CarrierRoyalMail,
		CarrierEVRI,
		CarrierYodel,
		CarrierMcBurney,
		CarrierMontgomery,
	}
}
