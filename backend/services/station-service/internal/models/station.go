package models

// StationSummary is the read-only listing view of a station.
type StationSummary struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Address        string        `json:"address"`
	DetailLocation string        `json:"detail_location"`
	Status         Status        `json:"status"`
	FaultCauses    FaultCauseSet `json:"fault_cause_ids"`
}

// LockedStation is the current state of a station as read under its row lock.
type LockedStation struct {
	StationID   int64
	AddressID   int64
	Status      Status
	FaultCauses FaultCauseSet
}

// NewStation carries everything needed to register a station and its address record.
type NewStation struct {
	ID             int64
	Name           string
	Address        string
	DetailLocation string
	Status         Status
	FaultCauses    FaultCauseSet
}
