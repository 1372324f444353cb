package models

import "time"

// HistoryEntry is one immutable maintenance history record.
type HistoryEntry struct {
	ID          int64         `json:"id"`
	ActorID     int64         `json:"user_id"`
	StationID   int64         `json:"station_id"`
	Status      Status        `json:"new_status"`
	FaultCauses FaultCauseSet `json:"new_fault_cause_ids"`
	ChangedAt   time.Time     `json:"updated_at"`
}
