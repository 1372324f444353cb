package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// FaultCause is a catalog entry describing why a station is out of service.
type FaultCause struct {
	ID        int64     `json:"id"`
	Text      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// FaultCauseSet is an immutable set of fault cause ids kept in canonical
// (ascending, de-duplicated) order. The zero value is the empty set.
type FaultCauseSet struct {
	ids []int64
}

// NewFaultCauseSet builds a set from ids in any order, dropping duplicates.
func NewFaultCauseSet(ids ...int64) FaultCauseSet {
	if len(ids) == 0 {
		return FaultCauseSet{}
	}
	canonical := slices.Clone(ids)
	slices.Sort(canonical)
	return FaultCauseSet{ids: slices.Compact(canonical)}
}

// IDs returns a copy of the ids in ascending order. Never nil.
func (s FaultCauseSet) IDs() []int64 {
	if len(s.ids) == 0 {
		return []int64{}
	}
	return slices.Clone(s.ids)
}

func (s FaultCauseSet) Len() int { return len(s.ids) }

func (s FaultCauseSet) IsEmpty() bool { return len(s.ids) == 0 }

func (s FaultCauseSet) Contains(id int64) bool {
	_, found := slices.BinarySearch(s.ids, id)
	return found
}

// Equal reports set equality.
func (s FaultCauseSet) Equal(other FaultCauseSet) bool {
	return slices.Equal(s.ids, other.ids)
}

// Validate rejects non-positive ids.
func (s FaultCauseSet) Validate() error {
	for _, id := range s.ids {
		if id <= 0 {
			return fmt.Errorf("fault cause id must be positive, got %d", id)
		}
	}
	return nil
}

// MarshalJSON always renders an array, never null.
func (s FaultCauseSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON accepts null, an array of numbers, or a comma separated
// string ("1,3") as older clients send it.
func (s *FaultCauseSet) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = FaultCauseSet{}
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		ids, err := parseIDList(raw)
		if err != nil {
			return fmt.Errorf("models: fault causes: %w", err)
		}
		*s = NewFaultCauseSet(ids...)
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("models: fault causes: %w", err)
	}
	*s = NewFaultCauseSet(ids...)
	return nil
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "NULL") {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
