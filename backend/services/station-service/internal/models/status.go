package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the operational state of a station. The numeric values are the
// persisted status ids.
type Status int16

const (
	StatusAvailable        Status = 1
	StatusUnderMaintenance Status = 2
	StatusFaulted          Status = 3
)

var statusNames = map[Status]string{
	StatusAvailable:        "available",
	StatusUnderMaintenance: "under_maintenance",
	StatusFaulted:          "faulted",
}

func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int16(s))
}

// ParseStatus accepts either the status name or its numeric id.
func ParseStatus(raw string) (Status, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for status, name := range statusNames {
		if name == raw {
			return status, nil
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 16); err == nil && Status(n).Valid() {
		return Status(n), nil
	}
	return 0, fmt.Errorf("models: unknown status %q", raw)
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("models: cannot marshal invalid status %d", int16(s))
	}
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a status name or its numeric id. null leaves s unchanged.
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := ParseStatus(raw)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}
	parsed, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
