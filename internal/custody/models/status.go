package models

import (
	"strings"

	dErrors "custody/pkg/domain-errors"
)

// Status is an item's position in its lifecycle.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusManufactured
	StatusInTransit
	StatusDelivered
	StatusSold
)

var statusNames = map[Status]string{
	StatusManufactured: "Manufactured",
	StatusInTransit:    "InTransit",
	StatusDelivered:    "Delivered",
	StatusSold:         "Sold",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseStatus accepts status names case-insensitively. "in_transit" and
// "in-transit" are accepted for InTransit.
func ParseStatus(s string) Status {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.TrimSpace(s))
	for status, name := range statusNames {
		if strings.EqualFold(name, norm) {
			return status
		}
	}
	return StatusUnknown
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	parsed := ParseStatus(string(text))
	if parsed == StatusUnknown {
		return dErrors.New(dErrors.CodeValidation, "unknown status: "+string(text))
	}
	*s = parsed
	return nil
}
