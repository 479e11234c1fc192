package enums

import "fmt"

// UnitStatus tracks a serialized inventory unit through its lifecycle.
type UnitStatus string

const (
	UnitStatusInStock  UnitStatus = "in_stock"
	UnitStatusSold     UnitStatus = "sold"
	UnitStatusReserved UnitStatus = "reserved"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusInStock,
	UnitStatusSold,
	UnitStatusReserved,
}

// String implements fmt.Stringer.
func (s UnitStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UnitStatus.
func (s UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}
