package enums

import "fmt"

// UnitCondition grades the physical state of a serialized device.
type UnitCondition string

const (
	UnitConditionNew         UnitCondition = "new"
	UnitConditionRefurbished UnitCondition = "refurbished"
	UnitConditionUsed        UnitCondition = "used"
)

var validUnitConditions = []UnitCondition{
	UnitConditionNew,
	UnitConditionRefurbished,
	UnitConditionUsed,
}

// String implements fmt.Stringer.
func (c UnitCondition) String() string {
	return string(c)
}

// IsValid reports whether the value is a known UnitCondition.
func (c UnitCondition) IsValid() bool {
	for _, candidate := range validUnitConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseUnitCondition converts raw input into a UnitCondition.
func ParseUnitCondition(value string) (UnitCondition, error) {
	for _, candidate := range validUnitConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit condition %q", value)
}
