package enums

import "fmt"

// SimType distinguishes physical-SIM and eSIM device variants.
type SimType string

const (
	SimTypePhysical SimType = "physical"
	SimTypeESim     SimType = "esim"
)

var validSimTypes = []SimType{
	SimTypePhysical,
	SimTypeESim,
}

// String implements fmt.Stringer.
func (s SimType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SimType.
func (s SimType) IsValid() bool {
	for _, candidate := range validSimTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSimType converts raw input into a SimType.
func ParseSimType(value string) (SimType, error) {
	for _, candidate := range validSimTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sim type %q", value)
}
