package enums

import "fmt"

// CreditEntryType records the direction of a store-credit mutation.
type CreditEntryType string

const (
	CreditEntryDeduct  CreditEntryType = "deduct"
	CreditEntryRestore CreditEntryType = "restore"
)

var validCreditEntryTypes = []CreditEntryType{
	CreditEntryDeduct,
	CreditEntryRestore,
}

// IsValid reports whether the value is a known CreditEntryType.
func (t CreditEntryType) IsValid() bool {
	for _, candidate := range validCreditEntryTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseCreditEntryType converts raw input into a CreditEntryType.
func ParseCreditEntryType(value string) (CreditEntryType, error) {
	for _, candidate := range validCreditEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid credit entry type %q", value)
}
