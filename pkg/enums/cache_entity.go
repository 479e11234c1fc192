package enums

import "fmt"

// CacheEntity keys the entity-scoped read cache.
type CacheEntity string

const (
	CacheEntityProducts       CacheEntity = "products"
	CacheEntityCustomers      CacheEntity = "customers"
	CacheEntityCreditAccounts CacheEntity = "credit_accounts"
)

var validCacheEntities = []CacheEntity{
	CacheEntityProducts,
	CacheEntityCustomers,
	CacheEntityCreditAccounts,
}

// String implements fmt.Stringer.
func (e CacheEntity) String() string {
	return string(e)
}

// IsValid reports whether the value is a known CacheEntity.
func (e CacheEntity) IsValid() bool {
	for _, candidate := range validCacheEntities {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseCacheEntity converts raw input into a CacheEntity.
func ParseCacheEntity(value string) (CacheEntity, error) {
	for _, candidate := range validCacheEntities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cache entity %q", value)
}
