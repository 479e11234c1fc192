package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// UUIDArray maps a postgres uuid[] column onto []uuid.UUID. Sale line items
// use it for the serialized units a line consumed.
type UUIDArray []uuid.UUID

// Value renders the postgres array literal, `{}` when empty.
func (a UUIDArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "{}", nil
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, id := range a {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(id.String())
	}
	b.WriteByte('}')
	return b.String(), nil
}

func (a *UUIDArray) Scan(src any) error {
	var literal string
	switch v := src.(type) {
	case nil:
		*a = UUIDArray{}
		return nil
	case string:
		literal = v
	case []byte:
		literal = string(v)
	default:
		return fmt.Errorf("uuid array: cannot scan %T", src)
	}

	literal = strings.Trim(strings.TrimSpace(literal), "{}")
	if strings.TrimSpace(literal) == "" {
		*a = UUIDArray{}
		return nil
	}

	elems := strings.Split(literal, ",")
	out := make(UUIDArray, 0, len(elems))
	for _, elem := range elems {
		id, err := uuid.Parse(strings.TrimSpace(strings.Trim(elem, `"`)))
		if err != nil {
			return fmt.Errorf("uuid array: element %q: %w", elem, err)
		}
		out = append(out, id)
	}
	*a = out
	return nil
}
