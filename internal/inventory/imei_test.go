package inventory

import (
	"testing"

	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

func TestNormalizeIMEI(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"356938035643809", "356938035643809", false},
		{"35-693803-564380-9", "356938035643809", false},
		{"35 693803 564380 9", "356938035643809", false},
		{"356938.0356438/09", "356938035643809", false},
		{"35693803564380912", "35693803564380912", false}, // IMEI/SV
		{"3569380356438", "", true},                       // 13 digits
		{"3569380356438091", "", true},                    // 16 digits
		{"35693803564380A", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := NormalizeIMEI(tc.in)
		if tc.wantErr {
			if pkgerrors.As(err) == nil {
				t.Errorf("NormalizeIMEI(%q): expected validation error, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeIMEI(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("NormalizeIMEI(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
