package inventory

import (
	"strings"

	pkgerrors "github.com/rmoralesc/movilpos-backend/pkg/errors"
)

// NormalizeIMEI strips the separators cashiers type or scanners emit and
// validates the result. Plain IMEIs are 15 digits; IMEI/SV variants are 17.
func NormalizeIMEI(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '/':
			// separator, drop it
		default:
			return "", pkgerrors.New(pkgerrors.CodeValidation, "imei may only contain digits and separators")
		}
	}
	imei := b.String()
	if len(imei) != 15 && len(imei) != 17 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "imei must be 15 or 17 digits")
	}
	return imei, nil
}
