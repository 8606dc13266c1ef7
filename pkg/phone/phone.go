package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"
)

// ErrInvalidNumber is returned for numbers that parse but are not dialable.
var ErrInvalidNumber = errors.New("invalid phone number")

// Normalize parses raw using defaultRegion for numbers without a country
// prefix and returns the E.164 form. Empty input yields an empty string.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	num, err := libphonenumber.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("parse phone %q: %w", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", fmt.Errorf("%w: %s", ErrInvalidNumber, raw)
	}

	return libphonenumber.Format(num, libphonenumber.E164), nil
}
