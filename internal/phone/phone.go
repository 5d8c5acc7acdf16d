// Package phone normalises member and coach phone numbers to E.164.
package phone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when no region is configured.
const DefaultRegion = "US"

var ErrInvalidPhone = errors.New("invalid phone number")

// Normalize parses raw in the given region and returns it in E.164 form.
// Numbers written with a leading + ignore the region.
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidPhone
	}
	if strings.Contains(raw, "@") {
		return "", ErrInvalidPhone
	}
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhone
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// IsPhoneNumber reports whether raw parses as a valid number in region.
func IsPhoneNumber(raw, region string) bool {
	_, err := Normalize(raw, region)
	return err == nil
}
