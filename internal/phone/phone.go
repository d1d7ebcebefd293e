// Package phone normalises recipient numbers to E.164.
package phone

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "AU"

var ErrInvalidNumber = errors.New("invalid phone number")

// Normalize parses number, assuming region when it has no country code, and
// returns it in E.164 form, e.g. "0412 345 678" -> "+61412345678".
func Normalize(number, region string) (string, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return "", errors.Wrap(ErrInvalidNumber, "number is empty")
	}
	if region == "" {
		region = DefaultRegion
	}

	parsed, err := phonenumbers.Parse(number, strings.ToUpper(region))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidNumber, "%q: %v", number, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", errors.Wrapf(ErrInvalidNumber, "%q is not a valid number", number)
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), nil
}
