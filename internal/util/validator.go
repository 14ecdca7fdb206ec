package util

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ValidateJumlah checks a monetary amount (must be positive, below cap).
func ValidateJumlah(jumlah decimal.Decimal) error {
	if jumlah.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("jumlah must be positive, got %s", jumlah)
	}
	if jumlah.GreaterThanOrEqual(decimal.New(1, 13)) { // cap at 10^13
		return fmt.Errorf("jumlah too large, got %s", jumlah)
	}
	return nil
}

// ParseTanggal parses a transaction date. Accepts YYYY-MM-DD and the
// common timestamp layouts clients send.
func ParseTanggal(s string) (time.Time, error) {
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %q", s)
}

// AfterToday reports whether the date falls after today (date precision).
func AfterToday(t time.Time) bool {
	return t.Format("2006-01-02") > time.Now().Format("2006-01-02")
}

// ValidateKoordinat checks an optional latitude/longitude pair. Both must
// be present together and inside valid ranges.
func ValidateKoordinat(lat, lng *decimal.Decimal) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return fmt.Errorf("latitude and longitude must be provided together")
	}
	if lat.LessThan(decimal.NewFromInt(-90)) || lat.GreaterThan(decimal.NewFromInt(90)) {
		return fmt.Errorf("latitude out of range: %s", lat)
	}
	if lng.LessThan(decimal.NewFromInt(-180)) || lng.GreaterThan(decimal.NewFromInt(180)) {
		return fmt.Errorf("longitude out of range: %s", lng)
	}
	return nil
}
