package utils

import (
	"time"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// Today returns the date key of now in its location
func Today(now time.Time) string {
	return domain.FormatDate(now)
}

// ShiftDate moves a date key by days. Invalid keys are returned unchanged.
func ShiftDate(date string, days int) string {
	t, err := domain.ParseDate(date)
	if err != nil {
		return date
	}
	return domain.FormatDate(t.AddDate(0, 0, days))
}
