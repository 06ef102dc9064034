package weektime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/activity_search/internal/apperr"
)

// ParseClock разбирает время "HH:MM" в минуты от начала суток
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, apperr.Field(apperr.ErrInvalidTimeValue, "", fmt.Sprintf("%q is not HH:MM", s))
	}

	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return 0, apperr.Field(apperr.ErrInvalidTimeValue, "", fmt.Sprintf("%q has invalid hour", s))
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return 0, apperr.Field(apperr.ErrInvalidTimeValue, "", fmt.Sprintf("%q has invalid minute", s))
	}

	return hour*60 + minute, nil
}

// FormatClock форматирует минуты от начала суток как "HH:MM"
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
