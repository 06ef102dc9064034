package service

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/weektime"
)

const entriesField = "weeklyEntries"

// NormalizeLanguages приводит коды языков к виду хранения: нижний регистр,
// без дублей, отсортированы. Так равенство множеств совпадает с равенством массивов.
func NormalizeLanguages(codes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))

	for i, raw := range codes {
		code := strings.ToLower(strings.TrimSpace(raw))
		if len(code) != 2 {
			return nil, apperr.Item(apperr.ErrInvalidLanguage, "languages", i, "",
				fmt.Sprintf("%q is not a two-letter ISO-639-1 code", raw))
		}
		if _, err := language.ParseBase(code); err != nil {
			return nil, apperr.Item(apperr.ErrInvalidLanguage, "languages", i, "",
				fmt.Sprintf("%q is not a known ISO-639-1 code", raw))
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}

	if len(out) == 0 {
		return nil, apperr.Field(apperr.ErrMissingLanguages, "languages", "")
	}

	sort.Strings(out)
	return out, nil
}

// ValidateLocalEntries проверяет окна в локальном времени до конвертации:
// диапазоны, нулевую длину и точные дубли.
func ValidateLocalEntries(entries []model.LocalEntry) ([]weektime.Window, error) {
	if len(entries) == 0 {
		return nil, apperr.Field(apperr.ErrMissingEntries, entriesField, "at least one weekly entry is required")
	}

	windows := make([]weektime.Window, 0, len(entries))
	firstSeen := make(map[weektime.Window]int, len(entries))

	for i, e := range entries {
		if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
			return nil, apperr.Item(apperr.ErrInvalidTimeValue, entriesField, i, "dayOfWeek",
				fmt.Sprintf("%d is outside 0..6", e.DayOfWeek))
		}
		start, err := weektime.ParseClock(e.StartTime)
		if err != nil {
			return nil, apperr.Item(apperr.ErrInvalidTimeValue, entriesField, i, "startTime", fmt.Sprintf("%q", e.StartTime))
		}
		end, err := weektime.ParseClock(e.EndTime)
		if err != nil {
			return nil, apperr.Item(apperr.ErrInvalidTimeValue, entriesField, i, "endTime", fmt.Sprintf("%q", e.EndTime))
		}
		if start == end {
			return nil, apperr.Item(apperr.ErrDegenerateWindow, entriesField, i, "endTime",
				"start and end time must differ")
		}

		w := weektime.Window{Day: e.DayOfWeek, StartMinutes: start, EndMinutes: end}
		if j, ok := firstSeen[w]; ok {
			return nil, apperr.Item(apperr.ErrDuplicateEntry, entriesField, i, "",
				fmt.Sprintf("same as %s[%d]", entriesField, j))
		}
		firstSeen[w] = i
		windows = append(windows, w)
	}

	return windows, nil
}

// ValidateUTCEntries проверяет уже сконвертированные окна: после сдвига на
// смещение зоны два разных локальных окна могут совпасть.
func ValidateUTCEntries(entries []model.ScheduleEntry) error {
	if len(entries) == 0 {
		return apperr.Field(apperr.ErrMissingEntries, entriesField, "at least one weekly entry is required")
	}

	firstSeen := make(map[model.EntryKey]int, len(entries))
	for i, e := range entries {
		if err := weektime.ValidateWindow(weektime.Window{
			Day:          e.DayOfWeekUTC,
			StartMinutes: e.StartMinutesUTC,
			EndMinutes:   e.EndMinutesUTC,
		}); err != nil {
			return apperr.Item(apperr.ErrInvalidTimeValue, entriesField, i, apperr.FieldName(err), "")
		}
		if e.StartMinutesUTC == e.EndMinutesUTC {
			return apperr.Item(apperr.ErrDegenerateWindow, entriesField, i, "", "start and end time must differ")
		}
		if j, ok := firstSeen[e.Key()]; ok {
			return apperr.Item(apperr.ErrDuplicateEntry, entriesField, i, "",
				fmt.Sprintf("same UTC window as %s[%d]", entriesField, j))
		}
		firstSeen[e.Key()] = i
	}

	return nil
}

// MergeEntries объединяет окна по ключу (day, start, end). При совпадении
// побеждает первое встреченное, так что существующие строки сохраняют свои ID.
// Результат отсортирован по (day, start, end).
func MergeEntries(existing, incoming []model.ScheduleEntry) []model.ScheduleEntry {
	merged := make([]model.ScheduleEntry, 0, len(existing)+len(incoming))
	seen := make(map[model.EntryKey]struct{}, len(existing)+len(incoming))

	for _, list := range [][]model.ScheduleEntry{existing, incoming} {
		for _, e := range list {
			if _, ok := seen[e.Key()]; ok {
				continue
			}
			seen[e.Key()] = struct{}{}
			merged = append(merged, e)
		}
	}

	SortEntries(merged)
	return merged
}

// SortEntries сортирует окна в порядке хранения
func SortEntries(entries []model.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Key().Less(entries[j].Key())
	})
}
