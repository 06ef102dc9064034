package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

func entry(day, start, end int) model.ScheduleEntry {
	return model.ScheduleEntry{DayOfWeekUTC: day, StartMinutesUTC: start, EndMinutesUTC: end}
}

func keys(entries []model.ScheduleEntry) []model.EntryKey {
	out := make([]model.EntryKey, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key())
	}
	return out
}

func TestNormalizeLanguages(t *testing.T) {
	got, err := NormalizeLanguages([]string{" FR", "en", "fr", "De "})
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "en", "fr"}, got)

	_, err = NormalizeLanguages(nil)
	assert.ErrorIs(t, err, apperr.ErrMissingLanguages)

	_, err = NormalizeLanguages([]string{"en", "eng"})
	require.ErrorIs(t, err, apperr.ErrInvalidLanguage)
	assert.Equal(t, "languages[1]", apperr.FieldName(err))

	_, err = NormalizeLanguages([]string{"e1"})
	assert.ErrorIs(t, err, apperr.ErrInvalidLanguage)
}

func TestValidateLocalEntries(t *testing.T) {
	windows, err := ValidateLocalEntries([]model.LocalEntry{
		{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: 5, StartTime: "23:00", EndTime: "01:00"},
	})
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, 540, windows[0].StartMinutes)
	assert.True(t, windows[1].Wraps())

	tests := []struct {
		name    string
		entries []model.LocalEntry
		kind    error
		field   string
	}{
		{
			name:  "empty",
			kind:  apperr.ErrMissingEntries,
			field: "weeklyEntries",
		},
		{
			name:    "day out of range",
			entries: []model.LocalEntry{{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:00"}},
			kind:    apperr.ErrInvalidTimeValue,
			field:   "weeklyEntries[0].dayOfWeek",
		},
		{
			name: "bad start",
			entries: []model.LocalEntry{
				{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
				{DayOfWeek: 2, StartTime: "24:00", EndTime: "10:00"},
			},
			kind:  apperr.ErrInvalidTimeValue,
			field: "weeklyEntries[1].startTime",
		},
		{
			name:    "bad end",
			entries: []model.LocalEntry{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:60"}},
			kind:    apperr.ErrInvalidTimeValue,
			field:   "weeklyEntries[0].endTime",
		},
		{
			name:    "degenerate",
			entries: []model.LocalEntry{{DayOfWeek: 1, StartTime: "09:00", EndTime: "9:00"}},
			kind:    apperr.ErrDegenerateWindow,
			field:   "weeklyEntries[0].endTime",
		},
		{
			name: "duplicate names later index",
			entries: []model.LocalEntry{
				{DayOfWeek: 3, StartTime: "18:00", EndTime: "19:00"},
				{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"},
				{DayOfWeek: 3, StartTime: "18:00", EndTime: "19:00"},
			},
			kind:  apperr.ErrDuplicateEntry,
			field: "weeklyEntries[2]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateLocalEntries(tt.entries)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.field, apperr.FieldName(err))
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestValidateUTCEntries(t *testing.T) {
	require.NoError(t, ValidateUTCEntries([]model.ScheduleEntry{entry(0, 1380, 60), entry(1, 60, 120)}))

	err := ValidateUTCEntries([]model.ScheduleEntry{entry(1, 60, 120), entry(1, 60, 120)})
	require.ErrorIs(t, err, apperr.ErrDuplicateEntry)
	assert.Equal(t, "weeklyEntries[1]", apperr.FieldName(err))

	err = ValidateUTCEntries([]model.ScheduleEntry{entry(1, 60, 60)})
	assert.ErrorIs(t, err, apperr.ErrDegenerateWindow)

	err = ValidateUTCEntries([]model.ScheduleEntry{entry(1, 60, 1440)})
	require.ErrorIs(t, err, apperr.ErrInvalidTimeValue)
	assert.Equal(t, "weeklyEntries[0].endMinutes", apperr.FieldName(err))
}

func TestMergeEntries(t *testing.T) {
	e := []model.ScheduleEntry{entry(5, 600, 660), entry(1, 60, 120), entry(5, 600, 660), entry(0, 1380, 30)}
	want := []model.EntryKey{{Day: 0, Start: 1380, End: 30}, {Day: 1, Start: 60, End: 120}, {Day: 5, Start: 600, End: 660}}

	t.Run("self merge dedupes and sorts", func(t *testing.T) {
		assert.Equal(t, want, keys(MergeEntries(e, e)))
	})

	t.Run("merge with nothing sorts", func(t *testing.T) {
		distinct := []model.ScheduleEntry{entry(3, 10, 20), entry(1, 50, 40), entry(1, 10, 20)}
		assert.Equal(t,
			[]model.EntryKey{{Day: 1, Start: 10, End: 20}, {Day: 1, Start: 50, End: 40}, {Day: 3, Start: 10, End: 20}},
			keys(MergeEntries(distinct, nil)))
	})

	t.Run("existing rows keep ids", func(t *testing.T) {
		existing := []model.ScheduleEntry{{ID: 7, DayOfWeekUTC: 1, StartMinutesUTC: 60, EndMinutesUTC: 120}}
		incoming := []model.ScheduleEntry{entry(1, 60, 120), entry(0, 0, 30)}

		merged := MergeEntries(existing, incoming)
		require.Len(t, merged, 2)
		assert.Equal(t, int64(0), merged[0].ID)
		assert.Equal(t, int64(7), merged[1].ID)
	})

	t.Run("merge is idempotent", func(t *testing.T) {
		once := MergeEntries(e, nil)
		assert.Equal(t, keys(once), keys(MergeEntries(once, once)))
	})

	t.Run("inputs are not reordered", func(t *testing.T) {
		in := []model.ScheduleEntry{entry(5, 0, 10), entry(1, 0, 10)}
		MergeEntries(in, nil)
		assert.Equal(t, 5, in[0].DayOfWeekUTC)
	})
}
