package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

func TestCreateSchedule_HongKongRoundTrip(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Swimming", 5, 12, f.areaA, model.PricingTypePerSession, 150)

	s := f.mustCreate(t, payload(o, "Asia/Hong_Kong", []string{"EN", "zh"}, local(1, "09:00", "10:00")))

	assert.NotZero(t, s.ID)
	assert.Equal(t, []string{"en", "zh"}, s.Languages)
	assert.Equal(t, model.ScheduleKindWeekly, s.Kind)
	require.Len(t, s.Entries, 1)
	assert.Equal(t, model.EntryKey{Day: 1, Start: 60, End: 120}, s.Entries[0].Key())
	assert.NotZero(t, s.Entries[0].ID)

	exported, err := f.schedules.ExportSchedule(context.Background(), s.ID, "Asia/Hong_Kong")
	require.NoError(t, err)
	assert.Equal(t, []model.LocalEntry{local(1, "09:00", "10:00")}, exported.WeeklyEntries)

	exported, err = f.schedules.ExportSchedule(context.Background(), s.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "UTC", exported.Timezone)
	assert.Equal(t, []model.LocalEntry{local(1, "01:00", "02:00")}, exported.WeeklyEntries)
}

func TestCreateSchedule_EntriesSortedInUTC(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Chess", 6, 99, f.areaA, model.PricingTypeFree, 0)

	s := f.mustCreate(t, payload(o, "Asia/Tokyo", []string{"ja"},
		local(3, "18:00", "19:00"),
		local(1, "08:00", "10:00"),
	))

	assert.Equal(t, []model.EntryKey{
		{Day: 0, Start: 23 * 60, End: 60},
		{Day: 3, Start: 9 * 60, End: 10 * 60},
	}, keys(s.Entries))
}

func TestCreateSchedule_Validation(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Judo", 8, 16, f.areaA, model.PricingTypePerMonth, 600)

	tests := []struct {
		name  string
		p     model.SchedulePayload
		kind  error
		field string
	}{
		{
			name:  "missing languages",
			p:     payload(o, "UTC", nil, local(1, "09:00", "10:00")),
			kind:  apperr.ErrMissingLanguages,
			field: "languages",
		},
		{
			name:  "invalid language",
			p:     payload(o, "UTC", []string{"english"}, local(1, "09:00", "10:00")),
			kind:  apperr.ErrInvalidLanguage,
			field: "languages[0]",
		},
		{
			name:  "missing timezone",
			p:     payload(o, "", []string{"en"}, local(1, "09:00", "10:00")),
			kind:  apperr.ErrInvalidTimezone,
			field: "timezone",
		},
		{
			name:  "unknown timezone",
			p:     payload(o, "Mars/Base", []string{"en"}, local(1, "09:00", "10:00")),
			kind:  apperr.ErrInvalidTimezone,
			field: "timezone",
		},
		{
			name:  "no entries",
			p:     payload(o, "UTC", []string{"en"}),
			kind:  apperr.ErrMissingEntries,
			field: "weeklyEntries",
		},
		{
			name:  "day out of range",
			p:     payload(o, "UTC", []string{"en"}, local(9, "09:00", "10:00")),
			kind:  apperr.ErrInvalidTimeValue,
			field: "weeklyEntries[0].dayOfWeek",
		},
		{
			name:  "empty start time",
			p:     payload(o, "UTC", []string{"en"}, local(1, "", "10:00")),
			kind:  apperr.ErrInvalidTimeValue,
			field: "weeklyEntries[0].startTime",
		},
		{
			name:  "degenerate window",
			p:     payload(o, "UTC", []string{"en"}, local(1, "10:00", "10:00")),
			kind:  apperr.ErrDegenerateWindow,
			field: "weeklyEntries[0].endTime",
		},
		{
			name: "duplicate window",
			p: payload(o, "UTC", []string{"en"},
				local(1, "09:00", "10:00"),
				local(1, "09:00", "10:00"),
			),
			kind:  apperr.ErrDuplicateEntry,
			field: "weeklyEntries[1]",
		},
		{
			name: "missing activity",
			p: model.SchedulePayload{
				LocationID:    o.location.ID,
				Languages:     []string{"en"},
				Timezone:      "UTC",
				WeeklyEntries: []model.LocalEntry{local(1, "09:00", "10:00")},
			},
			kind:  apperr.ErrInvalidRequest,
			field: "activityId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.schedules.CreateSchedule(context.Background(), tt.p)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.field, apperr.FieldName(err))
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestCreateSchedule_AlreadyExists(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Tennis", 7, 18, f.areaA, model.PricingTypePerTerm, 2000)

	f.mustCreate(t, payload(o, "UTC", []string{"en", "zh"}, local(1, "09:00", "10:00")))

	_, err := f.schedules.CreateSchedule(context.Background(),
		payload(o, "UTC", []string{"zh", "en", "EN"}, local(2, "09:00", "10:00")))
	assert.ErrorIs(t, err, apperr.ErrScheduleAlreadyExists)

	// другой набор языков - другое расписание
	f.mustCreate(t, payload(o, "UTC", []string{"en"}, local(2, "09:00", "10:00")))
}

func TestImportSchedule_MergesIntoExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.addOffer("Ballet", 4, 10, f.areaB, model.PricingTypePerMonth, 800)

	first, created, err := f.schedules.ImportSchedule(ctx, payload(o, "UTC", []string{"en"},
		local(1, "09:00", "10:00"),
		local(3, "09:00", "10:00"),
	))
	require.NoError(t, err)
	assert.True(t, created)
	ids := map[model.EntryKey]int64{}
	for _, e := range first.Entries {
		ids[e.Key()] = e.ID
	}

	second, created, err := f.schedules.ImportSchedule(ctx, payload(o, "UTC", []string{"en"},
		local(3, "09:00", "10:00"),
		local(5, "09:00", "10:00"),
	))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []model.EntryKey{
		{Day: 1, Start: 540, End: 600},
		{Day: 3, Start: 540, End: 600},
		{Day: 5, Start: 540, End: 600},
	}, keys(second.Entries))
	for _, e := range second.Entries {
		if id, ok := ids[e.Key()]; ok {
			assert.Equal(t, id, e.ID, "existing entry %+v keeps its id", e.Key())
		}
	}

	again, _, err := f.schedules.ImportSchedule(ctx, payload(o, "UTC", []string{"en"}, local(5, "09:00", "10:00")))
	require.NoError(t, err)
	assert.Equal(t, keys(second.Entries), keys(again.Entries))
}

func TestReplaceSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.addOffer("Coding", 9, 15, f.areaA, model.PricingTypePerWeek, 300)
	other := f.addOffer("Drawing", 9, 15, f.areaA, model.PricingTypePerWeek, 300)

	s := f.mustCreate(t, payload(o, "UTC", []string{"en"}, local(1, "09:00", "10:00"), local(2, "09:00", "10:00")))

	replaced, err := f.schedules.ReplaceSchedule(ctx, s.ID, payload(o, "UTC", []string{"fr", "en"}, local(4, "15:00", "16:30")))
	require.NoError(t, err)
	assert.Equal(t, s.ID, replaced.ID)
	assert.Equal(t, []string{"en", "fr"}, replaced.Languages)

	stored, err := f.schedules.GetSchedule(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []model.EntryKey{{Day: 4, Start: 900, End: 990}}, keys(stored.Entries))
	assert.Equal(t, []string{"en", "fr"}, stored.Languages)

	_, err = f.schedules.ReplaceSchedule(ctx, s.ID, payload(other, "UTC", []string{"en"}, local(1, "09:00", "10:00")))
	require.ErrorIs(t, err, apperr.ErrInvalidRequest)
	assert.Equal(t, "activityId", apperr.FieldName(err))

	_, err = f.schedules.ReplaceSchedule(ctx, s.ID+100, payload(o, "UTC", []string{"en"}, local(1, "09:00", "10:00")))
	assert.ErrorIs(t, err, apperr.ErrScheduleNotFound)
}

func TestDeleteSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.addOffer("Yoga", 16, 99, f.areaB, model.PricingTypePerSession, 120)

	s := f.mustCreate(t, payload(o, "UTC", []string{"en"}, local(6, "07:00", "08:00")))

	require.NoError(t, f.schedules.DeleteSchedule(ctx, s.ID))

	_, err := f.schedules.GetSchedule(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrScheduleNotFound)

	err = f.schedules.DeleteSchedule(ctx, s.ID)
	assert.ErrorIs(t, err, apperr.ErrScheduleNotFound)
}

func TestScheduleService_StorageErrors(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Rowing", 12, 18, f.areaB, model.PricingTypePerTerm, 900)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.schedules.CreateSchedule(ctx, payload(o, "UTC", []string{"en"}, local(1, "09:00", "10:00")))
	require.ErrorIs(t, err, apperr.ErrStorage)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, apperr.IsValidation(err))
}

func TestExportCalendar(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Swimming", 5, 12, f.areaA, model.PricingTypePerSession, 150)
	s := f.mustCreate(t, payload(o, "Asia/Hong_Kong", []string{"en"}, local(1, "09:00", "10:00"), local(6, "23:00", "00:30")))

	hk, err := time.LoadLocation("Asia/Hong_Kong")
	require.NoError(t, err)
	from := time.Date(2024, time.January, 7, 12, 0, 0, 0, hk)

	out, err := f.schedules.ExportCalendar(context.Background(), s.ID, "Asia/Hong_Kong", from)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "DTSTART;TZID=Asia/Hong_Kong:20240108T090000")
	assert.Contains(t, out, "DTEND;TZID=Asia/Hong_Kong:20240108T100000")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;BYDAY=MO")
	assert.Contains(t, out, "DTSTART;TZID=Asia/Hong_Kong:20240113T230000")
	assert.Contains(t, out, "DTEND;TZID=Asia/Hong_Kong:20240114T003000")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY;BYDAY=SA")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	o := f.addOffer("Football", 6, 12, f.areaA, model.PricingTypePerMonth, 400)
	s := f.mustCreate(t, payload(o, "UTC", []string{"en"}, local(2, "17:00", "18:00"), local(4, "17:00", "18:00")))

	from := time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC) // воскресенье
	got, err := f.schedules.Upcoming(context.Background(), s.ID, "UTC", from, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, time.Date(2024, time.January, 9, 17, 0, 0, 0, time.UTC), got[0].Start.UTC())
	assert.Equal(t, time.Date(2024, time.January, 11, 17, 0, 0, 0, time.UTC), got[1].Start.UTC())
	assert.Equal(t, time.Date(2024, time.January, 16, 17, 0, 0, 0, time.UTC), got[2].Start.UTC())
	assert.Equal(t, time.Hour, got[0].End.Sub(got[0].Start))
}
