package weektime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/activity_search/internal/apperr"
)

func TestToUTC_HongKongScenario(t *testing.T) {
	utc, err := ToUTC(Window{Day: 1, StartMinutes: 9 * 60, EndMinutes: 10 * 60}, "Asia/Hong_Kong")
	require.NoError(t, err)
	assert.Equal(t, Window{Day: 1, StartMinutes: 60, EndMinutes: 120}, utc)

	local, err := FromUTC(utc, "Asia/Hong_Kong")
	require.NoError(t, err)
	assert.Equal(t, Window{Day: 1, StartMinutes: 540, EndMinutes: 600}, local)
}

func TestToUTC_DayBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		local Window
		tz    string
		want  Window
	}{
		{
			name:  "tokyo morning falls on previous utc day",
			local: Window{Day: 1, StartMinutes: 8 * 60, EndMinutes: 10 * 60},
			tz:    "Asia/Tokyo",
			want:  Window{Day: 0, StartMinutes: 23 * 60, EndMinutes: 60},
		},
		{
			name:  "new york saturday evening wraps to sunday",
			local: Window{Day: 6, StartMinutes: 20 * 60, EndMinutes: 21 * 60},
			tz:    "America/New_York",
			want:  Window{Day: 0, StartMinutes: 60, EndMinutes: 120},
		},
		{
			name:  "new york late window crosses midnight in utc",
			local: Window{Day: 5, StartMinutes: 18*60 + 30, EndMinutes: 19*60 + 30},
			tz:    "America/New_York",
			want:  Window{Day: 5, StartMinutes: 23*60 + 30, EndMinutes: 30},
		},
		{
			name:  "local wraparound stays one row",
			local: Window{Day: 2, StartMinutes: 23 * 60, EndMinutes: 60},
			tz:    "UTC",
			want:  Window{Day: 2, StartMinutes: 23 * 60, EndMinutes: 60},
		},
		{
			name:  "half hour offset",
			local: Window{Day: 3, StartMinutes: 0, EndMinutes: 45},
			tz:    "Asia/Kolkata",
			want:  Window{Day: 2, StartMinutes: 18*60 + 30, EndMinutes: 19*60 + 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTC(tt.local, tt.tz)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			back, err := FromUTC(got, tt.tz)
			require.NoError(t, err)
			assert.Equal(t, tt.local, back)
		})
	}
}

func TestRoundTrip_DefaultReference(t *testing.T) {
	zones := []string{
		"UTC",
		"Asia/Hong_Kong",
		"America/New_York",
		"Europe/Berlin",
		"Australia/Sydney",
		"Asia/Kolkata",
		"Pacific/Chatham",
		"America/St_Johns",
		"Pacific/Kiritimati",
		"Pacific/Pago_Pago",
	}
	durations := []int{15, 60, 95, 600}

	for _, tz := range zones {
		for day := 0; day < DaysPerWeek; day++ {
			for start := 0; start < MinutesPerDay; start += 37 {
				for _, d := range durations {
					local := Window{Day: day, StartMinutes: start, EndMinutes: (start + d) % MinutesPerDay}

					utc, err := ToUTC(local, tz)
					require.NoError(t, err, "%s %+v", tz, local)
					require.NoError(t, ValidateWindow(utc))

					back, err := FromUTC(utc, tz)
					require.NoError(t, err)
					require.Equal(t, local, back, "%s utc=%+v", tz, utc)
				}
			}
		}
	}
}

func TestRoundTrip_SpringForwardWeek(t *testing.T) {
	// 2024-03-10: America/New_York переходит на летнее время в 02:00
	codec := NewCodec(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC))

	utc, err := codec.ToUTC(Window{Day: 0, StartMinutes: 60, EndMinutes: 3*60 + 30}, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, Window{Day: 0, StartMinutes: 6 * 60, EndMinutes: 7*60 + 30}, utc)

	back, err := codec.FromUTC(utc, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, Window{Day: 0, StartMinutes: 60, EndMinutes: 3*60 + 30}, back)

	// после перехода смещение уже -4
	utc, err = codec.ToUTC(Window{Day: 1, StartMinutes: 9 * 60, EndMinutes: 10 * 60}, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, Window{Day: 1, StartMinutes: 13 * 60, EndMinutes: 14 * 60}, utc)
}

func TestRoundTrip_FallBackWeek(t *testing.T) {
	// 2024-10-27: Europe/London возвращается на GMT в 02:00 BST
	codec := NewCodec(time.Date(2024, time.October, 27, 0, 0, 0, 0, time.UTC))

	cases := []Window{
		{Day: 0, StartMinutes: 9 * 60, EndMinutes: 10 * 60},
		{Day: 0, StartMinutes: 60, EndMinutes: 3 * 60},
		{Day: 3, StartMinutes: 18 * 60, EndMinutes: 19*60 + 30},
		{Day: 5, StartMinutes: 22 * 60, EndMinutes: 60},
	}
	for _, local := range cases {
		utc, err := codec.ToUTC(local, "Europe/London")
		require.NoError(t, err)

		back, err := codec.FromUTC(utc, "Europe/London")
		require.NoError(t, err)
		assert.Equal(t, local, back, "utc=%+v", utc)
	}
}

func TestToUTC_Errors(t *testing.T) {
	_, err := ToUTC(Window{Day: 7, StartMinutes: 0, EndMinutes: 10}, "UTC")
	require.ErrorIs(t, err, apperr.ErrInvalidTimeValue)
	assert.Equal(t, "dayOfWeek", apperr.FieldName(err))

	_, err = ToUTC(Window{Day: 1, StartMinutes: 1440, EndMinutes: 10}, "UTC")
	require.ErrorIs(t, err, apperr.ErrInvalidTimeValue)
	assert.Equal(t, "startMinutes", apperr.FieldName(err))

	_, err = FromUTC(Window{Day: 1, StartMinutes: 0, EndMinutes: -1}, "UTC")
	require.ErrorIs(t, err, apperr.ErrInvalidTimeValue)
	assert.Equal(t, "endMinutes", apperr.FieldName(err))

	for _, tz := range []string{"", "Local", "Mars/Olympus_Mons"} {
		_, err = ToUTC(Window{Day: 1, StartMinutes: 0, EndMinutes: 10}, tz)
		assert.True(t, errors.Is(err, apperr.ErrInvalidTimezone), "tz %q", tz)
	}
}

func TestToUTC_RangeCheckedBeforeTimezone(t *testing.T) {
	_, err := ToUTC(Window{Day: -1, StartMinutes: 0, EndMinutes: 10}, "Mars/Olympus_Mons")
	assert.ErrorIs(t, err, apperr.ErrInvalidTimeValue)
}

func TestWindow_Duration(t *testing.T) {
	assert.Equal(t, 60, Window{StartMinutes: 60, EndMinutes: 120}.DurationMinutes())
	assert.Equal(t, 120, Window{StartMinutes: 1380, EndMinutes: 60}.DurationMinutes())
	assert.True(t, Window{StartMinutes: 1380, EndMinutes: 60}.Wraps())
	assert.False(t, Window{StartMinutes: 60, EndMinutes: 120}.Wraps())
}
