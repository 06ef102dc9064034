// Package weektime converts weekly recurring time windows between a local
// civil timezone and the UTC form used for storage and search.
//
// Only the weekday and the minute of day survive a conversion: the calendar
// date used to resolve the zone offset is an internal anchor and never leaks
// into the result.
package weektime

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/Freeeeeet/activity_search/internal/apperr"
)

const (
	MinutesPerDay = 24 * 60
	DaysPerWeek   = 7
)

// DefaultReference is the Sunday that starts the anchor week of the default codec.
var DefaultReference = time.Date(2024, time.January, 7, 0, 0, 0, 0, time.UTC)

// Window is one weekly occurrence: weekday (0 = Sunday) plus start and end
// minute of day. End < Start means the window runs past midnight.
type Window struct {
	Day          int `json:"dayOfWeek" yaml:"dayOfWeek"`
	StartMinutes int `json:"startMinutes" yaml:"startMinutes"`
	EndMinutes   int `json:"endMinutes" yaml:"endMinutes"`
}

// Wraps reports whether the window ends on the following day.
func (w Window) Wraps() bool {
	return w.StartMinutes > w.EndMinutes
}

// DurationMinutes returns the window length, taking wraparound into account.
func (w Window) DurationMinutes() int {
	d := w.EndMinutes - w.StartMinutes
	if d <= 0 {
		d += MinutesPerDay
	}
	return d
}

// Codec converts windows using a fixed anchor week, so that the same input
// always yields the same stored rows regardless of when it is converted.
type Codec struct {
	reference time.Time
}

// NewCodec creates a codec anchored on the week starting at reference.
// Only the calendar date of reference is used.
func NewCodec(reference time.Time) *Codec {
	y, m, d := reference.Date()
	return &Codec{reference: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// Reference returns the first day of the anchor week.
func (c *Codec) Reference() time.Time {
	return c.reference
}

var defaultCodec = NewCodec(DefaultReference)

// ToUTC converts a local window with the default codec.
func ToUTC(local Window, tz string) (Window, error) {
	return defaultCodec.ToUTC(local, tz)
}

// FromUTC converts a UTC window back to local time with the default codec.
func FromUTC(utc Window, tz string) (Window, error) {
	return defaultCodec.FromUTC(utc, tz)
}

// ToUTC converts a window expressed in tz's civil time to UTC.
// Start == End is not re-checked here; callers reject it beforehand.
func (c *Codec) ToUTC(local Window, tz string) (Window, error) {
	if err := ValidateWindow(local); err != nil {
		return Window{}, err
	}
	loc, err := LoadLocation(tz)
	if err != nil {
		return Window{}, err
	}

	y, m, d := c.reference.AddDate(0, 0, c.daysUntil(local.Day)).Date()
	start := time.Date(y, m, d, 0, local.StartMinutes, 0, 0, loc)

	endDay := d
	if local.EndMinutes <= local.StartMinutes {
		endDay++
	}
	end := time.Date(y, m, endDay, 0, local.EndMinutes, 0, 0, loc)

	startUTC := start.UTC()
	out := Window{
		Day:          int(startUTC.Weekday()),
		StartMinutes: minuteOfDay(startUTC),
		EndMinutes:   minuteOfDay(end.UTC()),
	}
	if out.StartMinutes == out.EndMinutes {
		return Window{}, apperr.Field(apperr.ErrDegenerateWindow, "endMinutes",
			fmt.Sprintf("window collapses to zero length in %s", tz))
	}

	return out, nil
}

// FromUTC converts a stored UTC window back to tz's civil time.
func (c *Codec) FromUTC(utc Window, tz string) (Window, error) {
	if err := ValidateWindow(utc); err != nil {
		return Window{}, err
	}
	loc, err := LoadLocation(tz)
	if err != nil {
		return Window{}, err
	}

	// Кандидаты с нужным днём недели в UTC вокруг опорной недели: берём тот,
	// чья локальная дата попадает в опорную неделю, как это делает ToUTC.
	offset := c.daysUntil(utc.Day)
	var start time.Time
	for i, shift := range []int{offset, offset - DaysPerWeek, offset + DaysPerWeek} {
		y, m, d := c.reference.AddDate(0, 0, shift).Date()
		candidate := time.Date(y, m, d, 0, utc.StartMinutes, 0, 0, time.UTC)
		if i == 0 {
			start = candidate
		}
		if c.inReferenceWeek(candidate.In(loc)) {
			start = candidate
			break
		}
	}

	end := start.Add(time.Duration(utc.DurationMinutes()) * time.Minute)
	localStart := start.In(loc)

	return Window{
		Day:          int(localStart.Weekday()),
		StartMinutes: minuteOfDay(localStart),
		EndMinutes:   minuteOfDay(end.In(loc)),
	}, nil
}

// ValidateWindow checks day and minute ranges without touching the zone database.
func ValidateWindow(w Window) error {
	if w.Day < 0 || w.Day >= DaysPerWeek {
		return apperr.Field(apperr.ErrInvalidTimeValue, "dayOfWeek",
			fmt.Sprintf("%d is outside 0..6", w.Day))
	}
	if w.StartMinutes < 0 || w.StartMinutes >= MinutesPerDay {
		return apperr.Field(apperr.ErrInvalidTimeValue, "startMinutes",
			fmt.Sprintf("%d is outside 0..1439", w.StartMinutes))
	}
	if w.EndMinutes < 0 || w.EndMinutes >= MinutesPerDay {
		return apperr.Field(apperr.ErrInvalidTimeValue, "endMinutes",
			fmt.Sprintf("%d is outside 0..1439", w.EndMinutes))
	}
	return nil
}

var locations sync.Map // tz name -> *time.Location

// LoadLocation resolves an IANA zone name. Empty and "Local" are rejected so
// results never depend on the host's zone.
func LoadLocation(tz string) (*time.Location, error) {
	name := strings.TrimSpace(tz)
	if name == "" || name == "Local" {
		return nil, apperr.Field(apperr.ErrInvalidTimezone, "timezone", fmt.Sprintf("%q", tz))
	}
	if loc, ok := locations.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperr.Field(apperr.ErrInvalidTimezone, "timezone", fmt.Sprintf("%q", tz))
	}
	locations.Store(name, loc)
	return loc, nil
}

func (c *Codec) daysUntil(day int) int {
	return (day - int(c.reference.Weekday()) + DaysPerWeek) % DaysPerWeek
}

func (c *Codec) inReferenceWeek(t time.Time) bool {
	y, m, d := t.Date()
	civil := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(civil.Sub(c.reference).Hours() / 24)
	return days >= 0 && days < DaysPerWeek
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
