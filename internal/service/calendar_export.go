package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/weektime"
)

const icsLocalFormat = "20060102T150405"

// 0 = Sunday, как в ScheduleEntry
var rruleWeekdays = [weektime.DaysPerWeek]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// Occurrence - одно конкретное занятие по расписанию
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ExportCalendar возвращает расписание как iCalendar: одно VEVENT с
// еженедельным RRULE на каждое окно, время в зоне tz.
// Первое событие - ближайшее занятие не раньше from.
func (s *ScheduleService) ExportCalendar(ctx context.Context, id int64, tz string, from time.Time) (string, error) {
	local, loc, err := s.exportWithLocation(ctx, id, tz)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendarFor("activity_search")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRTimezone(local.Timezone)
	cal.SetXWRCalName(fmt.Sprintf("Schedule %d", local.ID))

	for i, e := range local.WeeklyEntries {
		rule, duration, err := weeklyRule(e, loc, from)
		if err != nil {
			return "", fmt.Errorf("build rule for entry %d: %w", i, err)
		}
		first := rule.After(from, true)
		if first.IsZero() {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("schedule-%d-%d@activity-search", local.ID, i))
		event.SetDtStampTime(from)
		event.SetProperty(ics.ComponentPropertyDtStart, first.Format(icsLocalFormat), ics.WithTZID(local.Timezone))
		event.SetProperty(ics.ComponentPropertyDtEnd, first.Add(duration).Format(icsLocalFormat), ics.WithTZID(local.Timezone))
		event.AddRrule(recurrence(e.DayOfWeek))
		event.SetSummary(fmt.Sprintf("Schedule %d (%s-%s)", local.ID, e.StartTime, e.EndTime))
	}

	return cal.Serialize(), nil
}

// Upcoming возвращает n ближайших занятий расписания начиная с from
func (s *ScheduleService) Upcoming(ctx context.Context, id int64, tz string, from time.Time, n int) ([]Occurrence, error) {
	local, loc, err := s.exportWithLocation(ctx, id, tz)
	if err != nil {
		return nil, err
	}

	var out []Occurrence
	for i, e := range local.WeeklyEntries {
		rule, duration, err := weeklyRule(e, loc, from)
		if err != nil {
			return nil, fmt.Errorf("build rule for entry %d: %w", i, err)
		}

		next := rule.Iterator()
		for k := 0; k < n; k++ {
			start, ok := next()
			if !ok {
				break
			}
			out = append(out, Occurrence{Start: start, End: start.Add(duration)})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (s *ScheduleService) exportWithLocation(ctx context.Context, id int64, tz string) (*model.LocalSchedule, *time.Location, error) {
	local, err := s.ExportSchedule(ctx, id, tz)
	if err != nil {
		return nil, nil, err
	}
	loc, err := weektime.LoadLocation(local.Timezone)
	if err != nil {
		return nil, nil, err
	}
	return local, loc, nil
}

// weeklyRule строит правило повторения окна в зоне loc с началом в from
func weeklyRule(e model.LocalEntry, loc *time.Location, from time.Time) (*rrule.RRule, time.Duration, error) {
	start, err := weektime.ParseClock(e.StartTime)
	if err != nil {
		return nil, 0, err
	}
	end, err := weektime.ParseClock(e.EndTime)
	if err != nil {
		return nil, 0, err
	}
	w := weektime.Window{Day: e.DayOfWeek, StartMinutes: start, EndMinutes: end}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   from.In(loc).Truncate(time.Second),
		Byweekday: []rrule.Weekday{rruleWeekdays[e.DayOfWeek]},
		Byhour:    []int{start / 60},
		Byminute:  []int{start % 60},
		Bysecond:  []int{0},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("new rrule: %w", err)
	}

	return rule, time.Duration(w.DurationMinutes()) * time.Minute, nil
}

func recurrence(day int) string {
	opt := rrule.ROption{Freq: rrule.WEEKLY, Byweekday: []rrule.Weekday{rruleWeekdays[day]}}
	return opt.RRuleString()
}
