package model

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleKind - вид повторения расписания. Живой вариант один, но перечисление
// закрытое, чтобы новые виды добавлялись явно.
type ScheduleKind string

const (
	ScheduleKindWeekly ScheduleKind = "weekly"
)

// Valid сообщает, известен ли вид расписания
func (k ScheduleKind) Valid() bool {
	switch k {
	case ScheduleKindWeekly:
		return true
	default:
		return false
	}
}

// Schedule - еженедельное предложение активности в локации на наборе языков
type Schedule struct {
	ID         int64           `json:"id"`
	ActivityID uuid.UUID       `json:"activityId"`
	LocationID uuid.UUID       `json:"locationId"`
	Languages  []string        `json:"languages"` // ISO-639-1, нормализованы и отсортированы
	Kind       ScheduleKind    `json:"kind"`
	Entries    []ScheduleEntry `json:"weeklyEntries"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ScheduleEntry - одно еженедельное окно в UTC.
// StartMinutesUTC > EndMinutesUTC означает окно, переходящее через полночь.
type ScheduleEntry struct {
	ID              int64 `json:"id,omitempty"`
	ScheduleID      int64 `json:"-"`
	DayOfWeekUTC    int   `json:"dayOfWeekUtc"`    // 0 = Sunday, 6 = Saturday
	StartMinutesUTC int   `json:"startMinutesUtc"` // 0-1439
	EndMinutesUTC   int   `json:"endMinutesUtc"`   // 0-1439
}

// EntryKey - ключ уникальности окна внутри расписания
type EntryKey struct {
	Day   int
	Start int
	End   int
}

// Key возвращает ключ уникальности окна
func (e ScheduleEntry) Key() EntryKey {
	return EntryKey{Day: e.DayOfWeekUTC, Start: e.StartMinutesUTC, End: e.EndMinutesUTC}
}

// Wraps сообщает, заканчивается ли окно на следующий день UTC
func (e ScheduleEntry) Wraps() bool {
	return e.StartMinutesUTC > e.EndMinutesUTC
}

// Less задаёт порядок хранения и сериализации: (day, start, end)
func (k EntryKey) Less(o EntryKey) bool {
	if k.Day != o.Day {
		return k.Day < o.Day
	}
	if k.Start != o.Start {
		return k.Start < o.Start
	}
	return k.End < o.End
}

// ScheduleIdentity - уникальная тройка (activity, location, languages)
type ScheduleIdentity struct {
	ActivityID uuid.UUID
	LocationID uuid.UUID
	Languages  []string
}

// Identity возвращает тройку уникальности расписания
func (s *Schedule) Identity() ScheduleIdentity {
	return ScheduleIdentity{ActivityID: s.ActivityID, LocationID: s.LocationID, Languages: s.Languages}
}

// LocalEntry - окно в локальном времени владельца, как его вводят при записи
type LocalEntry struct {
	DayOfWeek int    `json:"dayOfWeek" yaml:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `json:"startTime" yaml:"startTime" validate:"required"`
	EndTime   string `json:"endTime" yaml:"endTime" validate:"required"`
}

// SchedulePayload - входные данные записи расписания от админки или импорта
type SchedulePayload struct {
	ActivityID    uuid.UUID    `json:"activityId" yaml:"activityId" validate:"required"`
	LocationID    uuid.UUID    `json:"locationId" yaml:"locationId" validate:"required"`
	Languages     []string     `json:"languages" yaml:"languages"`
	Timezone      string       `json:"timezone" yaml:"timezone" validate:"required"`
	WeeklyEntries []LocalEntry `json:"weeklyEntries" yaml:"weeklyEntries" validate:"dive"`
}

// LocalSchedule - расписание, переведённое обратно в локальное время для экспорта
type LocalSchedule struct {
	ID            int64        `json:"id"`
	ActivityID    uuid.UUID    `json:"activityId"`
	LocationID    uuid.UUID    `json:"locationId"`
	Languages     []string     `json:"languages"`
	Timezone      string       `json:"timezone"`
	WeeklyEntries []LocalEntry `json:"weeklyEntries"`
}
