package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/weektime"
)

// ScheduleService - запись расписаний (создание, замена, импорт со слиянием,
// удаление) и их экспорт обратно в локальное время
type ScheduleService struct {
	store     ScheduleStore
	codec     *weektime.Codec
	validate  *validator.Validate
	defaultTZ string
	logger    *zap.Logger
}

// NewScheduleService создаёт сервис расписаний. defaultTZ используется для
// экспорта, когда зона не передана.
func NewScheduleService(store ScheduleStore, codec *weektime.Codec, defaultTZ string, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		store:     store,
		codec:     codec,
		validate:  newValidator(),
		defaultTZ: defaultTZ,
		logger:    logger,
	}
}

// newValidator возвращает валидатор, который называет поля по json-тегам
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CreateSchedule проверяет payload, переводит окна в UTC и сохраняет новое расписание
func (s *ScheduleService) CreateSchedule(ctx context.Context, p model.SchedulePayload) (*model.Schedule, error) {
	schedule, err := s.prepare(p)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("create schedule: %w", err)
	}

	s.logger.Info("Schedule created",
		zap.Int64("schedule_id", schedule.ID),
		zap.Stringer("activity_id", schedule.ActivityID),
		zap.Stringer("location_id", schedule.LocationID),
		zap.Strings("languages", schedule.Languages),
		zap.Int("entries", len(schedule.Entries)),
	)

	return schedule, nil
}

// ReplaceSchedule заменяет языки и окна расписания id. Занятие и локация
// расписания не меняются.
func (s *ScheduleService) ReplaceSchedule(ctx context.Context, id int64, p model.SchedulePayload) (*model.Schedule, error) {
	schedule, err := s.prepare(p)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if current == nil {
		return nil, fmt.Errorf("schedule %d: %w", id, apperr.ErrScheduleNotFound)
	}
	if current.ActivityID != schedule.ActivityID {
		return nil, apperr.Field(apperr.ErrInvalidRequest, "activityId", "cannot be changed")
	}
	if current.LocationID != schedule.LocationID {
		return nil, apperr.Field(apperr.ErrInvalidRequest, "locationId", "cannot be changed")
	}

	schedule.ID = id
	if err := s.store.Replace(ctx, schedule); err != nil {
		return nil, fmt.Errorf("replace schedule: %w", err)
	}
	SortEntries(schedule.Entries)

	s.logger.Info("Schedule replaced",
		zap.Int64("schedule_id", id),
		zap.Strings("languages", schedule.Languages),
		zap.Int("entries", len(schedule.Entries)),
	)

	return schedule, nil
}

// ImportSchedule сливает окна payload с существующим расписанием той же
// тройки (activity, location, languages) или создаёт новое.
// Второй результат - было ли расписание создано.
func (s *ScheduleService) ImportSchedule(ctx context.Context, p model.SchedulePayload) (*model.Schedule, bool, error) {
	schedule, err := s.prepare(p)
	if err != nil {
		return nil, false, err
	}

	incoming := schedule.Entries
	created, err := s.store.Merge(ctx, schedule, func(existing []model.ScheduleEntry) []model.ScheduleEntry {
		return MergeEntries(existing, incoming)
	})
	if err != nil {
		return nil, false, fmt.Errorf("import schedule: %w", err)
	}

	s.logger.Info("Schedule imported",
		zap.Int64("schedule_id", schedule.ID),
		zap.Bool("created", created),
		zap.Int("incoming", len(incoming)),
		zap.Int("entries", len(schedule.Entries)),
	)

	return schedule, created, nil
}

// DeleteSchedule удаляет расписание и все его окна
func (s *ScheduleService) DeleteSchedule(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}

	s.logger.Info("Schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

// GetSchedule возвращает расписание в UTC
func (s *ScheduleService) GetSchedule(ctx context.Context, id int64) (*model.Schedule, error) {
	schedule, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule %d: %w", id, apperr.ErrScheduleNotFound)
	}
	return schedule, nil
}

// ExportSchedule переводит сохранённое расписание в локальное время зоны tz.
// Пустая tz означает зону по умолчанию.
func (s *ScheduleService) ExportSchedule(ctx context.Context, id int64, tz string) (*model.LocalSchedule, error) {
	if tz == "" {
		tz = s.defaultTZ
	}
	if _, err := weektime.LoadLocation(tz); err != nil {
		return nil, err
	}

	schedule, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}

	local, err := s.toLocal(schedule, tz)
	if err != nil {
		return nil, err
	}
	return local, nil
}

func (s *ScheduleService) toLocal(schedule *model.Schedule, tz string) (*model.LocalSchedule, error) {
	windows := make([]weektime.Window, 0, len(schedule.Entries))
	for i, e := range schedule.Entries {
		w, err := s.codec.FromUTC(weektime.Window{
			Day:          e.DayOfWeekUTC,
			StartMinutes: e.StartMinutesUTC,
			EndMinutes:   e.EndMinutesUTC,
		}, tz)
		if err != nil {
			return nil, fmt.Errorf("convert entry %d of schedule %d: %w", i, schedule.ID, err)
		}
		windows = append(windows, w)
	}

	sort.SliceStable(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.StartMinutes != b.StartMinutes {
			return a.StartMinutes < b.StartMinutes
		}
		return a.EndMinutes < b.EndMinutes
	})

	entries := make([]model.LocalEntry, 0, len(windows))
	for _, w := range windows {
		entries = append(entries, model.LocalEntry{
			DayOfWeek: w.Day,
			StartTime: weektime.FormatClock(w.StartMinutes),
			EndTime:   weektime.FormatClock(w.EndMinutes),
		})
	}

	return &model.LocalSchedule{
		ID:            schedule.ID,
		ActivityID:    schedule.ActivityID,
		LocationID:    schedule.LocationID,
		Languages:     schedule.Languages,
		Timezone:      tz,
		WeeklyEntries: entries,
	}, nil
}

// prepare проверяет payload и строит расписание в UTC. Порядок проверок:
// форма payload, языки, окна в локальном времени, зона, конвертация, окна в UTC.
func (s *ScheduleService) prepare(p model.SchedulePayload) (*model.Schedule, error) {
	if err := s.validate.Struct(p); err != nil {
		return nil, shapeError(err)
	}

	languages, err := NormalizeLanguages(p.Languages)
	if err != nil {
		return nil, err
	}

	windows, err := ValidateLocalEntries(p.WeeklyEntries)
	if err != nil {
		return nil, err
	}

	if _, err := weektime.LoadLocation(p.Timezone); err != nil {
		return nil, err
	}

	entries := make([]model.ScheduleEntry, 0, len(windows))
	for i, w := range windows {
		utc, err := s.codec.ToUTC(w, p.Timezone)
		if err != nil {
			var fe *apperr.FieldError
			if errors.As(err, &fe) {
				return nil, apperr.Item(fe.Kind, entriesField, i, "", fe.Detail)
			}
			return nil, err
		}
		entries = append(entries, model.ScheduleEntry{
			DayOfWeekUTC:    utc.Day,
			StartMinutesUTC: utc.StartMinutes,
			EndMinutesUTC:   utc.EndMinutes,
		})
	}

	if err := ValidateUTCEntries(entries); err != nil {
		return nil, err
	}
	SortEntries(entries)

	return &model.Schedule{
		ActivityID: p.ActivityID,
		LocationID: p.LocationID,
		Languages:  languages,
		Kind:       model.ScheduleKindWeekly,
		Entries:    entries,
	}, nil
}

// shapeError превращает первую ошибку validator в InvalidRequest с именем поля
func shapeError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Field(apperr.ErrInvalidRequest, "", err.Error())
	}

	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	kind := apperr.ErrInvalidRequest
	switch fe.Field() {
	case "dayOfWeek", "startTime", "endTime":
		kind = apperr.ErrInvalidTimeValue
	case "timezone":
		kind = apperr.ErrInvalidTimezone
	}

	return apperr.Field(kind, field, fmt.Sprintf("failed %q check", fe.Tag()))
}
