package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/repository/base"
)

// Имена ограничений из миграций, по которым различаем конфликты
const (
	scheduleKeyConstraint = "schedule_activity_location_languages_key"
	entryKeyConstraint    = "schedule_entry_window_key"
)

// ScheduleRepository хранит расписания и их еженедельные окна в PostgreSQL
type ScheduleRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewScheduleRepository создаёт новый репозиторий
func NewScheduleRepository(pool *pgxpool.Pool, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Create сохраняет расписание вместе с окнами в одной транзакции
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.Schedule) error {
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		existing, err := r.findByIdentity(ctx, tx, schedule.Identity(), false)
		if err != nil {
			return err
		}
		if existing != 0 {
			return fmt.Errorf("schedule %d: %w", existing, apperr.ErrScheduleAlreadyExists)
		}

		if err := r.insertSchedule(ctx, tx, schedule); err != nil {
			return err
		}
		return r.insertEntries(ctx, tx, schedule.ID, schedule.Entries)
	})
	if err != nil {
		return classify("create schedule", err)
	}

	return nil
}

// Replace заменяет языки и весь набор окон существующего расписания.
// Возвращает ErrScheduleNotFound, если расписания нет.
func (r *ScheduleRepository) Replace(ctx context.Context, schedule *model.Schedule) error {
	err := r.InTx(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE schedule
			SET languages = $2, updated_at = now()
			WHERE id = $1
			RETURNING created_at, updated_at
		`
		err := tx.QueryRow(ctx, query, schedule.ID, schedule.Languages).
			Scan(&schedule.CreatedAt, &schedule.UpdatedAt)
		if base.IsNotFound(err) {
			return fmt.Errorf("schedule %d: %w", schedule.ID, apperr.ErrScheduleNotFound)
		}
		if err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM schedule_entry WHERE schedule_id = $1`, schedule.ID); err != nil {
			return fmt.Errorf("delete schedule entries: %w", err)
		}

		for i := range schedule.Entries {
			schedule.Entries[i].ID = 0
		}
		return r.insertEntries(ctx, tx, schedule.ID, schedule.Entries)
	})
	if err != nil {
		return classify("replace schedule", err)
	}

	return nil
}

// Merge объединяет окна schedule с уже сохранённым расписанием той же тройки
// (activity, location, languages) или создаёт его. Строка расписания
// блокируется на время слияния. merge получает сохранённые окна и возвращает итоговый набор.
func (r *ScheduleRepository) Merge(
	ctx context.Context,
	schedule *model.Schedule,
	merge func(existing []model.ScheduleEntry) []model.ScheduleEntry,
) (bool, error) {
	created := false

	err := r.InTx(ctx, func(tx pgx.Tx) error {
		id, err := r.findByIdentity(ctx, tx, schedule.Identity(), true)
		if err != nil {
			return err
		}

		if id == 0 {
			created = true
			schedule.Entries = merge(nil)
			if err := r.insertSchedule(ctx, tx, schedule); err != nil {
				return err
			}
			return r.insertEntries(ctx, tx, schedule.ID, schedule.Entries)
		}

		existing, err := r.loadEntries(ctx, tx, id)
		if err != nil {
			return err
		}
		merged := merge(existing)

		var fresh []model.ScheduleEntry
		for _, e := range merged {
			if e.ID == 0 {
				fresh = append(fresh, e)
			}
		}
		if err := r.insertEntries(ctx, tx, id, fresh); err != nil {
			return err
		}

		query := `
			UPDATE schedule SET updated_at = now()
			WHERE id = $1
			RETURNING kind, created_at, updated_at
		`
		if err := tx.QueryRow(ctx, query, id).Scan(&schedule.Kind, &schedule.CreatedAt, &schedule.UpdatedAt); err != nil {
			return fmt.Errorf("touch schedule: %w", err)
		}

		schedule.ID = id
		schedule.Entries, err = r.loadEntries(ctx, tx, id)
		return err
	})
	if err != nil {
		return false, classify("merge schedule", err)
	}

	return created, nil
}

// GetByID получает расписание с окнами. Если не найдено, возвращает nil, nil.
func (r *ScheduleRepository) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	query := `
		SELECT id, activity_id, location_id, languages, kind, created_at, updated_at
		FROM schedule
		WHERE id = $1
	`

	schedule := &model.Schedule{}
	err := r.Pool().QueryRow(ctx, query, id).Scan(
		&schedule.ID,
		&schedule.ActivityID,
		&schedule.LocationID,
		&schedule.Languages,
		&schedule.Kind,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("get schedule by id", err)
	}

	schedule.Entries, err = r.loadEntries(ctx, r.Pool(), id)
	if err != nil {
		return nil, apperr.Storage("get schedule by id", err)
	}

	return schedule, nil
}

// Delete удаляет расписание, окна удаляются каскадом
func (r *ScheduleRepository) Delete(ctx context.Context, id int64) error {
	affected, err := base.ExecAffected(ctx, r.Pool(), `DELETE FROM schedule WHERE id = $1`, id)
	if err != nil {
		return apperr.Storage("delete schedule", err)
	}
	if affected == 0 {
		return fmt.Errorf("schedule %d: %w", id, apperr.ErrScheduleNotFound)
	}

	r.logger.Debug("Schedule deleted", zap.Int64("schedule_id", id))
	return nil
}

// findByIdentity возвращает id расписания с той же тройкой или 0
func (r *ScheduleRepository) findByIdentity(ctx context.Context, q base.Querier, key model.ScheduleIdentity, lock bool) (int64, error) {
	query := `
		SELECT id FROM schedule
		WHERE activity_id = $1 AND location_id = $2 AND languages = $3::text[]
	`
	if lock {
		query += ` FOR UPDATE`
	}

	var id int64
	err := q.QueryRow(ctx, query, key.ActivityID, key.LocationID, key.Languages).Scan(&id)
	if base.IsNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find schedule by identity: %w", err)
	}
	return id, nil
}

func (r *ScheduleRepository) insertSchedule(ctx context.Context, q base.Querier, schedule *model.Schedule) error {
	query := `
		INSERT INTO schedule (activity_id, location_id, languages, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	if schedule.Kind == "" {
		schedule.Kind = model.ScheduleKindWeekly
	}

	err := q.QueryRow(ctx, query,
		schedule.ActivityID,
		schedule.LocationID,
		schedule.Languages,
		string(schedule.Kind),
	).Scan(&schedule.ID, &schedule.CreatedAt, &schedule.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}

	return nil
}

// insertEntries вставляет окна и проставляет им ID
func (r *ScheduleRepository) insertEntries(ctx context.Context, q base.Querier, scheduleID int64, entries []model.ScheduleEntry) error {
	query := `
		INSERT INTO schedule_entry (schedule_id, day_of_week_utc, start_minutes_utc, end_minutes_utc)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for i := range entries {
		e := &entries[i]
		if err := q.QueryRow(ctx, query, scheduleID, e.DayOfWeekUTC, e.StartMinutesUTC, e.EndMinutesUTC).Scan(&e.ID); err != nil {
			return fmt.Errorf("insert schedule entry %d: %w", i, err)
		}
		e.ScheduleID = scheduleID
	}

	return nil
}

func (r *ScheduleRepository) loadEntries(ctx context.Context, q base.Querier, scheduleID int64) ([]model.ScheduleEntry, error) {
	query := `
		SELECT id, schedule_id, day_of_week_utc, start_minutes_utc, end_minutes_utc
		FROM schedule_entry
		WHERE schedule_id = $1
		ORDER BY day_of_week_utc, start_minutes_utc, end_minutes_utc
	`

	rows, err := q.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("get schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		if err := rows.Scan(&e.ID, &e.ScheduleID, &e.DayOfWeekUTC, &e.StartMinutesUTC, &e.EndMinutesUTC); err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule entries: %w", err)
	}

	return entries, nil
}

// classify отделяет доменные конфликты от сбоев хранилища.
// Нарушения уникальности от параллельных записей становятся конфликтами,
// всё остальное - ошибкой хранилища.
func classify(op string, err error) error {
	if apperr.IsValidation(err) || isDomain(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if name, ok := base.ConstraintViolation(err, base.CodeUniqueViolation); ok {
		switch name {
		case scheduleKeyConstraint:
			return fmt.Errorf("%s: %w", op, apperr.ErrScheduleAlreadyExists)
		case entryKeyConstraint:
			return fmt.Errorf("%s: %w", op, apperr.ErrDuplicateEntry)
		}
	}

	return apperr.Storage(op, err)
}

func isDomain(err error) bool {
	return errors.Is(err, apperr.ErrScheduleAlreadyExists) || errors.Is(err, apperr.ErrScheduleNotFound)
}
