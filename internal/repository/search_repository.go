package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/repository/base"
)

// SearchRepository выполняет поиск расписаний в PostgreSQL
type SearchRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewSearchRepository создаёт новый репозиторий поиска
func NewSearchRepository(pool *pgxpool.Pool, logger *zap.Logger) *SearchRepository {
	return &SearchRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// Search возвращает до q.Fetch строк, по одной на расписание, в порядке (day, start, schedule_id)
func (r *SearchRepository) Search(ctx context.Context, q model.SearchQuery) ([]model.SearchItem, error) {
	query, args := BuildSearchQuery(q)

	rows, err := r.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Storage("search schedules", err)
	}
	defer rows.Close()

	items := make([]model.SearchItem, 0, q.Fetch)
	for rows.Next() {
		item, err := scanSearchItem(rows)
		if err != nil {
			return nil, apperr.Storage("search schedules", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Storage("search schedules", err)
	}

	r.logger.Debug("Search executed",
		zap.Int("fetch", q.Fetch),
		zap.Int("rows", len(items)),
		zap.Bool("keyset", q.After != nil),
	)

	return items, nil
}

func scanSearchItem(rows pgx.Rows) (model.SearchItem, error) {
	var (
		it      model.SearchItem
		entries []model.ScheduleEntry
	)

	err := rows.Scan(
		&it.Activity.ID,
		&it.Activity.OrganizationID,
		&it.Activity.Name,
		&it.Activity.Description,
		&it.Activity.AgeMin,
		&it.Activity.AgeMax,
		&it.Organization.ID,
		&it.Organization.Name,
		&it.Location.ID,
		&it.Location.OrganizationID,
		&it.Location.AreaID,
		&it.Location.Name,
		&it.Location.Address,
		&it.Pricing.ID,
		&it.Pricing.ActivityID,
		&it.Pricing.LocationID,
		&it.Pricing.PricingType,
		&it.Pricing.Amount,
		&it.Pricing.Currency,
		&it.Schedule.ID,
		&it.Schedule.ActivityID,
		&it.Schedule.LocationID,
		&it.Schedule.Languages,
		&it.Schedule.Kind,
		&it.Schedule.CreatedAt,
		&it.Schedule.UpdatedAt,
		&it.Primary.ID,
		&it.Primary.DayOfWeekUTC,
		&it.Primary.StartMinutesUTC,
		&it.Primary.EndMinutesUTC,
		&entries,
	)
	if err != nil {
		return it, fmt.Errorf("scan search row: %w", err)
	}

	it.Primary.ScheduleID = it.Schedule.ID
	for i := range entries {
		entries[i].ScheduleID = it.Schedule.ID
	}
	it.Schedule.Entries = entries

	return it, nil
}
