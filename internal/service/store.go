package service

import (
	"context"

	"github.com/Freeeeeet/activity_search/internal/model"
)

// ScheduleStore - хранилище расписаний. Реализации: repository.ScheduleRepository и memory.Store.
// Сбои хранилища возвращаются как apperr.ErrStorage.
type ScheduleStore interface {
	Create(ctx context.Context, schedule *model.Schedule) error
	Replace(ctx context.Context, schedule *model.Schedule) error
	Merge(ctx context.Context, schedule *model.Schedule, merge func(existing []model.ScheduleEntry) []model.ScheduleEntry) (bool, error)
	// GetByID возвращает nil, nil, если расписания нет
	GetByID(ctx context.Context, id int64) (*model.Schedule, error)
	Delete(ctx context.Context, id int64) error
}

// SearchStore выполняет проверенный поисковый запрос
type SearchStore interface {
	Search(ctx context.Context, q model.SearchQuery) ([]model.SearchItem, error)
}
