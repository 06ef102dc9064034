package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/cursor"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/weektime"
)

// Границы размера страницы
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// SearchService - поиск расписаний с фильтрами и keyset-пагинацией
type SearchService struct {
	store  SearchStore
	logger *zap.Logger
}

// NewSearchService создаёт сервис поиска
func NewSearchService(store SearchStore, logger *zap.Logger) *SearchService {
	return &SearchService{
		store:  store,
		logger: logger,
	}
}

// Search проверяет фильтр, выбирает limit+1 строк и возвращает страницу.
// NextCursor указывает на последнюю отданную строку и равен nil на последней странице.
func (s *SearchService) Search(ctx context.Context, f model.SearchFilter) (*model.SearchPage, error) {
	if err := ValidateSearchFilter(&f); err != nil {
		return nil, err
	}

	q := model.SearchQuery{Filter: f, Fetch: f.Limit + 1}
	if f.Cursor != "" {
		key, err := cursor.Decode(f.Cursor)
		if err != nil {
			return nil, err
		}
		q.After = &key
	}

	items, err := s.store.Search(ctx, q)
	if err != nil {
		s.logger.Error("Search failed", zap.Error(err))
		return nil, fmt.Errorf("search: %w", err)
	}

	page := &model.SearchPage{Items: items}
	if len(items) > f.Limit {
		page.Items = items[:f.Limit]
		next := cursor.Encode(page.Items[f.Limit-1].SortKey())
		page.NextCursor = &next
	}
	if page.Items == nil {
		page.Items = []model.SearchItem{}
	}

	return page, nil
}

// ValidateSearchFilter проверяет фильтр до построения запроса и нормализует языки
func ValidateSearchFilter(f *model.SearchFilter) error {
	if f.Limit < 1 || f.Limit > MaxLimit {
		return apperr.Field(apperr.ErrInvalidLimit, "limit", fmt.Sprintf("%d is outside 1..%d", f.Limit, MaxLimit))
	}

	if f.DayOfWeekUTC != nil && (*f.DayOfWeekUTC < 0 || *f.DayOfWeekUTC >= weektime.DaysPerWeek) {
		return apperr.Field(apperr.ErrInvalidFilter, "dayOfWeekUtc", fmt.Sprintf("%d is outside 0..6", *f.DayOfWeekUTC))
	}
	if f.StartMinutesUTC != nil && !validMinute(*f.StartMinutesUTC) {
		return apperr.Field(apperr.ErrInvalidFilter, "startMinutesUtc", fmt.Sprintf("%d is outside 0..1439", *f.StartMinutesUTC))
	}
	if f.EndMinutesUTC != nil && !validMinute(*f.EndMinutesUTC) {
		return apperr.Field(apperr.ErrInvalidFilter, "endMinutesUtc", fmt.Sprintf("%d is outside 0..1439", *f.EndMinutesUTC))
	}
	if f.StartMinutesUTC != nil && f.EndMinutesUTC != nil && *f.StartMinutesUTC >= *f.EndMinutesUTC {
		return apperr.Field(apperr.ErrInvalidTimeRange, "startMinutesUtc", "start must be before end")
	}

	if f.Age != nil && *f.Age < 0 {
		return apperr.Field(apperr.ErrInvalidFilter, "age", "must not be negative")
	}
	if f.PricingType != nil && !f.PricingType.Valid() {
		return apperr.Field(apperr.ErrInvalidFilter, "pricingType", fmt.Sprintf("unknown pricing type %q", *f.PricingType))
	}
	if f.PriceMin != nil && !validPrice(*f.PriceMin) {
		return apperr.Field(apperr.ErrInvalidFilter, "priceMin", "must be a non-negative number")
	}
	if f.PriceMax != nil && !validPrice(*f.PriceMax) {
		return apperr.Field(apperr.ErrInvalidFilter, "priceMax", "must be a non-negative number")
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return apperr.Field(apperr.ErrInvalidFilter, "priceMin", "must not exceed priceMax")
	}

	if len(f.Languages) > 0 {
		langs, err := NormalizeLanguages(f.Languages)
		if err != nil {
			var fe *apperr.FieldError
			if errors.As(err, &fe) {
				return apperr.Field(apperr.ErrInvalidFilter, fe.Field, fe.Detail)
			}
			return err
		}
		f.Languages = langs
	}

	return nil
}

func validMinute(m int) bool {
	return m >= 0 && m < weektime.MinutesPerDay
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
