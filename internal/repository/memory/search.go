package memory

import (
	"context"
	"slices"
	"sort"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

// Search повторяет семантику SQL-поиска: первое подходящее окно расписания
// по (day, start, id), join каталога, фильтры, keyset и лимит.
func (s *Store) Search(ctx context.Context, q model.SearchQuery) ([]model.SearchItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Storage("search schedules", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tf := q.Filter.Time()
	var items []model.SearchItem

	for _, sc := range s.schedules {
		primary, ok := rankFirst(sc.Entries, tf)
		if !ok {
			continue
		}

		activity, ok := s.activities[sc.ActivityID]
		if !ok {
			continue
		}
		org, ok := s.organizations[activity.OrganizationID]
		if !ok {
			continue
		}
		loc, ok := s.locations[sc.LocationID]
		if !ok {
			continue
		}
		price, ok := s.pricing[pricingKey{sc.ActivityID, sc.LocationID}]
		if !ok {
			continue
		}

		item := model.SearchItem{
			Activity:     activity,
			Organization: org,
			Location:     loc,
			Pricing:      price,
			Schedule:     *clone(sc),
			Primary:      primary,
		}
		if !matchesCatalog(&item, &q.Filter) {
			continue
		}
		if q.After != nil && !q.After.Less(item.SortKey()) {
			continue
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].SortKey().Less(items[j].SortKey())
	})
	if len(items) > q.Fetch {
		items = items[:q.Fetch]
	}

	return items, nil
}

// rankFirst - окно с ROW_NUMBER() = 1 среди окон, прошедших фильтр времени
func rankFirst(entries []model.ScheduleEntry, tf model.TimeFilter) (model.ScheduleEntry, bool) {
	var (
		best  model.ScheduleEntry
		found bool
	)
	for _, e := range entries {
		if !tf.Matches(e) {
			continue
		}
		if !found || rankLess(e, best) {
			best, found = e, true
		}
	}
	return best, found
}

func rankLess(a, b model.ScheduleEntry) bool {
	if a.DayOfWeekUTC != b.DayOfWeekUTC {
		return a.DayOfWeekUTC < b.DayOfWeekUTC
	}
	if a.StartMinutesUTC != b.StartMinutesUTC {
		return a.StartMinutesUTC < b.StartMinutesUTC
	}
	return a.ID < b.ID
}

func matchesCatalog(it *model.SearchItem, f *model.SearchFilter) bool {
	if f.Age != nil && !it.Activity.AcceptsAge(*f.Age) {
		return false
	}
	if f.AreaID != nil && it.Location.AreaID != *f.AreaID {
		return false
	}
	if f.PricingType != nil && it.Pricing.PricingType != *f.PricingType {
		return false
	}
	if f.PriceMin != nil && it.Pricing.Amount < *f.PriceMin {
		return false
	}
	if f.PriceMax != nil && it.Pricing.Amount > *f.PriceMax {
		return false
	}
	if len(f.Languages) > 0 && !slices.ContainsFunc(it.Schedule.Languages, func(l string) bool {
		return slices.Contains(f.Languages, l)
	}) {
		return false
	}
	return true
}
