package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

func newSchedule(activity, location uuid.UUID, langs []string, entries ...model.ScheduleEntry) *model.Schedule {
	return &model.Schedule{
		ActivityID: activity,
		LocationID: location,
		Languages:  langs,
		Entries:    entries,
	}
}

func e(day, start, end int) model.ScheduleEntry {
	return model.ScheduleEntry{DayOfWeekUTC: day, StartMinutesUTC: start, EndMinutesUTC: end}
}

func TestStore_CreateGetDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	act, loc := uuid.New(), uuid.New()

	sc := newSchedule(act, loc, []string{"en"}, e(3, 60, 120), e(1, 60, 120))
	require.NoError(t, s.Create(ctx, sc))
	assert.Equal(t, int64(1), sc.ID)
	assert.Equal(t, model.ScheduleKindWeekly, sc.Kind)

	got, err := s.GetByID(ctx, sc.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, 1, got.Entries[0].DayOfWeekUTC)
	assert.Equal(t, sc.ID, got.Entries[0].ScheduleID)
	assert.NotZero(t, got.Entries[0].ID)

	// изменения копии не попадают в хранилище
	got.Languages[0] = "fr"
	again, err := s.GetByID(ctx, sc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, again.Languages)

	err = s.Create(ctx, newSchedule(act, loc, []string{"en"}, e(5, 0, 30)))
	assert.ErrorIs(t, err, apperr.ErrScheduleAlreadyExists)

	err = s.Create(ctx, newSchedule(act, loc, []string{"de"}, e(5, 0, 30), e(5, 0, 30)))
	assert.ErrorIs(t, err, apperr.ErrDuplicateEntry)

	require.NoError(t, s.Delete(ctx, sc.ID))
	missing, err := s.GetByID(ctx, sc.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.ErrorIs(t, s.Delete(ctx, sc.ID), apperr.ErrScheduleNotFound)
}

func TestStore_ReplaceConflicts(t *testing.T) {
	s := New()
	ctx := context.Background()
	act, loc := uuid.New(), uuid.New()

	a := newSchedule(act, loc, []string{"en"}, e(1, 60, 120))
	b := newSchedule(act, loc, []string{"fr"}, e(1, 60, 120))
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	err := s.Replace(ctx, &model.Schedule{ID: b.ID, Languages: []string{"en"}, Entries: []model.ScheduleEntry{e(2, 0, 10)}})
	assert.ErrorIs(t, err, apperr.ErrScheduleAlreadyExists)

	err = s.Replace(ctx, &model.Schedule{ID: 99, Languages: []string{"en"}, Entries: []model.ScheduleEntry{e(2, 0, 10)}})
	assert.ErrorIs(t, err, apperr.ErrScheduleNotFound)

	repl := &model.Schedule{ID: b.ID, Languages: []string{"de", "fr"}, Entries: []model.ScheduleEntry{e(2, 0, 10)}}
	require.NoError(t, s.Replace(ctx, repl))
	assert.Equal(t, act, repl.ActivityID)

	got, err := s.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"de", "fr"}, got.Languages)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, model.EntryKey{Day: 2, Start: 0, End: 10}, got.Entries[0].Key())
}

func TestStore_ConcurrentMerge(t *testing.T) {
	s := New()
	ctx := context.Background()
	act, loc := uuid.New(), uuid.New()

	union := func(incoming []model.ScheduleEntry) func([]model.ScheduleEntry) []model.ScheduleEntry {
		return func(existing []model.ScheduleEntry) []model.ScheduleEntry {
			out := append([]model.ScheduleEntry{}, existing...)
			seen := map[model.EntryKey]bool{}
			for _, x := range existing {
				seen[x.Key()] = true
			}
			for _, x := range incoming {
				if !seen[x.Key()] {
					seen[x.Key()] = true
					out = append(out, x)
				}
			}
			return out
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for day := 0; day < 7; day++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			incoming := []model.ScheduleEntry{e(day, 600, 660)}
			ok, err := s.Merge(ctx, newSchedule(act, loc, []string{"en"}), union(incoming))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(day)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	got, err := s.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got.Entries, 7)
}

func TestStore_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetByID(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = s.Search(ctx, model.SearchQuery{Fetch: 1})
	assert.ErrorIs(t, err, apperr.ErrStorage)
}

func TestStore_SaveCatalog(t *testing.T) {
	s := New()
	ctx := context.Background()

	org := model.Organization{ID: uuid.New(), Name: "Lantau Scouts"}
	area := model.Area{ID: uuid.New(), Name: "Islands"}
	act := model.Activity{ID: uuid.New(), OrganizationID: org.ID, Name: "Kayak", AgeMin: 8, AgeMax: 16}
	loc := model.Location{ID: uuid.New(), OrganizationID: org.ID, AreaID: area.ID, Name: "Mui Wo pier"}
	price := model.ActivityPricing{ID: uuid.New(), ActivityID: act.ID, LocationID: loc.ID, PricingType: model.PricingTypeFree}

	// ссылка на неизвестную локацию отклоняет весь справочник
	broken := model.Catalog{
		Organizations: []model.Organization{org},
		Activities:    []model.Activity{act},
		Pricing:       []model.ActivityPricing{price},
	}
	err := s.SaveCatalog(ctx, broken)
	assert.ErrorIs(t, err, apperr.ErrStorage)
	assert.Empty(t, s.organizations)

	require.NoError(t, s.SaveCatalog(ctx, model.Catalog{
		Organizations: []model.Organization{org},
		Areas:         []model.Area{area},
		Activities:    []model.Activity{act},
		Locations:     []model.Location{loc},
		Pricing:       []model.ActivityPricing{price},
	}))
	assert.Len(t, s.pricing, 1)
	assert.Equal(t, "Islands", s.areas[area.ID].Name)
}
