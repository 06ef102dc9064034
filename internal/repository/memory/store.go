// Package memory - хранилище расписаний и каталога в памяти процесса.
// Используется в тестах и при STORE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

type pricingKey struct {
	activityID uuid.UUID
	locationID uuid.UUID
}

// Store хранит данные в map под RWMutex. Каждая запись применяется целиком
// под блокировкой на запись, поэтому читатели не видят промежуточных состояний.
type Store struct {
	mu            sync.RWMutex
	organizations map[uuid.UUID]model.Organization
	areas         map[uuid.UUID]model.Area
	activities    map[uuid.UUID]model.Activity
	locations     map[uuid.UUID]model.Location
	pricing       map[pricingKey]model.ActivityPricing
	schedules     map[int64]*model.Schedule

	lastScheduleID int64
	lastEntryID    int64
	now            func() time.Time
}

// New создаёт пустое хранилище
func New() *Store {
	return &Store{
		organizations: make(map[uuid.UUID]model.Organization),
		areas:         make(map[uuid.UUID]model.Area),
		activities:    make(map[uuid.UUID]model.Activity),
		locations:     make(map[uuid.UUID]model.Location),
		pricing:       make(map[pricingKey]model.ActivityPricing),
		schedules:     make(map[int64]*model.Schedule),
		now:           time.Now,
	}
}

// PutOrganization добавляет или заменяет организацию
func (s *Store) PutOrganization(o model.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.organizations[o.ID] = o
}

// PutActivity добавляет или заменяет занятие
func (s *Store) PutActivity(a model.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.ID] = a
}

// PutLocation добавляет или заменяет локацию
func (s *Store) PutLocation(l model.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations[l.ID] = l
}

// PutPricing добавляет или заменяет цену занятия в локации
func (s *Store) PutPricing(p model.ActivityPricing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pricing[pricingKey{p.ActivityID, p.LocationID}] = p
}

// SaveCatalog загружает справочник целиком. Ссылки проверяются так же,
// как внешние ключи в PostgreSQL: при ошибке ничего не сохраняется.
func (s *Store) SaveCatalog(ctx context.Context, c model.Catalog) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("save catalog", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orgs := make(map[uuid.UUID]bool, len(s.organizations)+len(c.Organizations))
	for id := range s.organizations {
		orgs[id] = true
	}
	for _, o := range c.Organizations {
		orgs[o.ID] = true
	}
	areas := make(map[uuid.UUID]bool, len(s.areas)+len(c.Areas))
	for id := range s.areas {
		areas[id] = true
	}
	for _, a := range c.Areas {
		areas[a.ID] = true
	}
	activities := make(map[uuid.UUID]bool, len(s.activities)+len(c.Activities))
	for id := range s.activities {
		activities[id] = true
	}
	locations := make(map[uuid.UUID]bool, len(s.locations)+len(c.Locations))
	for id := range s.locations {
		locations[id] = true
	}

	for _, a := range c.Activities {
		if !orgs[a.OrganizationID] {
			return apperr.Storage("save catalog", fmt.Errorf("activity %s: unknown organization %s", a.ID, a.OrganizationID))
		}
		if a.AgeMin > a.AgeMax {
			return apperr.Storage("save catalog", fmt.Errorf("activity %s: empty age range", a.ID))
		}
		activities[a.ID] = true
	}
	for _, l := range c.Locations {
		if !orgs[l.OrganizationID] || !areas[l.AreaID] {
			return apperr.Storage("save catalog", fmt.Errorf("location %s: unknown organization or area", l.ID))
		}
		locations[l.ID] = true
	}
	for _, p := range c.Pricing {
		if !activities[p.ActivityID] || !locations[p.LocationID] {
			return apperr.Storage("save catalog", fmt.Errorf("pricing %s: unknown activity or location", p.ID))
		}
		if !p.PricingType.Valid() || p.Amount < 0 {
			return apperr.Storage("save catalog", fmt.Errorf("pricing %s: invalid price", p.ID))
		}
	}

	for _, o := range c.Organizations {
		s.organizations[o.ID] = o
	}
	for _, a := range c.Areas {
		s.areas[a.ID] = a
	}
	for _, a := range c.Activities {
		s.activities[a.ID] = a
	}
	for _, l := range c.Locations {
		s.locations[l.ID] = l
	}
	for _, p := range c.Pricing {
		s.pricing[pricingKey{p.ActivityID, p.LocationID}] = p
	}
	return nil
}

// Create сохраняет новое расписание
func (s *Store) Create(ctx context.Context, schedule *model.Schedule) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("create schedule", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing := s.findByIdentity(schedule.Identity()); existing != nil {
		return fmt.Errorf("create schedule: schedule %d: %w", existing.ID, apperr.ErrScheduleAlreadyExists)
	}
	if err := checkUnique(schedule.Entries); err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}

	s.lastScheduleID++
	schedule.ID = s.lastScheduleID
	if schedule.Kind == "" {
		schedule.Kind = model.ScheduleKindWeekly
	}
	schedule.CreatedAt = s.now()
	schedule.UpdatedAt = schedule.CreatedAt
	s.assignEntryIDs(schedule.ID, schedule.Entries)

	s.schedules[schedule.ID] = clone(schedule)
	return nil
}

// Replace заменяет языки и окна существующего расписания
func (s *Store) Replace(ctx context.Context, schedule *model.Schedule) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("replace schedule", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.schedules[schedule.ID]
	if !ok {
		return fmt.Errorf("replace schedule: schedule %d: %w", schedule.ID, apperr.ErrScheduleNotFound)
	}
	key := model.ScheduleIdentity{ActivityID: stored.ActivityID, LocationID: stored.LocationID, Languages: schedule.Languages}
	if other := s.findByIdentity(key); other != nil && other.ID != stored.ID {
		return fmt.Errorf("replace schedule: schedule %d: %w", other.ID, apperr.ErrScheduleAlreadyExists)
	}
	if err := checkUnique(schedule.Entries); err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}

	for i := range schedule.Entries {
		schedule.Entries[i].ID = 0
	}
	s.assignEntryIDs(stored.ID, schedule.Entries)

	schedule.ActivityID = stored.ActivityID
	schedule.LocationID = stored.LocationID
	schedule.Kind = stored.Kind
	schedule.CreatedAt = stored.CreatedAt
	schedule.UpdatedAt = s.now()

	s.schedules[stored.ID] = clone(schedule)
	return nil
}

// Merge объединяет окна с расписанием той же тройки или создаёт новое
func (s *Store) Merge(
	ctx context.Context,
	schedule *model.Schedule,
	merge func(existing []model.ScheduleEntry) []model.ScheduleEntry,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, apperr.Storage("merge schedule", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.findByIdentity(schedule.Identity())
	if stored == nil {
		schedule.Entries = merge(nil)
		if err := checkUnique(schedule.Entries); err != nil {
			return false, fmt.Errorf("merge schedule: %w", err)
		}
		s.lastScheduleID++
		schedule.ID = s.lastScheduleID
		schedule.Kind = model.ScheduleKindWeekly
		schedule.CreatedAt = s.now()
		schedule.UpdatedAt = schedule.CreatedAt
		s.assignEntryIDs(schedule.ID, schedule.Entries)
		s.schedules[schedule.ID] = clone(schedule)
		return true, nil
	}

	merged := merge(slices.Clone(stored.Entries))
	if err := checkUnique(merged); err != nil {
		return false, fmt.Errorf("merge schedule: %w", err)
	}
	s.assignEntryIDs(stored.ID, merged)
	sortEntries(merged)

	schedule.ID = stored.ID
	schedule.Kind = stored.Kind
	schedule.Entries = merged
	schedule.CreatedAt = stored.CreatedAt
	schedule.UpdatedAt = s.now()

	s.schedules[stored.ID] = clone(schedule)
	return false, nil
}

// GetByID возвращает копию расписания или nil, nil
func (s *Store) GetByID(ctx context.Context, id int64) (*model.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Storage("get schedule by id", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.schedules[id]
	if !ok {
		return nil, nil
	}
	return clone(stored), nil
}

// Delete удаляет расписание вместе с окнами
func (s *Store) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return apperr.Storage("delete schedule", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return fmt.Errorf("delete schedule: schedule %d: %w", id, apperr.ErrScheduleNotFound)
	}
	delete(s.schedules, id)
	return nil
}

func (s *Store) findByIdentity(key model.ScheduleIdentity) *model.Schedule {
	for _, sc := range s.schedules {
		if sc.ActivityID == key.ActivityID && sc.LocationID == key.LocationID && slices.Equal(sc.Languages, key.Languages) {
			return sc
		}
	}
	return nil
}

// assignEntryIDs выдаёт ID окнам без ID, как это делает последовательность в БД
func (s *Store) assignEntryIDs(scheduleID int64, entries []model.ScheduleEntry) {
	for i := range entries {
		if entries[i].ID == 0 {
			s.lastEntryID++
			entries[i].ID = s.lastEntryID
		}
		entries[i].ScheduleID = scheduleID
	}
}

func checkUnique(entries []model.ScheduleEntry) error {
	seen := make(map[model.EntryKey]struct{}, len(entries))
	for i, e := range entries {
		if _, ok := seen[e.Key()]; ok {
			return apperr.Item(apperr.ErrDuplicateEntry, "weeklyEntries", i, "", "")
		}
		seen[e.Key()] = struct{}{}
	}
	return nil
}

func sortEntries(entries []model.ScheduleEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Key().Less(entries[j].Key())
	})
}

func clone(sc *model.Schedule) *model.Schedule {
	c := *sc
	c.Languages = slices.Clone(sc.Languages)
	c.Entries = slices.Clone(sc.Entries)
	sortEntries(c.Entries)
	return &c
}
