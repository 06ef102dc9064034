package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/repository/memory"
	"github.com/Freeeeeet/activity_search/internal/weektime"
)

type offer struct {
	activity model.Activity
	location model.Location
	pricing  model.ActivityPricing
}

type fixture struct {
	store     *memory.Store
	schedules *ScheduleService
	search    *SearchService
	org       model.Organization
	areaA     uuid.UUID
	areaB     uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	logger := zap.NewNop()

	f := &fixture{
		store:     store,
		schedules: NewScheduleService(store, weektime.NewCodec(weektime.DefaultReference), "UTC", logger),
		search:    NewSearchService(store, logger),
		org:       model.Organization{ID: uuid.New(), Name: "Harbour Sports Club"},
		areaA:     uuid.New(),
		areaB:     uuid.New(),
	}
	store.PutOrganization(f.org)
	return f
}

// addOffer заводит занятие, локацию и цену для них
func (f *fixture) addOffer(name string, ageMin, ageMax int, area uuid.UUID, pt model.PricingType, amount float64) offer {
	o := offer{
		activity: model.Activity{
			ID:             uuid.New(),
			OrganizationID: f.org.ID,
			Name:           name,
			AgeMin:         ageMin,
			AgeMax:         ageMax,
		},
		location: model.Location{
			ID:             uuid.New(),
			OrganizationID: f.org.ID,
			AreaID:         area,
			Name:           name + " venue",
		},
	}
	o.pricing = model.ActivityPricing{
		ID:          uuid.New(),
		ActivityID:  o.activity.ID,
		LocationID:  o.location.ID,
		PricingType: pt,
		Amount:      amount,
		Currency:    "HKD",
	}

	f.store.PutActivity(o.activity)
	f.store.PutLocation(o.location)
	f.store.PutPricing(o.pricing)
	return o
}

func payload(o offer, tz string, languages []string, entries ...model.LocalEntry) model.SchedulePayload {
	return model.SchedulePayload{
		ActivityID:    o.activity.ID,
		LocationID:    o.location.ID,
		Languages:     languages,
		Timezone:      tz,
		WeeklyEntries: entries,
	}
}

func local(day int, start, end string) model.LocalEntry {
	return model.LocalEntry{DayOfWeek: day, StartTime: start, EndTime: end}
}

func (f *fixture) mustCreate(t *testing.T, p model.SchedulePayload) *model.Schedule {
	t.Helper()
	s, err := f.schedules.CreateSchedule(context.Background(), p)
	require.NoError(t, err)
	return s
}
