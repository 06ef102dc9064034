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

// CatalogRepository загружает справочник: организации, районы, занятия, локации, цены
type CatalogRepository struct {
	*base.Repository
	logger *zap.Logger
}

// NewCatalogRepository создаёт новый репозиторий
func NewCatalogRepository(pool *pgxpool.Pool, logger *zap.Logger) *CatalogRepository {
	return &CatalogRepository{
		Repository: base.NewRepository(pool),
		logger:     logger,
	}
}

// SaveCatalog вставляет или обновляет все записи одним батчем в транзакции.
// Порядок вставки соответствует внешним ключам.
func (r *CatalogRepository) SaveCatalog(ctx context.Context, c model.Catalog) error {
	batch := &pgx.Batch{}

	for _, o := range c.Organizations {
		batch.Queue(`
			INSERT INTO organization (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, o.ID, o.Name)
	}
	for _, a := range c.Areas {
		batch.Queue(`
			INSERT INTO area (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
		`, a.ID, a.Name)
	}
	for _, a := range c.Activities {
		batch.Queue(`
			INSERT INTO activity (id, organization_id, name, description, age_range)
			VALUES ($1, $2, $3, $4, int4range($5, $6, '[]'))
			ON CONFLICT (id) DO UPDATE SET
				organization_id = EXCLUDED.organization_id,
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				age_range = EXCLUDED.age_range
		`, a.ID, a.OrganizationID, a.Name, a.Description, a.AgeMin, a.AgeMax)
	}
	for _, l := range c.Locations {
		batch.Queue(`
			INSERT INTO location (id, organization_id, area_id, name, address)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				organization_id = EXCLUDED.organization_id,
				area_id = EXCLUDED.area_id,
				name = EXCLUDED.name,
				address = EXCLUDED.address
		`, l.ID, l.OrganizationID, l.AreaID, l.Name, l.Address)
	}
	for _, p := range c.Pricing {
		batch.Queue(`
			INSERT INTO activity_pricing (id, activity_id, location_id, pricing_type, amount, currency)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (activity_id, location_id) DO UPDATE SET
				pricing_type = EXCLUDED.pricing_type,
				amount = EXCLUDED.amount,
				currency = EXCLUDED.currency
		`, p.ID, p.ActivityID, p.LocationID, string(p.PricingType), p.Amount, p.Currency)
	}

	if batch.Len() == 0 {
		return nil
	}

	err := r.InTx(ctx, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert catalog: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("save catalog", err)
	}

	r.logger.Info("Catalog saved",
		zap.Int("organizations", len(c.Organizations)),
		zap.Int("activities", len(c.Activities)),
		zap.Int("locations", len(c.Locations)),
		zap.Int("pricing", len(c.Pricing)))
	return nil
}
