package model

import "github.com/google/uuid"

// PricingType - закрытое перечисление типов оплаты
type PricingType string

const (
	PricingTypeFree       PricingType = "free"
	PricingTypePerSession PricingType = "per_session"
	PricingTypePerWeek    PricingType = "per_week"
	PricingTypePerMonth   PricingType = "per_month"
	PricingTypePerTerm    PricingType = "per_term"
	PricingTypePerYear    PricingType = "per_year"
)

// Valid сообщает, известен ли тип оплаты
func (p PricingType) Valid() bool {
	switch p {
	case PricingTypeFree, PricingTypePerSession, PricingTypePerWeek,
		PricingTypePerMonth, PricingTypePerTerm, PricingTypePerYear:
		return true
	default:
		return false
	}
}

type Organization struct {
	ID   uuid.UUID `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
}

// Area - район, к которому привязаны локации
type Area struct {
	ID   uuid.UUID `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
}

// Activity - занятие организации. Возрастной диапазон включает обе границы.
type Activity struct {
	ID             uuid.UUID `json:"id" yaml:"id"`
	OrganizationID uuid.UUID `json:"organizationId" yaml:"organizationId"`
	Name           string    `json:"name" yaml:"name"`
	Description    string    `json:"description" yaml:"description"`
	AgeMin         int       `json:"ageMin" yaml:"ageMin"`
	AgeMax         int       `json:"ageMax" yaml:"ageMax"`
}

// AcceptsAge сообщает, входит ли возраст в диапазон занятия
func (a *Activity) AcceptsAge(age int) bool {
	return age >= a.AgeMin && age <= a.AgeMax
}

type Location struct {
	ID             uuid.UUID `json:"id" yaml:"id"`
	OrganizationID uuid.UUID `json:"organizationId" yaml:"organizationId"`
	AreaID         uuid.UUID `json:"areaId" yaml:"areaId"`
	Name           string    `json:"name" yaml:"name"`
	Address        string    `json:"address" yaml:"address"`
}

// ActivityPricing - цена занятия в конкретной локации
type ActivityPricing struct {
	ID          uuid.UUID   `json:"id" yaml:"id"`
	ActivityID  uuid.UUID   `json:"activityId" yaml:"activityId"`
	LocationID  uuid.UUID   `json:"locationId" yaml:"locationId"`
	PricingType PricingType `json:"pricingType" yaml:"pricingType"`
	Amount      float64     `json:"amount" yaml:"amount"`
	Currency    string      `json:"currency" yaml:"currency"`
}

// Catalog - набор справочных данных для начальной загрузки
type Catalog struct {
	Organizations []Organization    `yaml:"organizations"`
	Areas         []Area            `yaml:"areas"`
	Activities    []Activity        `yaml:"activities"`
	Locations     []Location        `yaml:"locations"`
	Pricing       []ActivityPricing `yaml:"pricing"`
}
