package model

import "github.com/google/uuid"

// SearchFilter - фильтры поиска. Все поля необязательны, nil означает "не задано".
type SearchFilter struct {
	Age             *int
	AreaID          *uuid.UUID
	PricingType     *PricingType
	PriceMin        *float64
	PriceMax        *float64
	DayOfWeekUTC    *int
	StartMinutesUTC *int
	EndMinutesUTC   *int
	Languages       []string
	Cursor          string
	Limit           int
}

// Time возвращает фильтр по дню и времени
func (f *SearchFilter) Time() TimeFilter {
	return TimeFilter{Day: f.DayOfWeekUTC, Start: f.StartMinutesUTC, End: f.EndMinutesUTC}
}

// SortKey - ключ сортировки и пагинации: (day, start, schedule_id)
type SortKey struct {
	DayOfWeekUTC    int
	StartMinutesUTC int
	ScheduleID      int64
}

// Less сравнивает ключи лексикографически
func (k SortKey) Less(o SortKey) bool {
	if k.DayOfWeekUTC != o.DayOfWeekUTC {
		return k.DayOfWeekUTC < o.DayOfWeekUTC
	}
	if k.StartMinutesUTC != o.StartMinutesUTC {
		return k.StartMinutesUTC < o.StartMinutesUTC
	}
	return k.ScheduleID < o.ScheduleID
}

// SearchQuery - проверенный запрос к хранилищу
type SearchQuery struct {
	Filter SearchFilter
	After  *SortKey // keyset: только строки строго после ключа
	Fetch  int      // сколько строк выбрать (limit + 1)
}

// SearchItem - одна строка результата: расписание с его представительным окном
type SearchItem struct {
	Activity     Activity        `json:"activity"`
	Organization Organization    `json:"organization"`
	Location     Location        `json:"location"`
	Pricing      ActivityPricing `json:"pricing"`
	Schedule     Schedule        `json:"schedule"`
	Primary      ScheduleEntry   `json:"-"`
}

// SortKey возвращает ключ сортировки строки
func (i *SearchItem) SortKey() SortKey {
	return SortKey{
		DayOfWeekUTC:    i.Primary.DayOfWeekUTC,
		StartMinutesUTC: i.Primary.StartMinutesUTC,
		ScheduleID:      i.Schedule.ID,
	}
}

// SearchPage - страница результатов
type SearchPage struct {
	Items      []SearchItem `json:"items"`
	NextCursor *string      `json:"nextCursor"`
}

// HasMore сообщает, есть ли следующая страница
func (p *SearchPage) HasMore() bool {
	return p.NextCursor != nil
}
