package repository

import (
	"strconv"
	"strings"

	"github.com/Freeeeeet/activity_search/internal/model"
)

// Колонки результата поиска. Порядок совпадает со scanSearchItem.
const searchColumns = `
		a.id, a.organization_id, a.name, a.description,
		COALESCE(lower(a.age_range), 0), COALESCE(upper(a.age_range) - 1, 2147483647),
		o.id, o.name,
		l.id, l.organization_id, l.area_id, l.name, l.address,
		p.id, p.activity_id, p.location_id, p.pricing_type, p.amount::float8, p.currency,
		s.id, s.activity_id, s.location_id, s.languages, s.kind, s.created_at, s.updated_at,
		re.id, re.day_of_week_utc, re.start_minutes_utc, re.end_minutes_utc,
		(
			SELECT json_agg(json_build_object(
				'id', se.id,
				'dayOfWeekUtc', se.day_of_week_utc,
				'startMinutesUtc', se.start_minutes_utc,
				'endMinutesUtc', se.end_minutes_utc
			) ORDER BY se.day_of_week_utc, se.start_minutes_utc, se.end_minutes_utc)
			FROM schedule_entry se
			WHERE se.schedule_id = s.id
		)`

// args накапливает параметры запроса и выдаёт плейсхолдеры $1, $2, ...
type args struct {
	values []any
}

func (a *args) add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// BuildSearchQuery собирает SQL поиска: ранжирующий подзапрос по окнам,
// join каталога, фильтры, keyset-условие и LIMIT.
// Фильтр по дню и времени применяется внутри подзапроса, до ранжирования,
// поэтому представительным становится первое подходящее окно расписания.
func BuildSearchQuery(q model.SearchQuery) (string, []any) {
	var a args
	f := q.Filter

	var b strings.Builder
	b.WriteString(`
	WITH ranked_entry AS (
		SELECT e.id, e.schedule_id, e.day_of_week_utc, e.start_minutes_utc, e.end_minutes_utc,
			ROW_NUMBER() OVER (
				PARTITION BY e.schedule_id
				ORDER BY e.day_of_week_utc, e.start_minutes_utc, e.id
			) AS rn
		FROM schedule_entry e`)
	if inner := timeConditions(f.Time(), &a); len(inner) > 0 {
		b.WriteString("\n\t\tWHERE ")
		b.WriteString(strings.Join(inner, "\n\t\t\tAND "))
	}
	b.WriteString(`
	)
	SELECT`)
	b.WriteString(searchColumns)
	b.WriteString(`
	FROM ranked_entry re
	JOIN schedule s ON s.id = re.schedule_id
	JOIN activity a ON a.id = s.activity_id
	JOIN organization o ON o.id = a.organization_id
	JOIN location l ON l.id = s.location_id
	JOIN activity_pricing p ON p.activity_id = s.activity_id AND p.location_id = s.location_id
	WHERE re.rn = 1`)

	for _, cond := range outerConditions(q, &a) {
		b.WriteString("\n\t\tAND ")
		b.WriteString(cond)
	}

	b.WriteString(`
	ORDER BY re.day_of_week_utc, re.start_minutes_utc, s.id
	LIMIT `)
	b.WriteString(a.add(q.Fetch))

	return b.String(), a.values
}

// timeConditions - SQL-версия model.TimeFilter.Matches
func timeConditions(tf model.TimeFilter, a *args) []string {
	var conds []string

	if tf.Day != nil {
		conds = append(conds, "e.day_of_week_utc = "+a.add(*tf.Day))
	}

	const wraps = "e.start_minutes_utc > e.end_minutes_utc"
	switch {
	case tf.Start != nil && tf.End != nil:
		start, end := a.add(*tf.Start), a.add(*tf.End)
		conds = append(conds, "((e.start_minutes_utc < e.end_minutes_utc"+
			" AND e.start_minutes_utc < "+end+
			" AND e.end_minutes_utc > "+start+")"+
			" OR ("+wraps+
			" AND ("+end+" > e.start_minutes_utc OR "+start+" < e.end_minutes_utc)))")
	case tf.Start != nil:
		conds = append(conds, "("+wraps+" OR e.end_minutes_utc >= "+a.add(*tf.Start)+")")
	case tf.End != nil:
		conds = append(conds, "("+wraps+" OR e.start_minutes_utc <= "+a.add(*tf.End)+")")
	}

	return conds
}

func outerConditions(q model.SearchQuery, a *args) []string {
	f := q.Filter
	var conds []string

	if f.Age != nil {
		conds = append(conds, "a.age_range @> "+a.add(*f.Age)+"::int")
	}
	if f.AreaID != nil {
		conds = append(conds, "l.area_id = "+a.add(*f.AreaID))
	}
	if f.PricingType != nil {
		conds = append(conds, "p.pricing_type = "+a.add(string(*f.PricingType)))
	}
	if f.PriceMin != nil {
		conds = append(conds, "p.amount >= "+a.add(*f.PriceMin))
	}
	if f.PriceMax != nil {
		conds = append(conds, "p.amount <= "+a.add(*f.PriceMax))
	}
	if len(f.Languages) > 0 {
		conds = append(conds, "s.languages && "+a.add(f.Languages)+"::text[]")
	}
	if q.After != nil {
		day, start, id := a.add(q.After.DayOfWeekUTC), a.add(q.After.StartMinutesUTC), a.add(q.After.ScheduleID)
		conds = append(conds, "(re.day_of_week_utc, re.start_minutes_utc, s.id) > ("+
			day+"::smallint, "+start+"::smallint, "+id+"::bigint)")
	}

	return conds
}
