package model

// TimeFilter - фильтр по дню недели и окну времени в UTC
type TimeFilter struct {
	Day   *int
	Start *int
	End   *int
}

// Empty сообщает, что фильтр ничего не ограничивает
func (f TimeFilter) Empty() bool {
	return f.Day == nil && f.Start == nil && f.End == nil
}

// Matches проверяет, проходит ли окно через фильтр.
// Окно с start > end переходит через полночь и считается "открытым" с обеих сторон.
func (f TimeFilter) Matches(e ScheduleEntry) bool {
	if f.Day != nil && e.DayOfWeekUTC != *f.Day {
		return false
	}

	switch {
	case f.Start != nil && f.End != nil:
		if e.StartMinutesUTC < e.EndMinutesUTC {
			return e.StartMinutesUTC < *f.End && e.EndMinutesUTC > *f.Start
		}
		return e.Wraps() && (*f.End > e.StartMinutesUTC || *f.Start < e.EndMinutesUTC)
	case f.Start != nil:
		return e.Wraps() || e.EndMinutesUTC >= *f.Start
	case f.End != nil:
		return e.Wraps() || e.StartMinutesUTC <= *f.End
	default:
		return true
	}
}
