package apperr

import (
	"errors"
	"fmt"
)

// Ошибки валидации на запись
var (
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrInvalidTimeValue = errors.New("invalid time value")
	ErrDegenerateWindow = errors.New("start and end time are equal")
	ErrMissingEntries   = errors.New("schedule has no weekly entries")
	ErrDuplicateEntry   = errors.New("duplicate weekly entry")
	ErrMissingLanguages = errors.New("schedule has no languages")
	ErrInvalidLanguage  = errors.New("invalid language code")
	ErrInvalidRequest   = errors.New("invalid request")
)

// Конфликты и отсутствие данных
var (
	ErrScheduleAlreadyExists = errors.New("schedule already exists")
	ErrScheduleNotFound      = errors.New("schedule not found")
)

// Ошибки валидации поиска
var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrInvalidLimit     = errors.New("invalid limit")
	ErrInvalidCursor    = errors.New("invalid cursor")
	ErrInvalidFilter    = errors.New("invalid filter")
)

// ErrStorage is matched by every failure coming from the underlying store.
var ErrStorage = errors.New("storage failure")

var validationKinds = []error{
	ErrInvalidTimezone,
	ErrInvalidTimeValue,
	ErrDegenerateWindow,
	ErrMissingEntries,
	ErrDuplicateEntry,
	ErrMissingLanguages,
	ErrInvalidLanguage,
	ErrInvalidRequest,
	ErrInvalidTimeRange,
	ErrInvalidLimit,
	ErrInvalidCursor,
	ErrInvalidFilter,
}

// FieldError привязывает ошибку валидации к полю запроса.
// Index равен -1, если поле не относится к элементу списка.
type FieldError struct {
	Kind   error
	Field  string
	Index  int
	Detail string
}

// Field создаёт FieldError для скалярного поля
func Field(kind error, field, detail string) *FieldError {
	return &FieldError{Kind: kind, Field: field, Index: -1, Detail: detail}
}

// Item создаёт FieldError для элемента списка weeklyEntries и т.п.
func Item(kind error, list string, index int, field, detail string) *FieldError {
	name := fmt.Sprintf("%s[%d]", list, index)
	if field != "" {
		name += "." + field
	}
	return &FieldError{Kind: kind, Field: name, Index: index, Detail: detail}
}

func (e *FieldError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// StorageError оборачивает ошибку хранилища
type StorageError struct {
	Op  string
	Err error
}

// Storage оборачивает err как сбой хранилища. nil остаётся nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStorage, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// IsValidation сообщает, является ли ошибка исправимой ошибкой ввода
func IsValidation(err error) bool {
	for _, kind := range validationKinds {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// KindName возвращает машинное имя вида ошибки для ответа клиенту
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTimezone):
		return "InvalidTimezone"
	case errors.Is(err, ErrInvalidTimeValue):
		return "InvalidTimeValue"
	case errors.Is(err, ErrDegenerateWindow):
		return "DegenerateWindow"
	case errors.Is(err, ErrMissingEntries):
		return "MissingEntries"
	case errors.Is(err, ErrDuplicateEntry):
		return "DuplicateEntry"
	case errors.Is(err, ErrMissingLanguages):
		return "MissingLanguages"
	case errors.Is(err, ErrInvalidLanguage):
		return "InvalidLanguage"
	case errors.Is(err, ErrInvalidRequest):
		return "InvalidRequest"
	case errors.Is(err, ErrScheduleAlreadyExists):
		return "ScheduleAlreadyExists"
	case errors.Is(err, ErrScheduleNotFound):
		return "ScheduleNotFound"
	case errors.Is(err, ErrInvalidTimeRange):
		return "InvalidTimeRange"
	case errors.Is(err, ErrInvalidLimit):
		return "InvalidLimit"
	case errors.Is(err, ErrInvalidCursor):
		return "InvalidCursor"
	case errors.Is(err, ErrInvalidFilter):
		return "InvalidFilter"
	case errors.Is(err, ErrStorage):
		return "Storage"
	default:
		return "Internal"
	}
}

// FieldName возвращает имя поля, если ошибка привязана к полю
func FieldName(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return ""
}
