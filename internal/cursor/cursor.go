// Package cursor encodes keyset pagination state into an opaque token.
//
// Tokens are not signed and are not guaranteed to survive changes to the
// result ordering; a token that fails to decode is a client error.
package cursor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

type payload struct {
	Day        *int   `json:"d"`
	Start      *int   `json:"s"`
	ScheduleID *int64 `json:"id"`
}

// Encode сериализует ключ последней отданной строки
func Encode(key model.SortKey) string {
	raw, _ := json.Marshal(payload{
		Day:        &key.DayOfWeekUTC,
		Start:      &key.StartMinutesUTC,
		ScheduleID: &key.ScheduleID,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode восстанавливает ключ из токена. Любая структурная ошибка - ErrInvalidCursor.
func Decode(token string) (model.SortKey, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return model.SortKey{}, invalid("malformed encoding")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var p payload
	if err := dec.Decode(&p); err != nil {
		return model.SortKey{}, invalid(fmt.Sprintf("malformed payload: %v", err))
	}
	if dec.More() {
		return model.SortKey{}, invalid("trailing data")
	}

	switch {
	case p.Day == nil:
		return model.SortKey{}, invalid("missing day")
	case p.Start == nil:
		return model.SortKey{}, invalid("missing start")
	case p.ScheduleID == nil:
		return model.SortKey{}, invalid("missing schedule id")
	}

	if *p.Day < 0 || *p.Day > 6 || *p.Start < 0 || *p.Start > 1439 || *p.ScheduleID <= 0 {
		return model.SortKey{}, invalid("value out of range")
	}

	return model.SortKey{
		DayOfWeekUTC:    *p.Day,
		StartMinutesUTC: *p.Start,
		ScheduleID:      *p.ScheduleID,
	}, nil
}

func invalid(detail string) error {
	return apperr.Field(apperr.ErrInvalidCursor, "cursor", detail)
}
