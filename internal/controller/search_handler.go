package controller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/service"
)

// Search обрабатывает GET /api/v1/activities/search
func (h *Handler) Search(c *fiber.Ctx) error {
	filter, err := parseSearchFilter(c)
	if err != nil {
		return err
	}

	page, err := h.search.Search(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// parseSearchFilter читает фильтры из query string. Диапазоны проверяет сервис,
// здесь только разбор чисел и идентификаторов.
func parseSearchFilter(c *fiber.Ctx) (model.SearchFilter, error) {
	f := model.SearchFilter{
		Cursor: c.Query("cursor"),
		Limit:  service.DefaultLimit,
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, apperr.Field(apperr.ErrInvalidLimit, "limit", fmt.Sprintf("%q is not a number", v))
		}
		f.Limit = n
	}

	var err error
	if f.Age, err = queryInt(c, "age"); err != nil {
		return f, err
	}
	if f.DayOfWeekUTC, err = queryInt(c, "dayOfWeekUtc"); err != nil {
		return f, err
	}
	if f.StartMinutesUTC, err = queryInt(c, "startMinutesUtc"); err != nil {
		return f, err
	}
	if f.EndMinutesUTC, err = queryInt(c, "endMinutesUtc"); err != nil {
		return f, err
	}
	if f.PriceMin, err = queryFloat(c, "priceMin"); err != nil {
		return f, err
	}
	if f.PriceMax, err = queryFloat(c, "priceMax"); err != nil {
		return f, err
	}

	if v := c.Query("areaId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, apperr.Field(apperr.ErrInvalidFilter, "areaId", fmt.Sprintf("%q is not a UUID", v))
		}
		f.AreaID = &id
	}
	if v := c.Query("pricingType"); v != "" {
		pt := model.PricingType(v)
		f.PricingType = &pt
	}

	f.Languages = queryList(c, "languages")
	return f, nil
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, apperr.Field(apperr.ErrInvalidFilter, key, fmt.Sprintf("%q is not an integer", v))
	}
	return &n, nil
}

func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	v := c.Query(key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, apperr.Field(apperr.ErrInvalidFilter, key, fmt.Sprintf("%q is not a number", v))
	}
	return &n, nil
}

// queryList собирает значения и из повторов (?l=a&l=b), и из списка через запятую
func queryList(c *fiber.Ctx, key string) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti(key) {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
