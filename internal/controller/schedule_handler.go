package controller

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
	"github.com/Freeeeeet/activity_search/internal/render"
)

// Границы для /upcoming
const (
	defaultUpcoming = 10
	maxUpcoming     = 100
)

// CreateSchedule обрабатывает POST /api/v1/schedules
func (h *Handler) CreateSchedule(c *fiber.Ctx) error {
	payload, err := parsePayload(c)
	if err != nil {
		return err
	}

	schedule, err := h.schedules.CreateSchedule(c.UserContext(), payload)
	if err != nil {
		return err
	}

	h.logger.Info("Schedule created via API",
		zap.Int64("schedule_id", schedule.ID),
		zap.String("subject", subject(c)))
	return jsonResponse(c, fiber.StatusCreated, true, "Schedule created", schedule)
}

// ReplaceSchedule обрабатывает PUT /api/v1/schedules/:id
func (h *Handler) ReplaceSchedule(c *fiber.Ctx) error {
	id, err := scheduleID(c)
	if err != nil {
		return err
	}
	payload, err := parsePayload(c)
	if err != nil {
		return err
	}

	schedule, err := h.schedules.ReplaceSchedule(c.UserContext(), id, payload)
	if err != nil {
		return err
	}
	return jsonResponse(c, fiber.StatusOK, true, "Schedule replaced", schedule)
}

// ImportSchedule обрабатывает POST /api/v1/schedules/import
func (h *Handler) ImportSchedule(c *fiber.Ctx) error {
	payload, err := parsePayload(c)
	if err != nil {
		return err
	}

	schedule, created, err := h.schedules.ImportSchedule(c.UserContext(), payload)
	if err != nil {
		return err
	}

	if created {
		return jsonResponse(c, fiber.StatusCreated, true, "Schedule created", schedule)
	}
	return jsonResponse(c, fiber.StatusOK, true, "Schedule merged", schedule)
}

// DeleteSchedule обрабатывает DELETE /api/v1/schedules/:id
func (h *Handler) DeleteSchedule(c *fiber.Ctx) error {
	id, err := scheduleID(c)
	if err != nil {
		return err
	}
	if err := h.schedules.DeleteSchedule(c.UserContext(), id); err != nil {
		return err
	}

	h.logger.Info("Schedule deleted via API",
		zap.Int64("schedule_id", id),
		zap.String("subject", subject(c)))
	return jsonResponse(c, fiber.StatusOK, true, "Schedule deleted", nil)
}

// GetSchedule обрабатывает GET /api/v1/schedules/:id?tz=
func (h *Handler) GetSchedule(c *fiber.Ctx) error {
	id, err := scheduleID(c)
	if err != nil {
		return err
	}

	local, err := h.schedules.ExportSchedule(c.UserContext(), id, c.Query("tz"))
	if err != nil {
		return err
	}
	return jsonResponse(c, fiber.StatusOK, true, "OK", local)
}

// Calendar обрабатывает GET /api/v1/schedules/:id/calendar.ics
func (h *Handler) Calendar(c *fiber.Ctx) error {
	id, err := scheduleID(c)
	if err != nil {
		return err
	}

	body, err := h.schedules.ExportCalendar(c.UserContext(), id, c.Query("tz"), h.now())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="schedule-%d.ics"`, id))
	return c.SendString(body)
}

// WeekImage обрабатывает GET /api/v1/schedules/:id/week.png
func (h *Handler) WeekImage(c *fiber.Ctx) error {
	id, err := scheduleID(c)
	if err != nil {
		return err
	}

	local, err := h.schedules.ExportSchedule(c.UserContext(), id, c.Query("tz"))
	if err != nil {
		return err
	}

	png, err := render.WeekImage(local, fmt.Sprintf("Schedule %d", id))
	if err != nil {
		return fmt.Errorf("render week image: %w", err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

// Upcoming обрабатывает GET /api/v1/schedules/:id/upcoming?n=
func (h *Handler) Upcoming(c *fiber.Ctx) error {
	id, err := scheduleID(c)
	if err != nil {
		return err
	}

	n := defaultUpcoming
	if v := c.Query("n"); v != "" {
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 || n > maxUpcoming {
			return apperr.Field(apperr.ErrInvalidRequest, "n", fmt.Sprintf("must be an integer in 1..%d", maxUpcoming))
		}
	}

	occurrences, err := h.schedules.Upcoming(c.UserContext(), id, c.Query("tz"), h.now(), n)
	if err != nil {
		return err
	}
	return jsonResponse(c, fiber.StatusOK, true, "OK", occurrences)
}

func parsePayload(c *fiber.Ctx) (model.SchedulePayload, error) {
	var payload model.SchedulePayload
	if err := c.BodyParser(&payload); err != nil {
		return payload, apperr.Field(apperr.ErrInvalidRequest, "body", err.Error())
	}
	return payload, nil
}

func scheduleID(c *fiber.Ctx) (int64, error) {
	raw := c.Params("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Field(apperr.ErrInvalidRequest, "id", fmt.Sprintf("%q is not a schedule id", raw))
	}
	return id, nil
}

func subject(c *fiber.Ctx) string {
	if p, ok := PrincipalFrom(c); ok {
		return p.Subject
	}
	return ""
}
