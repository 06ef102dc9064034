package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Freeeeeet/activity_search/internal/service"
)

// Options - настройки HTTP-слоя
type Options struct {
	JWTSecret  string
	AdminGroup string
	Now        func() time.Time
}

// Handler держит сервисы для HTTP-хендлеров
type Handler struct {
	schedules *service.ScheduleService
	search    *service.SearchService
	logger    *zap.Logger
	now       func() time.Time
}

// NewHandler создаёт набор хендлеров
func NewHandler(
	schedules *service.ScheduleService,
	search *service.SearchService,
	now func() time.Time,
	logger *zap.Logger,
) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		schedules: schedules,
		search:    search,
		logger:    logger,
		now:       now,
	}
}

// NewRouter собирает fiber-приложение со всеми маршрутами
func NewRouter(
	schedules *service.ScheduleService,
	search *service.SearchService,
	opts Options,
	logger *zap.Logger,
) *fiber.App {
	h := NewHandler(schedules, search, opts.Now, logger)

	app := fiber.New(fiber.Config{
		AppName:               "activity_search",
		ErrorHandler:          errorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(AccessLog(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return jsonResponse(c, fiber.StatusOK, true, "ok", nil)
	})

	api := app.Group("/api/v1")
	api.Get("/activities/search", h.Search)

	// Чтение открыто, запись только для группы администраторов
	auth := Authenticate(opts.JWTSecret)
	adminOnly := RequireGroup(opts.AdminGroup)
	schedulesAPI := api.Group("/schedules")

	schedulesAPI.Post("/", auth, adminOnly, h.CreateSchedule)
	schedulesAPI.Post("/import", auth, adminOnly, h.ImportSchedule)
	schedulesAPI.Put("/:id", auth, adminOnly, h.ReplaceSchedule)
	schedulesAPI.Delete("/:id", auth, adminOnly, h.DeleteSchedule)

	schedulesAPI.Get("/:id", h.GetSchedule)
	schedulesAPI.Get("/:id/calendar.ics", h.Calendar)
	schedulesAPI.Get("/:id/week.png", h.WeekImage)
	schedulesAPI.Get("/:id/upcoming", h.Upcoming)

	return app
}
