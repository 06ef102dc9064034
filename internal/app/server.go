package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ShutdownTimeout - сколько ждём завершения активных запросов
const ShutdownTimeout = 10 * time.Second

// Server управляет жизненным циклом HTTP-сервера
type Server struct {
	app      *fiber.App
	addr     string
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewServer создаёт сервер поверх собранного fiber-приложения
func NewServer(app *fiber.App, addr string, logger *zap.Logger) *Server {
	return &Server{
		app:      app,
		addr:     addr,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Run слушает addr до отмены ctx, вызова Stop или ошибки Listen,
// затем мягко останавливает сервер
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.addr))

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.addr, err)
		}
		return nil
	case <-s.stopChan:
		s.logger.Info("HTTP server stop requested")
	case <-ctx.Done():
		s.logger.Info("HTTP server cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Stop просит Run завершиться. Повторный вызов паникует, как и close.
func (s *Server) Stop() {
	close(s.stopChan)
}
