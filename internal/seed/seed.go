// Package seed читает YAML-файл со справочником и расписаниями и загружает его
// в хранилище. Используется cmd/import и сервером при STORE_DRIVER=memory.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Freeeeeet/activity_search/internal/apperr"
	"github.com/Freeeeeet/activity_search/internal/model"
)

// File - содержимое файла загрузки
type File struct {
	model.Catalog `yaml:",inline"`
	Schedules     []model.SchedulePayload `yaml:"schedules"`
}

// CatalogWriter сохраняет справочник
type CatalogWriter interface {
	SaveCatalog(ctx context.Context, c model.Catalog) error
}

// Importer сливает расписание с существующим или создаёт новое
type Importer interface {
	ImportSchedule(ctx context.Context, p model.SchedulePayload) (*model.Schedule, bool, error)
}

// Failure - расписание, не прошедшее проверку
type Failure struct {
	Index int
	Err   error
}

// Result - итог загрузки
type Result struct {
	Created  int
	Merged   int
	Failures []Failure
}

// Parse разбирает YAML. Неизвестные ключи считаются ошибкой.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return &f, nil
}

// ReadFile открывает и разбирает файл
func ReadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()

	return Parse(fh)
}

// Apply сохраняет справочник, затем импортирует расписания по одному.
// Ошибки валидации копятся в Result.Failures, остальные прерывают загрузку.
func Apply(ctx context.Context, f *File, catalog CatalogWriter, importer Importer, logger *zap.Logger) (*Result, error) {
	if err := catalog.SaveCatalog(ctx, f.Catalog); err != nil {
		return nil, fmt.Errorf("save catalog: %w", err)
	}

	res := &Result{}
	for i, p := range f.Schedules {
		schedule, created, err := importer.ImportSchedule(ctx, p)
		if err != nil {
			if !apperr.IsValidation(err) {
				return res, fmt.Errorf("import schedule %d: %w", i, err)
			}
			logger.Warn("Schedule rejected",
				zap.Int("index", i),
				zap.String("kind", apperr.KindName(err)),
				zap.String("field", apperr.FieldName(err)),
				zap.Error(err))
			res.Failures = append(res.Failures, Failure{Index: i, Err: err})
			continue
		}

		if created {
			res.Created++
		} else {
			res.Merged++
		}
		logger.Debug("Schedule imported",
			zap.Int("index", i),
			zap.Int64("schedule_id", schedule.ID),
			zap.Bool("created", created))
	}

	logger.Info("Seed applied",
		zap.Int("created", res.Created),
		zap.Int("merged", res.Merged),
		zap.Int("failed", len(res.Failures)))
	return res, nil
}
