package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/FrankX3M/wordstat-api/internal/infra/checkpoint"
	"github.com/FrankX3M/wordstat-api/pkg/types"
)

const (
	reasonRestarted = "service restarted"

	cachePurgeEvery   = 1 * time.Hour
	sessionPruneEvery = 10 * time.Minute
	janitorTimeout    = 5 * time.Minute
)

// JanitorConfig параметры обслуживающих задач
type JanitorConfig struct {
	// RunAt время ежедневной очистки файлов, HH:MM по UTC
	RunAt      types.TimeString
	Retention  time.Duration
	SessionTTL time.Duration
	ExportsDir string
	StatesDir  string
}

// Janitor периодические обслуживающие задачи на gocron
type Janitor struct {
	repo      ExportRepository
	cache     HostCachePurger
	sessions  SessionPruner
	logger    Logger
	cfg       JanitorConfig
	scheduler *gocron.Scheduler
	now       func() time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewJanitor создает новый экземпляр планировщика обслуживания
func NewJanitor(repo ExportRepository, cache HostCachePurger, sessions SessionPruner, logger Logger, cfg JanitorConfig) *Janitor {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Janitor{
		repo:      repo,
		cache:     cache,
		sessions:  sessions,
		logger:    logger,
		cfg:       cfg,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// RecoverInterrupted помечает failed задачи, прерванные прошлой остановкой
// Вызывается до старта обработчика выгрузок
func (j *Janitor) RecoverInterrupted(ctx context.Context) error {
	n, err := j.repo.FailInterrupted(ctx, reasonRestarted)
	if err != nil {
		return fmt.Errorf("recover interrupted exports: %w", err)
	}
	if n > 0 {
		j.logger.Warn("Marked %d interrupted exports as failed", n)
	}
	return nil
}

// Start регистрирует задачи и запускает планировщик
func (j *Janitor) Start() error {
	j.scheduler.SingletonModeAll()

	if _, err := j.scheduler.Every(cachePurgeEvery).Do(j.PurgeHostCache); err != nil {
		return fmt.Errorf("schedule host cache purge: %w", err)
	}
	if _, err := j.scheduler.Every(1).Day().At(j.cfg.RunAt.String()).Do(j.CleanupExports); err != nil {
		return fmt.Errorf("schedule exports cleanup at %s: %w", j.cfg.RunAt, err)
	}
	if _, err := j.scheduler.Every(sessionPruneEvery).WaitForSchedule().Do(j.PruneSessions); err != nil {
		return fmt.Errorf("schedule session prune: %w", err)
	}

	j.logger.Info("Starting janitor (cleanup at %s UTC, retention %s)", j.cfg.RunAt, j.cfg.Retention)
	if next, err := j.cfg.RunAt.Next(j.now().UTC()); err == nil {
		j.logger.Debug("Next exports cleanup at %s", next.Format(time.RFC3339))
	}
	j.scheduler.StartAsync()
	return nil
}

// Stop останавливает планировщик
func (j *Janitor) Stop() {
	j.logger.Info("Stopping janitor")
	j.cancel()
	j.scheduler.Stop()
	j.logger.Info("Janitor stopped")
}

// PurgeHostCache удаляет просроченные карточки сайтов
func (j *Janitor) PurgeHostCache() {
	ctx, cancel := context.WithTimeout(j.ctx, janitorTimeout)
	defer cancel()

	n, err := j.cache.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("Failed to purge host cache: %v", err)
		return
	}
	if n > 0 {
		j.logger.Info("Purged %d expired host cache entries", n)
	}
}

// CleanupExports удаляет файлы выгрузок и состояния старше Retention
func (j *Janitor) CleanupExports() {
	ctx, cancel := context.WithTimeout(j.ctx, janitorTimeout)
	defer cancel()

	cutoff := j.now().Add(-j.cfg.Retention)

	jobs, err := j.repo.ListFinishedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("Failed to list old exports: %v", err)
		return
	}

	removed := 0
	for _, job := range jobs {
		if job.FilePath == nil {
			continue
		}
		if err := j.removeExportFile(*job.FilePath); err != nil {
			j.logger.Warn("Failed to remove export file %s: %v", *job.FilePath, err)
			continue
		}
		if err := j.repo.ClearFile(ctx, job.ID); err != nil {
			j.logger.Error("Failed to clear file of export %d: %v", job.ID, err)
			continue
		}
		removed++
	}

	states := j.removeOldStates(cutoff)

	j.logger.Info("Exports cleanup finished: %d files, %d checkpoints removed", removed, states)
}

// removeExportFile удаляет файл и опустевший каталог задачи внутри ExportsDir
func (j *Janitor) removeExportFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	_ = os.Remove(checkpoint.DefaultPath(path))

	dir := filepath.Dir(path)
	if j.cfg.ExportsDir != "" && filepath.Clean(dir) != filepath.Clean(j.cfg.ExportsDir) {
		// каталог с другими файлами не удаляется
		_ = os.Remove(dir)
	}
	return nil
}

func (j *Janitor) removeOldStates(cutoff time.Time) int {
	if j.cfg.StatesDir == "" {
		return 0
	}

	entries, err := os.ReadDir(j.cfg.StatesDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			j.logger.Warn("Failed to read states dir %s: %v", j.cfg.StatesDir, err)
		}
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), checkpoint.Suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.cfg.StatesDir, entry.Name())); err != nil {
			j.logger.Warn("Failed to remove checkpoint %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed
}

// PruneSessions забывает неактивные чаты
func (j *Janitor) PruneSessions() {
	if n := j.sessions.Prune(j.cfg.SessionTTL); n > 0 {
		j.logger.Debug("Pruned %d idle chat sessions", n)
	}
}
