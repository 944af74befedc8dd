package request_export

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// Input выбор пользователя в мастере выгрузки
type Input struct {
	UserID int64
	ChatID int64
	// MessageID сообщение, которое воркер будет редактировать прогрессом
	MessageID int
	Host      domain.Host
	Kind      domain.ExportKind
	Device    domain.DeviceType
	Format    domain.ExportFormat
}

// Config период выгрузки из бота
type Config struct {
	DefaultDays  int
	MaxRangeDays int
}

// UseCase ставит выгрузку из бота в очередь
type UseCase struct {
	repo  ExportRepository
	queue Queue
	cfg   Config
	now   func() time.Time
}

// New создаёт новый use case постановки выгрузки
func New(repo ExportRepository, queue Queue, cfg Config) *UseCase {
	return &UseCase{
		repo:  repo,
		queue: queue,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Execute проверяет выбор, сохраняет задачу в статусе pending и будит обработчик
func (uc *UseCase) Execute(ctx context.Context, in Input) (*domain.ExportJob, error) {
	if in.Host.HostID == "" {
		return nil, fmt.Errorf("%w: host is not selected", ErrInvalidInput)
	}
	if !slices.Contains(domain.BotExportKinds, in.Kind) {
		return nil, fmt.Errorf("%w: export kind %q", ErrInvalidInput, in.Kind)
	}
	device, err := domain.ParseDeviceType(string(in.Device))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	format, err := domain.ParseExportFormat(string(in.Format))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := uc.now()
	period := domain.LastDays(now, uc.cfg.DefaultDays)
	if err := period.Validate(now, uc.cfg.MaxRangeDays); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	job := &domain.ExportJob{
		UserID:     in.UserID,
		ChatID:     in.ChatID,
		MessageID:  in.MessageID,
		HostID:     in.Host.HostID,
		HostURL:    in.Host.URL,
		Kind:       in.Kind,
		Format:     format,
		DeviceType: device,
		DateFrom:   period.FromString(),
		DateTo:     period.ToString(),
		Status:     domain.ExportStatusPending,
	}

	id, err := uc.repo.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%w: Execute - create: %v", ErrCreateJob, err)
	}
	job.ID = id

	uc.queue.Kick()

	return job, nil
}
