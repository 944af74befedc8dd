package worker

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/checkpoint"
	"github.com/FrankX3M/wordstat-api/internal/service/export"
	"github.com/FrankX3M/wordstat-api/internal/service/fetcher"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram/templates"
)

const (
	reasonCancelled = "cancelled by user"
	reasonStopped   = "service stopped"

	bookkeepingTimeout = 30 * time.Second
)

// ProcessorConfig параметры обработчика выгрузок
type ProcessorConfig struct {
	Interval         time.Duration // Интервал опроса БД
	BatchSize        int           // Количество задач за один опрос
	ProgressInterval time.Duration // Не чаще одного обновления прогресса за интервал
	ExportsDir       string
	StatesDir        string
	MaxRows          int
	RegionID         int
	RegionName       string
}

// Processor обработчик pending выгрузок
// Задачи выполняются по одной; выполняющуюся задачу можно отменить по ID
type Processor struct {
	repo     ExportRepository
	users    UserRepository
	tx       TxManager
	exporter Exporter
	account  AccountResolver
	telegram TelegramService
	logger   Logger
	cfg      ProcessorConfig
	now      func() time.Time

	kick    chan struct{}
	mu      sync.Mutex
	running map[int64]context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor создает новый экземпляр обработчика
func NewProcessor(repo ExportRepository, users UserRepository, tx TxManager, exporter Exporter, account AccountResolver,
	telegram TelegramService, logger Logger, cfg ProcessorConfig) *Processor {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Processor{
		repo:     repo,
		users:    users,
		tx:       tx,
		exporter: exporter,
		account:  account,
		telegram: telegram,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		kick:     make(chan struct{}, 1),
		running:  make(map[int64]context.CancelFunc),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start запускает обработчик в отдельной goroutine
func (p *Processor) Start() {
	p.logger.Info("Starting export processor (interval: %s, batch size: %d)", p.cfg.Interval, p.cfg.BatchSize)

	p.wg.Add(1)
	go p.run()
}

// Stop отменяет текущую выгрузку и дожидается остановки
func (p *Processor) Stop() {
	p.logger.Info("Stopping export processor")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Export processor stopped")
}

// Kick будит обработчик, не дожидаясь тика; не блокируется
func (p *Processor) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Cancel отменяет выполняющуюся задачу, false если такой нет
func (p *Processor) Cancel(jobID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	cancel, ok := p.running[jobID]
	if !ok {
		return false
	}
	cancel()
	return true
}

// run основной цикл обработки pending задач
func (p *Processor) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Первый запуск сразу (не ждём первого тика)
	p.processPending()

	for {
		select {
		case <-ticker.C:
			p.processPending()
		case <-p.kick:
			p.processPending()
		case <-p.ctx.Done():
			return
		}
	}
}

// processPending обрабатывает очередь pending задач
func (p *Processor) processPending() {
	jobs, err := p.repo.ListPending(p.ctx, p.cfg.BatchSize)
	if err != nil {
		if p.ctx.Err() == nil {
			p.logger.Error("Failed to fetch pending exports: %v", err)
		}
		return
	}

	if len(jobs) == 0 {
		return
	}

	p.logger.Info("Processing %d pending exports", len(jobs))

	for _, job := range jobs {
		if p.ctx.Err() != nil {
			p.logger.Info("Processor stopped, aborting export processing")
			return
		}
		p.processJob(job)
	}
}

// processJob выполняет одну выгрузку и сообщает результат в чат
func (p *Processor) processJob(job *domain.ExportJob) {
	claimed, err := p.repo.ClaimPending(p.ctx, job.ID)
	if err != nil {
		p.logger.Error("Failed to claim export %d: %v", job.ID, err)
		return
	}
	if !claimed {
		p.logger.Debug("Export %d already claimed", job.ID)
		return
	}

	p.logger.Info("Processing export %d (kind: %s, format: %s, host: %s, user: %d)",
		job.ID, job.Kind, job.Format, job.HostID, job.UserID)

	req, err := p.buildRequest(job)
	if err != nil {
		p.fail(job, err, 0, "")
		return
	}

	jobCtx, cancel := context.WithCancel(p.ctx)
	p.register(job.ID, cancel)
	defer p.unregister(job.ID)

	res, err := p.exporter.Run(jobCtx, req, p.progress(job))

	var (
		rows int64
		path = req.OutputPath
	)
	if res != nil {
		rows = int64(res.TotalRows)
		path = res.Path
	}

	switch {
	case err == nil:
		p.complete(job, res)
	case errors.Is(err, fetcher.ErrCancelled):
		reason := reasonCancelled
		if p.ctx.Err() != nil {
			reason = reasonStopped
		}
		p.logger.Info("Export %d cancelled (%s) after %d rows", job.ID, reason, rows)
		p.markFailed(job.ID, reason, rows, path)
		p.notify(job, templates.ExportCancelled(rows))
	default:
		p.fail(job, err, rows, path)
	}
}

// buildRequest параметры выгрузки; файлы задачи лежат в каталоге с её uuid
func (p *Processor) buildRequest(job *domain.ExportJob) (export.Request, error) {
	period, err := domain.ParseDateRange(job.DateFrom, job.DateTo)
	if err != nil {
		return export.Request{}, err
	}

	uid, err := p.account.UserID(p.ctx)
	if err != nil {
		return export.Request{}, fmt.Errorf("resolve webmaster user: %w", err)
	}

	name := export.FileName(job.HostID, job.Kind, job.Format, p.now())

	return export.Request{
		Kind:       job.Kind,
		Format:     job.Format,
		UserID:     uid,
		HostID:     job.HostID,
		HostURL:    job.HostURL,
		DateRange:  period,
		DeviceType: job.DeviceType,
		RegionID:   p.cfg.RegionID,
		RegionName: p.cfg.RegionName,
		MaxRows:    p.cfg.MaxRows,
		OutputPath: filepath.Join(p.cfg.ExportsDir, job.JobUUID, name),
		StatePath:  filepath.Join(p.cfg.StatesDir, job.JobUUID+checkpoint.Suffix),
		BOM:        true,
	}, nil
}

// progress редактирует сообщение задачи не чаще ProgressInterval
func (p *Processor) progress(job *domain.ExportJob) fetcher.ProgressFunc {
	var last time.Time

	return func(done, total int, note string) {
		now := p.now()
		if done < total && !last.IsZero() && now.Sub(last) < p.cfg.ProgressInterval {
			return
		}
		last = now

		msg := domain.NewHTMLMessage(job.ChatID, templates.ExportProgress(done, total, note)).
			WithInline(templates.ExportProgressKeyboard(job.ID)...).
			Edit(job.MessageID)
		if _, err := p.telegram.SendMessage(msg); err != nil {
			p.logger.Debug("Failed to update progress of export %d: %v", job.ID, err)
		}
	}
}

// complete фиксирует результат и счётчик пользователя одной транзакцией, затем отправляет файл
func (p *Processor) complete(job *domain.ExportJob, res *export.Result) {
	ctx, cancel := p.bookkeepingContext()
	defer cancel()

	rows := int64(res.TotalRows)
	err := p.tx.Do(ctx, func(ctx context.Context) error {
		if err := p.repo.MarkCompleted(ctx, job.ID, rows, res.Path, res.Size); err != nil {
			return err
		}
		return p.users.IncrementExports(ctx, job.UserID)
	})
	if err != nil {
		p.logger.Error("Failed to mark export %d as completed: %v", job.ID, err)
	}

	p.logger.Info("Export %d completed: %s (%d rows, %d bytes)", job.ID, res.Path, rows, res.Size)

	p.notify(job, templates.ExportCompleted(job, rows, res.Size))

	if err := p.telegram.SendDocument(job.ChatID, res.Path, templates.ExportCaption(job)); err != nil {
		p.logger.Error("Failed to send export %d file: %v", job.ID, err)
		if _, sendErr := p.telegram.SendMessage(domain.NewHTMLMessage(job.ChatID, templates.ExportFailed(err))); sendErr != nil {
			p.logger.Error("Failed to notify chat %d: %v", job.ChatID, sendErr)
		}
	}
}

func (p *Processor) fail(job *domain.ExportJob, err error, rows int64, path string) {
	p.logger.Error("Export %d failed: %v", job.ID, err)
	p.markFailed(job.ID, err.Error(), rows, path)
	p.notify(job, templates.ExportFailed(err))
}

func (p *Processor) markFailed(id int64, reason string, rows int64, path string) {
	ctx, cancel := p.bookkeepingContext()
	defer cancel()

	if err := p.repo.MarkFailed(ctx, id, reason, rows, path); err != nil {
		p.logger.Error("Failed to mark export %d as failed: %v", id, err)
	}
}

// notify заменяет сообщение задачи итоговым текстом без кнопок
func (p *Processor) notify(job *domain.ExportJob, text string) {
	if _, err := p.telegram.SendMessage(domain.NewHTMLMessage(job.ChatID, text).Edit(job.MessageID)); err != nil {
		p.logger.Error("Failed to notify chat %d about export %d: %v", job.ChatID, job.ID, err)
	}
}

// bookkeepingContext запись статуса переживает остановку обработчика
func (p *Processor) bookkeepingContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(p.ctx), bookkeepingTimeout)
}

func (p *Processor) register(id int64, cancel context.CancelFunc) {
	p.mu.Lock()
	p.running[id] = cancel
	p.mu.Unlock()
}

func (p *Processor) unregister(id int64) {
	p.mu.Lock()
	if cancel, ok := p.running[id]; ok {
		cancel()
		delete(p.running, id)
	}
	p.mu.Unlock()
}
