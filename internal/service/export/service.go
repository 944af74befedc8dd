package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/checkpoint"
	"github.com/FrankX3M/wordstat-api/internal/infra/sink"
	"github.com/FrankX3M/wordstat-api/internal/service/fetcher"
)

const (
	enhancedLimit   = 500
	enhancedMaxRows = 1000

	historyTop      = 100
	historyAllTop   = 200
	historyAllLimit = 500
	analyticsTop    = 200

	DefaultHistoryDelay = 100 * time.Millisecond
)

const (
	statusCompleted = "completed"
	statusFailed    = "failed"
	statusCancelled = "cancelled"
)

// Config параметры сервиса выгрузок
type Config struct {
	// Dir каталог для файлов без явного пути
	Dir             string
	DefaultLimit    int
	MaxRows         int
	SubRequestDelay time.Duration
	PageDelay       time.Duration
	HistoryDelay    time.Duration
}

// Request параметры одной выгрузки
type Request struct {
	Kind       domain.ExportKind
	Format     domain.ExportFormat
	UserID     string
	HostID     string
	HostURL    string
	DateRange  domain.DateRange
	DeviceType domain.DeviceType
	RegionID   int
	RegionName string
	OrderBy    string
	Limit      int
	// MaxRows 0 означает значение из Config
	MaxRows int
	// OutputPath пустой путь: файл FileName(...) в Config.Dir
	OutputPath string
	// StatePath пустой путь: OutputPath + checkpoint.Suffix
	StatePath string
	// Reset начать заново, игнорируя сохранённый курсор
	Reset bool
	// BOM писать UTF-8 BOM в csv
	BOM bool
}

// Result итог выгрузки
type Result struct {
	Path string
	// Rows строк записано в этом запуске
	Rows int
	// TotalRows строк в файле с учётом возобновления
	TotalRows int
	Size      int64
	Resumed   bool
	Duration  time.Duration
}

// Option настройка Service
type Option func(*Service)

func WithObserver(observer Observer) Option {
	return func(s *Service) { s.observer = observer }
}

// WithSleeper подменяет паузы между запросами
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) { s.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service выполняет выгрузки разных типов в файл
type Service struct {
	client   QueryClient
	cfg      Config
	logger   Logger
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewService создает новый экземпляр сервиса
func NewService(client QueryClient, cfg Config, logger Logger, opts ...Option) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = fetcher.DefaultLimit
	}
	if cfg.HistoryDelay <= 0 {
		cfg.HistoryDelay = DefaultHistoryDelay
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}

	s := &Service{
		client:   client,
		cfg:      cfg,
		logger:   logger,
		observer: nopObserver{},
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OutputPath путь файла, который получит запрос
func (s *Service) OutputPath(req Request) string {
	if req.OutputPath != "" {
		return req.OutputPath
	}
	return filepath.Join(s.cfg.Dir, FileName(req.HostID, req.Kind, req.Format, s.now()))
}

// Run выполняет выгрузку; при отмене уже записанные строки остаются в файле
func (s *Service) Run(ctx context.Context, req Request, progress fetcher.ProgressFunc) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	start := s.now()
	req.OutputPath = s.OutputPath(req)
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("%w: Run - mkdir: %v", ErrPrepareOutput, err)
	}

	s.logger.Info("Creating export: kind=%s format=%s host=%s range=%s device=%s",
		req.Kind, req.Format, req.HostID, req.DateRange, req.DeviceType)

	var (
		res *Result
		err error
	)
	switch {
	case req.Kind.IsPaginated():
		res, err = s.runPaginated(ctx, req, progress)
	case req.Kind == domain.ExportHistory:
		res, err = s.runHistory(ctx, req, historyTop, historyTop, progress)
	case req.Kind == domain.ExportHistoryAll:
		res, err = s.runHistory(ctx, req, historyAllTop, historyAllLimit, progress)
	case req.Kind == domain.ExportAnalytics:
		res, err = s.runAnalytics(ctx, req, progress)
	default:
		err = fmt.Errorf("%w: unsupported kind %q", ErrInvalidRequest, req.Kind)
	}

	duration := s.now().Sub(start)
	s.observer.ObserveExport(string(req.Kind), exportStatus(err), duration)

	if res != nil {
		res.Path = req.OutputPath
		res.Duration = duration
		if info, statErr := os.Stat(req.OutputPath); statErr == nil {
			res.Size = info.Size()
		}
	}

	if err != nil {
		s.logger.Warn("Export %s for host %s stopped: %v", req.Kind, req.HostID, err)
		return res, err
	}

	s.logger.Info("Export saved: %s (%d rows, %s)", req.OutputPath, res.Rows, duration)
	return res, nil
}

// runPaginated постраничная выгрузка; csv продолжается с сохранённого курсора
func (s *Service) runPaginated(ctx context.Context, req Request, progress fetcher.ProgressFunc) (*Result, error) {
	cfg := s.loopConfig(req)
	if req.Kind == domain.ExportEnhanced {
		cfg.Limit = enhancedLimit
		if cfg.MaxRows <= 0 || cfg.MaxRows > enhancedMaxRows {
			cfg.MaxRows = enhancedMaxRows
		}
	}

	var (
		store  *checkpoint.FileStore
		resume bool
	)
	if sink.SupportsAppend(req.Format) {
		statePath := req.StatePath
		if statePath == "" {
			statePath = checkpoint.DefaultPath(req.OutputPath)
		}
		store = checkpoint.NewFileStore(statePath, s.logger)

		if req.Reset {
			if err := store.Remove(); err != nil {
				return nil, fmt.Errorf("%w: runPaginated - reset state: %v", ErrPrepareOutput, err)
			}
		}
		_, resume = store.Load()
	}

	writer, err := sink.Open(req.Format, req.OutputPath, sink.Options{Append: resume, BOM: req.BOM, Now: s.now})
	if err != nil {
		return nil, fmt.Errorf("%w: runPaginated - open sink: %v", ErrPrepareOutput, err)
	}

	var loopStore fetcher.CheckpointStore
	if store != nil {
		loopStore = store
	}

	loop, err := fetcher.New(s.client, loopStore, cfg, s.loopOptions(progress)...)
	if err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	loopRes, runErr := loop.Run(ctx, func(batch []domain.QueryRecord) error {
		return writer.Write(sink.Rows(batch))
	})

	res := &Result{Rows: writer.Rows(), TotalRows: loopRes.Cursor.TotalFetched, Resumed: loopRes.Resumed}

	if err := writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("%w: %v", ErrWrite, err)
	}
	if runErr != nil {
		return res, wrapFetch(runErr)
	}

	if store != nil {
		if err := store.Remove(); err != nil {
			s.logger.Warn("Failed to remove checkpoint %s: %v", store.Path(), err)
		}
	}

	return res, nil
}

func (s *Service) loopConfig(req Request) fetcher.Config {
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	maxRows := req.MaxRows
	if maxRows <= 0 {
		maxRows = s.cfg.MaxRows
	}

	return fetcher.Config{
		UserID:          req.UserID,
		HostID:          req.HostID,
		HostURL:         req.HostURL,
		DateRange:       req.DateRange,
		RegionID:        req.RegionID,
		RegionName:      req.RegionName,
		DeviceType:      req.DeviceType,
		OrderBy:         req.OrderBy,
		Limit:           limit,
		MaxRows:         maxRows,
		SubRequestDelay: s.cfg.SubRequestDelay,
		PageDelay:       s.cfg.PageDelay,
	}
}

func (s *Service) loopOptions(progress fetcher.ProgressFunc) []fetcher.Option {
	opts := []fetcher.Option{
		fetcher.WithLogger(s.logger),
		fetcher.WithObserver(s.observer),
		fetcher.WithClock(s.now),
	}
	if progress != nil {
		opts = append(opts, fetcher.WithProgress(progress))
	}
	return append(opts, fetcher.WithSleeper(s.sleep))
}

func validate(req Request) error {
	if req.UserID == "" || req.HostID == "" {
		return fmt.Errorf("%w: user id and host id are required", ErrInvalidRequest)
	}
	if _, err := domain.ParseExportKind(string(req.Kind)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := domain.ParseExportFormat(string(req.Format)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.DeviceType != "" {
		if _, err := domain.ParseDeviceType(string(req.DeviceType)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return nil
}

func wrapFetch(err error) error {
	if errors.Is(err, fetcher.ErrCancelled) || errors.Is(err, ErrWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFetch, err)
}

func exportStatus(err error) string {
	switch {
	case err == nil:
		return statusCompleted
	case errors.Is(err, fetcher.ErrCancelled):
		return statusCancelled
	default:
		return statusFailed
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
