package fetcher

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
	"github.com/FrankX3M/wordstat-api/internal/normalize"
)

const (
	DefaultLimit           = 100
	MaxLimit               = 500
	DefaultSubRequestDelay = 200 * time.Millisecond
	DefaultPageDelay       = 500 * time.Millisecond
)

// DefaultIndicators индикаторы, запрашиваемые отдельными под-запросами
var DefaultIndicators = []string{"TOTAL_SHOWS", "TOTAL_CLICKS", "AVG_SHOW_POSITION", "CTR"}

// Config параметры одной выгрузки
type Config struct {
	UserID     string
	HostID     string
	HostURL    string
	DateRange  domain.DateRange
	RegionID   int
	RegionName string
	DeviceType domain.DeviceType
	OrderBy    string
	Limit      int
	// MaxRows ограничение числа строк; 0 без ограничения
	MaxRows    int
	Indicators []string

	SubRequestDelay time.Duration
	PageDelay       time.Duration
}

// ProgressFunc вызывается после каждого батча; на ход выгрузки не влияет
type ProgressFunc func(recordsSoFar, estimatedTotal int, message string)

// Consumer получает очередной батч до сохранения курсора
type Consumer func(batch []domain.QueryRecord) error

// Result итог работы цикла
type Result struct {
	State   State
	Pages   int
	Records int
	Cursor  domain.FetchCursor
	// Resumed выгрузка продолжена с сохранённого курсора
	Resumed bool
}

// Option настройка Loop
type Option func(*Loop)

func WithLogger(logger Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

func WithObserver(observer Observer) Option {
	return func(l *Loop) { l.observer = observer }
}

func WithProgress(progress ProgressFunc) Option {
	return func(l *Loop) { l.progress = progress }
}

// WithSleeper подменяет паузы между запросами
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Loop) { l.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(l *Loop) { l.now = now }
}

// Loop постраничная выгрузка популярных запросов с возобновлением по курсору
//
// Idle -> Fetching -> (Normalizing -> Checkpointing -> Fetching)* -> Drained | Cancelled | Failed
type Loop struct {
	client   QueryClient
	store    CheckpointStore
	cfg      Config
	logger   Logger
	observer Observer
	progress ProgressFunc
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	state State
}

// New создаёт цикл; store может быть nil, тогда выгрузка всегда начинается с нуля
func New(client QueryClient, store CheckpointStore, cfg Config, opts ...Option) (*Loop, error) {
	if cfg.UserID == "" || cfg.HostID == "" {
		return nil, fmt.Errorf("%w: user id and host id are required", ErrInvalidConf)
	}

	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Limit > MaxLimit {
		cfg.Limit = MaxLimit
	}
	if cfg.MaxRows < 0 {
		cfg.MaxRows = 0
	}
	if len(cfg.Indicators) == 0 {
		cfg.Indicators = DefaultIndicators
	}
	if cfg.OrderBy == "" {
		cfg.OrderBy = domain.OrderByShows
	}
	if cfg.DeviceType == "" {
		cfg.DeviceType = domain.DeviceAll
	}
	if cfg.SubRequestDelay < 0 {
		cfg.SubRequestDelay = 0
	}
	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}

	l := &Loop{
		client:   client,
		store:    store,
		cfg:      cfg,
		logger:   nopLogger{},
		observer: nopObserver{},
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// State текущее состояние цикла
func (l *Loop) State() State {
	return l.state
}

// Config параметры после заполнения значений по умолчанию
func (l *Loop) Config() Config {
	return l.cfg
}

// Run выполняет выгрузку, передавая батчи consume
//
// Отмена ctx проверяется перед каждой страницей. Уже начатая страница дочитывается,
// отдаётся consume и сохраняется в курсор.
func (l *Loop) Run(ctx context.Context, consume Consumer) (res Result, err error) {
	l.state = StateIdle
	defer func() { res.State = l.state }()

	cursor, resumed := l.loadCursor()
	res.Cursor, res.Resumed = cursor, resumed

	if resumed {
		l.logger.Info("Resuming export: host=%s offset=%d total_fetched=%d", l.cfg.HostID, cursor.Offset, cursor.TotalFetched)
	} else {
		l.logger.Info("Starting export: host=%s", l.cfg.HostID)
	}

	if l.cfg.MaxRows > 0 && cursor.TotalFetched >= l.cfg.MaxRows {
		l.state = StateDrained
		return res, nil
	}

	// HTTP-запросы не прерываются отменой; отмена проверяется между страницами
	reqCtx := context.WithoutCancel(ctx)

	for {
		if err := ctx.Err(); err != nil {
			l.state = StateCancelled
			l.logger.Info("Export cancelled at offset=%d, total_fetched=%d", cursor.Offset, cursor.TotalFetched)
			return res, fmt.Errorf("%w: %w", ErrCancelled, err)
		}

		l.state = StateFetching
		fetched, err := l.fetchPage(reqCtx, cursor.Offset)
		if err != nil {
			l.state = StateFailed
			return res, err
		}

		l.state = StateNormalizing
		batch := fetched.records
		if len(batch) == 0 {
			l.state = StateDrained
			l.logger.Info("No more data at offset=%d, total_fetched=%d", cursor.Offset, cursor.TotalFetched)
			return res, nil
		}

		capped := false
		if l.cfg.MaxRows > 0 && cursor.TotalFetched+len(batch) >= l.cfg.MaxRows {
			batch = batch[:l.cfg.MaxRows-cursor.TotalFetched]
			capped = true
		}

		if consume != nil {
			if err := consume(batch); err != nil {
				l.state = StateFailed
				return res, fmt.Errorf("%w: offset %d: %w", ErrConsumer, cursor.Offset, err)
			}
		}

		l.state = StateCheckpointing
		// обрезанный батч: подсказка относится к целой странице и сдвинула бы курсор за непереданные строки
		hint := 0
		if fetched.hint != nil && !capped {
			hint = *fetched.hint
		}
		next, err := cursor.Advance(len(batch), hint, l.now())
		if err != nil {
			l.state = StateFailed
			return res, fmt.Errorf("%w: %v", ErrCheckpoint, err)
		}
		if l.store != nil {
			if err := l.store.Save(next); err != nil {
				l.state = StateFailed
				return res, fmt.Errorf("%w: %v", ErrCheckpoint, err)
			}
		}

		cursor = next
		res.Cursor = cursor
		res.Pages++
		res.Records += len(batch)

		l.observer.ObservePage(len(batch))
		l.logger.Info("Fetched %d records at offset=%d, total_fetched=%d", len(batch), cursor.Offset-len(batch), cursor.TotalFetched)
		l.reportProgress(cursor.TotalFetched, fetched.total)

		if capped {
			l.state = StateDrained
			l.logger.Info("Row limit %d reached", l.cfg.MaxRows)
			return res, nil
		}
		if fetched.short {
			l.state = StateDrained
			l.logger.Info("Last page reached: %d items < limit %d", fetched.maxItems, l.cfg.Limit)
			return res, nil
		}

		_ = l.sleep(ctx, l.cfg.PageDelay)
	}
}

// Batches итератор по батчам; ошибка (в том числе отмена) отдаётся последним элементом
func (l *Loop) Batches(ctx context.Context) iter.Seq2[[]domain.QueryRecord, error] {
	return func(yield func([]domain.QueryRecord, error) bool) {
		stopped := false
		_, err := l.Run(ctx, func(batch []domain.QueryRecord) error {
			if !yield(batch, nil) {
				stopped = true
				return errStopIteration
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

type page struct {
	records  []domain.QueryRecord
	hint     *int
	total    *int
	maxItems int
	short    bool
}

// fetchPage запрашивает страницу по каждому индикатору и объединяет записи по ключу
// Индикатор, исчерпавший повторы, пропускается; если не ответил ни один, страница считается упавшей
func (l *Loop) fetchPage(ctx context.Context, offset int) (*page, error) {
	path := webmaster.PopularQueriesPath(l.cfg.UserID, l.cfg.HostID)

	merged := make(map[string]normalize.Accumulator)
	var order []string
	result := &page{}
	succeeded := 0
	var lastErr error

	for i, indicator := range l.cfg.Indicators {
		if i > 0 {
			_ = l.sleep(ctx, l.cfg.SubRequestDelay)
		}

		resp, err := l.client.Send(ctx, http.MethodGet, path, l.params(offset, indicator))
		if err != nil {
			if webmaster.IsFatal(err) {
				return nil, fmt.Errorf("%w: indicator %s offset %d: %w", ErrFatal, indicator, offset, err)
			}
			l.logger.Error("Indicator %s dropped at offset=%d: %v", indicator, offset, err)
			l.observer.ObserveDroppedIndicator(indicator)
			lastErr = err
			continue
		}
		succeeded++

		payload, err := normalize.ParsePayload(resp.Body)
		if err != nil {
			l.logger.Warn("Unexpected payload for indicator %s at offset=%d: %v", indicator, offset, err)
		}

		items, hint := normalize.Extract(payload, offset, l.cfg.Limit)
		if hint != nil && result.hint == nil {
			result.hint = hint
		}
		if total, ok := normalize.TotalCount(payload); ok && result.total == nil {
			result.total = &total
		}
		if len(items) > result.maxItems {
			result.maxItems = len(items)
		}

		for idx, item := range items {
			acc := normalize.Accumulate(item)
			if acc.Key == "" {
				acc.Key = "#" + strconv.Itoa(offset+idx)
			}
			existing, ok := merged[acc.Key]
			if !ok {
				order = append(order, acc.Key)
				merged[acc.Key] = acc
				continue
			}
			merged[acc.Key] = normalize.Merge(existing, acc)
		}
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("%w: offset %d: %w", ErrPageFailed, offset, lastErr)
	}

	result.short = result.maxItems < l.cfg.Limit

	rc := l.recordContext()
	malformed := 0
	result.records = make([]domain.QueryRecord, 0, len(order))
	for _, key := range order {
		acc := merged[key]
		malformed += acc.Malformed
		result.records = append(result.records, normalize.ToRecord(acc, rc))
	}

	if malformed > 0 {
		l.logger.Debug("Offset %d: %d metric values could not be parsed", offset, malformed)
		l.observer.ObserveCoercionFailures(malformed)
	}

	return result, nil
}

func (l *Loop) params(offset int, indicator string) url.Values {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(l.cfg.Limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("order_by", l.cfg.OrderBy)
	params.Set("device_type_indicator", string(l.cfg.DeviceType))
	if !l.cfg.DateRange.From.IsZero() {
		params.Set("date_from", l.cfg.DateRange.FromString())
	}
	if !l.cfg.DateRange.To.IsZero() {
		params.Set("date_to", l.cfg.DateRange.ToString())
	}
	params.Set("query_indicator", indicator)
	return params
}

func (l *Loop) recordContext() normalize.RecordContext {
	rc := normalize.RecordContext{
		HostID:     l.cfg.HostID,
		HostURL:    l.cfg.HostURL,
		RegionID:   l.cfg.RegionID,
		RegionName: l.cfg.RegionName,
		DeviceType: l.cfg.DeviceType,
		OrderBy:    l.cfg.OrderBy,
		SampleTime: domain.SampleNow(l.now()),
	}
	if !l.cfg.DateRange.From.IsZero() {
		rc.DateFrom = l.cfg.DateRange.FromString()
	}
	if !l.cfg.DateRange.To.IsZero() {
		rc.DateTo = l.cfg.DateRange.ToString()
	}
	return rc
}

func (l *Loop) loadCursor() (domain.FetchCursor, bool) {
	if l.store == nil {
		return domain.FetchCursor{}, false
	}
	cursor, ok := l.store.Load()
	if !ok {
		return domain.FetchCursor{}, false
	}
	return cursor, true
}

// reportProgress оценка общего числа: total из ответа API, иначе уже выгруженное; не больше MaxRows
func (l *Loop) reportProgress(fetched int, total *int) {
	if l.progress == nil {
		return
	}

	estimated := fetched
	if total != nil && *total > estimated {
		estimated = *total
	}
	if l.cfg.MaxRows > 0 && estimated > l.cfg.MaxRows {
		estimated = l.cfg.MaxRows
	}

	l.progress(fetched, estimated, fmt.Sprintf("Выгружено записей: %d", fetched))
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
