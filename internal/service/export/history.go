package export

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/sink"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
	"github.com/FrankX3M/wordstat-api/internal/normalize"
	"github.com/FrankX3M/wordstat-api/internal/service/fetcher"
)

// historyIndicators индикаторы, запрашиваемые в истории одним запросом
var historyIndicators = []string{"TOTAL_SHOWS", "TOTAL_CLICKS", "AVG_SHOW_POSITION", "CTR"}

// topQueries первые top запросов по показам
func (s *Service) topQueries(ctx context.Context, req Request, top, limit int, indicators []string) ([]domain.QueryRecord, error) {
	cfg := s.loopConfig(req)
	cfg.Limit = limit
	cfg.MaxRows = top
	cfg.Indicators = indicators

	loop, err := fetcher.New(s.client, nil, cfg, s.loopOptions(nil)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var records []domain.QueryRecord
	if _, err := loop.Run(ctx, func(batch []domain.QueryRecord) error {
		records = append(records, batch...)
		return nil
	}); err != nil {
		return records, wrapFetch(err)
	}

	return records, nil
}

// queryHistory история одного запроса по дням
func (s *Service) queryHistory(ctx context.Context, req Request, queryID string) ([]domain.HistoryPoint, error) {
	params := url.Values{}
	if !req.DateRange.From.IsZero() {
		params.Set("date_from", req.DateRange.FromString())
	}
	if !req.DateRange.To.IsZero() {
		params.Set("date_to", req.DateRange.ToString())
	}
	if req.DeviceType != "" {
		params.Set("device_type_indicator", string(req.DeviceType))
	}
	for _, indicator := range historyIndicators {
		params.Add("query_indicator", indicator)
	}

	resp, err := s.client.Send(ctx, http.MethodGet, webmaster.QueryHistoryPath(req.UserID, req.HostID, queryID), params)
	if err != nil {
		return nil, err
	}

	payload, err := normalize.ParsePayload(resp.Body)
	if err != nil {
		s.logger.Warn("Unexpected history payload for query %s: %v", queryID, err)
		return nil, nil
	}

	return normalize.HistoryPoints(payload), nil
}

// eachHistory обходит запросы и получает историю каждого
// Ошибка отдельного запроса пропускается, фатальная ошибка и отмена прерывают обход
func (s *Service) eachHistory(ctx context.Context, req Request, queries []domain.QueryRecord, progress fetcher.ProgressFunc,
	fn func(q domain.QueryRecord, points []domain.HistoryPoint) error) error {
	reqCtx := context.WithoutCancel(ctx)
	total := len(queries)

	for idx, q := range queries {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", fetcher.ErrCancelled, err)
		}

		var points []domain.HistoryPoint
		if q.QueryID == "" {
			s.logger.Debug("Query %q has no id, history skipped", q.Query)
		} else {
			if idx > 0 {
				_ = s.sleep(ctx, s.cfg.HistoryDelay)
			}

			var err error
			points, err = s.queryHistory(reqCtx, req, q.QueryID)
			if err != nil {
				if webmaster.IsFatal(err) {
					return fmt.Errorf("%w: query %s: %w", ErrFetch, q.QueryID, err)
				}
				s.logger.Warn("Error fetching history for query %q: %v", q.Query, err)
			}
		}

		if err := fn(q, points); err != nil {
			return err
		}

		if progress != nil {
			progress(idx+1, total, fmt.Sprintf("Обработано запросов: %d/%d", idx+1, total))
		}
	}

	return nil
}

// runHistory строки по дням для top запросов
func (s *Service) runHistory(ctx context.Context, req Request, top, limit int, progress fetcher.ProgressFunc) (*Result, error) {
	queries, err := s.topQueries(ctx, req, top, limit, historyIndicators[:1])
	if err != nil {
		return nil, err
	}
	s.logger.Info("Got %d top queries for history", len(queries))

	writer, err := sink.Open(req.Format, req.OutputPath, sink.Options{BOM: req.BOM, Now: s.now})
	if err != nil {
		return nil, fmt.Errorf("%w: runHistory - open sink: %v", ErrPrepareOutput, err)
	}

	runErr := s.eachHistory(ctx, req, queries, progress, func(q domain.QueryRecord, points []domain.HistoryPoint) error {
		rows := make([]domain.HistoryRecord, 0, len(points))
		for _, p := range points {
			rows = append(rows, domain.HistoryRecord{
				HostID:     req.HostID,
				QueryID:    q.QueryID,
				Query:      q.Query,
				Date:       p.Date,
				DeviceType: q.DeviceType,
				Point:      p,
			})
		}
		if err := writer.Write(sink.Rows(rows)); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		return nil
	})

	res := &Result{Rows: writer.Rows(), TotalRows: writer.Rows()}
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return res, runErr
}

// runAnalytics top запросов с динамикой показов и кликов по истории
func (s *Service) runAnalytics(ctx context.Context, req Request, progress fetcher.ProgressFunc) (*Result, error) {
	queries, err := s.topQueries(ctx, req, analyticsTop, analyticsTop, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Got %d top queries for analytics", len(queries))

	writer, err := sink.Open(req.Format, req.OutputPath, sink.Options{BOM: req.BOM, Now: s.now})
	if err != nil {
		return nil, fmt.Errorf("%w: runAnalytics - open sink: %v", ErrPrepareOutput, err)
	}

	runErr := s.eachHistory(ctx, req, queries, progress, func(q domain.QueryRecord, points []domain.HistoryPoint) error {
		row := Analyze(q, points)
		if err := writer.Write([]sink.Row{row}); err != nil {
			return fmt.Errorf("%w: %v", ErrWrite, err)
		}
		return nil
	})

	res := &Result{Rows: writer.Rows(), TotalRows: writer.Rows()}
	if err := writer.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return res, runErr
}

// Analyze строка аналитики: тренды считаются при двух и более точках истории
func Analyze(q domain.QueryRecord, points []domain.HistoryPoint) domain.AnalyticsRecord {
	row := domain.AnalyticsRecord{QueryRecord: q, HistoryDays: len(points)}
	if len(points) < 2 {
		return row
	}

	first, last := points[0], points[len(points)-1]
	row.ShowsTrend = domain.Trend(first.Shows.Value, last.Shows.Value)
	row.ClicksTrend = domain.Trend(first.Clicks.Value, last.Clicks.Value)
	return row
}
