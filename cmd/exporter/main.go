package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/config"
	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
	"github.com/FrankX3M/wordstat-api/internal/service/export"
	"github.com/FrankX3M/wordstat-api/internal/service/fetcher"
	"github.com/FrankX3M/wordstat-api/pkg/logger"
)

const (
	exitFailure   = 1
	exitCancelled = 130

	defaultRangeDays = 7
)

type options struct {
	configPath    string
	hostID        string
	accessToken   string
	kind          string
	regionID      int
	regionName    string
	deviceType    string
	orderBy       string
	limit         int
	dateFrom      string
	dateTo        string
	outputFile    string
	format        string
	stateFile     string
	reset         bool
	maxRows       int
	debug         bool
	noInteractive bool
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	flag.StringVar(&opts.configPath, "config", "config.toml", "путь к файлу конфигурации (.toml или .yaml)")
	flag.StringVar(&opts.hostID, "host-id", "", "host_id или url сайта")
	flag.StringVar(&opts.accessToken, "access-token", "", "OAuth токен (по умолчанию YANDEX_ACCESS_TOKEN)")
	flag.StringVar(&opts.kind, "export", string(domain.ExportQueries), "тип выгрузки")
	flag.IntVar(&opts.regionID, "region", 0, "идентификатор региона")
	flag.StringVar(&opts.regionName, "region-name", "", "название региона для строк выгрузки")
	flag.StringVar(&opts.deviceType, "device-type", string(domain.DeviceAll), "тип устройств")
	flag.StringVar(&opts.orderBy, "order-by", domain.OrderByShows, "поле сортировки: TOTAL_SHOWS или TOTAL_CLICKS")
	flag.IntVar(&opts.limit, "limit", 0, "размер страницы, от 1 до 500")
	flag.StringVar(&opts.dateFrom, "date-from", "", "начало периода YYYY-MM-DD")
	flag.StringVar(&opts.dateTo, "date-to", "", "конец периода YYYY-MM-DD")
	flag.StringVar(&opts.outputFile, "output-file", "queries.csv", "файл выгрузки")
	flag.StringVar(&opts.format, "format", "", "формат файла: csv, xlsx или json (по умолчанию по расширению)")
	flag.StringVar(&opts.stateFile, "state-file", "", "файл состояния (по умолчанию <output-file>.state.json)")
	flag.BoolVar(&opts.reset, "reset", false, "начать заново, игнорируя сохранённое состояние")
	flag.IntVar(&opts.maxRows, "max-rows", 0, "максимум строк, 0 без ограничения")
	flag.BoolVar(&opts.debug, "debug", false, "подробный лог")
	flag.BoolVar(&opts.noInteractive, "no-interactive", false, "не спрашивать сайт в терминале")
	flag.Parse()

	path := opts.configPath
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		path = ""
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return exitFailure
	}

	level := cfg.Logs.Level
	if opts.debug {
		level = "debug"
	}
	log := logger.NewWithWriter(os.Stderr, level)

	req, err := buildRequest(opts, cfg, time.Now(), log)
	if err != nil {
		log.Error("Invalid arguments: %v", err)
		return exitFailure
	}

	token := opts.accessToken
	if token == "" {
		token = cfg.Webmaster.AccessToken
	}
	if token == "" {
		log.Error("Access token is required (-access-token or YANDEX_ACCESS_TOKEN)")
		return exitFailure
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := webmaster.NewClient(webmaster.Options{
		BaseURL:     cfg.Webmaster.BaseURL,
		Token:       token,
		Timeout:     cfg.Webmaster.RequestTimeout(),
		MaxAttempts: cfg.Webmaster.RetryAttempts,
		Logger:      log,
	})

	info, err := client.GetUserInfo(ctx)
	if err != nil {
		log.Error("Failed to get user info: %v", err)
		return exitFailure
	}
	req.UserID = info.UserID

	hosts, err := client.ListHosts(ctx, info.UserID)
	if err != nil {
		log.Error("Failed to list hosts: %v", err)
		return exitFailure
	}
	log.Info("Found %d hosts", len(hosts))

	host, err := pickHost(hosts, opts.hostID, !opts.noInteractive, bufio.NewReader(os.Stdin), os.Stdout)
	if err != nil {
		log.Error("Host selection failed: %v", err)
		return exitFailure
	}
	log.Info("Selected host %s (%s)", host.HostID, host.URL)

	req.HostID = host.HostID
	req.HostURL = host.URL

	svc := export.NewService(client, export.Config{
		Dir:             filepath.Dir(req.OutputPath),
		DefaultLimit:    cfg.Export.DefaultPageSize,
		SubRequestDelay: cfg.Export.SubRequestPause(),
		PageDelay:       cfg.Export.PagePause(),
		HistoryDelay:    cfg.Export.HistoryPause(),
	}, log)

	res, err := svc.Run(ctx, req, func(done, total int, message string) {
		if message != "" {
			log.Info("%s", message)
			return
		}
		log.Info("Rows written: %d of ~%d", done, total)
	})
	switch {
	case errors.Is(err, fetcher.ErrCancelled):
		rows := 0
		if res != nil {
			rows = res.TotalRows
		}
		log.Warn("Export interrupted, %d rows saved; run again with the same -output-file to resume", rows)
		return exitCancelled
	case err != nil:
		log.Error("Export failed: %v", err)
		return exitFailure
	}

	fmt.Printf("Выгрузка завершена: %d строк, файл %s\n", res.TotalRows, res.Path)
	return 0
}

// buildRequest проверяет флаги и собирает параметры выгрузки
func buildRequest(opts options, cfg *config.Config, now time.Time, log *logger.Logger) (export.Request, error) {
	kind, err := domain.ParseExportKind(opts.kind)
	if err != nil {
		return export.Request{}, err
	}
	device, err := domain.ParseDeviceType(opts.deviceType)
	if err != nil {
		return export.Request{}, err
	}
	orderBy, err := domain.ParseOrderBy(opts.orderBy)
	if err != nil {
		return export.Request{}, err
	}
	format, err := resolveFormat(opts.format, opts.outputFile)
	if err != nil {
		return export.Request{}, err
	}
	dates, err := resolveRange(opts.dateFrom, opts.dateTo, now, cfg.Export.MaxRangeDays)
	if err != nil {
		return export.Request{}, err
	}

	limit := opts.limit
	if limit == 0 {
		limit = cfg.Export.DefaultPageSize
	}
	if limit < 1 || limit > fetcher.MaxLimit {
		log.Warn("Limit %d is out of range 1..%d, using %d", limit, fetcher.MaxLimit, fetcher.MaxLimit)
		limit = fetcher.MaxLimit
	}

	regionID := opts.regionID
	if regionID == 0 {
		regionID = cfg.Export.RegionID
	}
	regionName := opts.regionName
	if regionName == "" {
		regionName = cfg.Export.RegionName
	}

	return export.Request{
		Kind:       kind,
		Format:     format,
		DateRange:  dates,
		DeviceType: device,
		RegionID:   regionID,
		RegionName: regionName,
		OrderBy:    orderBy,
		Limit:      limit,
		MaxRows:    max(opts.maxRows, 0),
		OutputPath: opts.outputFile,
		StatePath:  opts.stateFile,
		Reset:      opts.reset,
	}, nil
}

// resolveFormat явный формат или формат по расширению файла, csv по умолчанию
func resolveFormat(format, outputFile string) (domain.ExportFormat, error) {
	if format != "" {
		return domain.ParseExportFormat(format)
	}
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".xlsx":
		return domain.FormatXLSX, nil
	case ".json":
		return domain.FormatJSON, nil
	default:
		return domain.FormatCSV, nil
	}
}

// resolveRange период по флагам: без дат последние 7 дней, одна дата достраивает другую
func resolveRange(from, to string, now time.Time, maxDays int) (domain.DateRange, error) {
	var (
		r   domain.DateRange
		err error
	)

	switch {
	case from == "" && to == "":
		r = domain.LastDays(now, defaultRangeDays)
	case from == "":
		if r.To, err = domain.ParseDate(to); err != nil {
			return r, err
		}
		r.From = r.To.AddDate(0, 0, -defaultRangeDays)
	case to == "":
		if r.From, err = domain.ParseDate(from); err != nil {
			return r, err
		}
		r.To = domain.LastDays(now, 0).To
	default:
		if r, err = domain.ParseDateRange(from, to); err != nil {
			return r, err
		}
	}

	return r, r.Validate(now, maxDays)
}
