package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/FrankX3M/wordstat-api/pkg/types"
)

var (
	ErrDecode  = errors.New("config: failed to decode config file")
	ErrInvalid = errors.New("config: validation failed")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MaxPageSize = 500
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Logs      LogsConfig      `toml:"logs" yaml:"logs"`
	Server    ServerConfig    `toml:"server" yaml:"server"`
	Database  DatabaseConfig  `toml:"database" yaml:"database"`
	Metrics   MetricsConfig   `toml:"metrics" yaml:"metrics"`
	Telegram  TelegramConfig  `toml:"telegram" yaml:"telegram"`
	Webmaster WebmasterConfig `toml:"webmaster" yaml:"webmaster"`
	Export    ExportConfig    `toml:"export" yaml:"export"`
	Worker    WorkerConfig    `toml:"worker" yaml:"worker"`
	Janitor   JanitorConfig   `toml:"janitor" yaml:"janitor"`
	Bot       BotConfig       `toml:"bot" yaml:"bot"`
}

// LogsConfig содержит настройки логирования
type LogsConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// ServerConfig HTTP сервер бота (health, webhook, metrics)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port" yaml:"http_port"`
	ReadTimeout     int `toml:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout" yaml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DatabaseConfig база учёта пользователей и выгрузок: sqlite по умолчанию или postgres
type DatabaseConfig struct {
	Driver string `toml:"driver" yaml:"driver"`
	// DSN путь к файлу для sqlite; для postgres пустой DSN собирается из полей ниже
	DSN             string `toml:"dsn" yaml:"dsn"`
	Host            string `toml:"host" yaml:"host"`
	Port            int    `toml:"port" yaml:"port"`
	User            string `toml:"user" yaml:"user"`
	Password        string `toml:"password" yaml:"password"`
	DBName          string `toml:"dbname" yaml:"dbname"`
	SSLMode         string `toml:"sslmode" yaml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// MetricsConfig содержит настройки метрик Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" yaml:"enabled"`
	Path        string `toml:"path" yaml:"path"`
	ServiceName string `toml:"service_name" yaml:"service_name"`
}

// TelegramConfig содержит настройки Telegram Bot
type TelegramConfig struct {
	BotToken   string `toml:"bot_token" yaml:"bot_token"`
	WebhookURL string `toml:"webhook_url" yaml:"webhook_url"` // без него бот работает через long polling
	Debug      bool   `toml:"debug" yaml:"debug"`
}

// WebmasterConfig доступ к Yandex Webmaster API
type WebmasterConfig struct {
	BaseURL       string `toml:"base_url" yaml:"base_url"`
	AccessToken   string `toml:"access_token" yaml:"access_token"`
	RetryAttempts int    `toml:"retry_attempts" yaml:"retry_attempts"`
	Timeout       int    `toml:"timeout" yaml:"timeout"` // в секундах
}

// ExportConfig параметры выгрузок
type ExportConfig struct {
	DefaultPageSize int    `toml:"default_page_size" yaml:"default_page_size"`
	MaxRows         int    `toml:"max_rows" yaml:"max_rows"`
	RegionID        int    `toml:"region_id" yaml:"region_id"`
	RegionName      string `toml:"region_name" yaml:"region_name"`
	// паузы в миллисекундах
	SubRequestDelay int    `toml:"sub_request_delay_ms" yaml:"sub_request_delay_ms"`
	PageDelay       int    `toml:"page_delay_ms" yaml:"page_delay_ms"`
	HistoryDelay    int    `toml:"history_delay_ms" yaml:"history_delay_ms"`
	MaxRangeDays    int    `toml:"max_range_days" yaml:"max_range_days"`
	DefaultDays     int    `toml:"default_days" yaml:"default_days"`
	ExportsDir      string `toml:"exports_dir" yaml:"exports_dir"`
	StatesDir       string `toml:"states_dir" yaml:"states_dir"`
}

// WorkerConfig содержит настройки worker'ов
type WorkerConfig struct {
	ProcessorInterval  int `toml:"processor_interval" yaml:"processor_interval"`     // секунды между опросами pending выгрузок
	ProcessorBatchSize int `toml:"processor_batch_size" yaml:"processor_batch_size"` // задач за один проход
	ProgressInterval   int `toml:"progress_interval" yaml:"progress_interval"`       // секунды между правками сообщения с прогрессом
}

// JanitorConfig очистка кэша и старых файлов
type JanitorConfig struct {
	RunAt         types.TimeString `toml:"run_at" yaml:"run_at"` // HH:MM
	RetentionDays int              `toml:"retention_days" yaml:"retention_days"`
	CacheTTL      int              `toml:"cache_ttl" yaml:"cache_ttl"` // в секундах
}

// BotConfig поведение бота
type BotConfig struct {
	AdminUserIDs []int64 `toml:"admin_user_ids" yaml:"admin_user_ids"`
	HostsPerPage int     `toml:"hosts_per_page" yaml:"hosts_per_page"`
}

// ConnString строка подключения для выбранного драйвера
func (d DatabaseConfig) ConnString() string {
	if d.DSN != "" || d.Driver != DriverPostgres {
		return d.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (w WebmasterConfig) RequestTimeout() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

func (e ExportConfig) SubRequestPause() time.Duration {
	return time.Duration(e.SubRequestDelay) * time.Millisecond
}

func (e ExportConfig) PagePause() time.Duration {
	return time.Duration(e.PageDelay) * time.Millisecond
}

func (e ExportConfig) HistoryPause() time.Duration {
	return time.Duration(e.HistoryDelay) * time.Millisecond
}

func (j JanitorConfig) CacheLifetime() time.Duration {
	return time.Duration(j.CacheTTL) * time.Second
}

func (j JanitorConfig) Retention() time.Duration {
	return time.Duration(j.RetentionDays) * 24 * time.Hour
}

// Load загружает конфигурацию из TOML или YAML файла с поддержкой переменных окружения
// Пустой path означает значения по умолчанию и окружение
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	overrideFromEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return &cfg, nil
}

// RequireTelegram проверяет настройки, без которых бот не запускается
func (c *Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		return fmt.Errorf("%w: telegram bot token is required", ErrInvalid)
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDecode, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("%w: yaml: %v", ErrDecode, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return fmt.Errorf("%w: toml: %v", ErrDecode, err)
		}
	}
	return nil
}

// overrideFromEnv переопределяет значения из переменных окружения
func overrideFromEnv(cfg *Config) {
	// Telegram
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.Telegram.WebhookURL, "TELEGRAM_WEBHOOK_URL")

	// Webmaster
	setString(&cfg.Webmaster.AccessToken, "YANDEX_ACCESS_TOKEN")
	setString(&cfg.Webmaster.BaseURL, "WEBMASTER_API_BASE")
	setInt(&cfg.Webmaster.RetryAttempts, "RETRY_ATTEMPTS")
	setInt(&cfg.Webmaster.Timeout, "REQUEST_TIMEOUT")

	// Database
	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_DSN")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.DBName, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSLMODE")

	// Server
	setInt(&cfg.Server.HTTPPort, "HTTP_PORT")

	// Logs
	setString(&cfg.Logs.Level, "LOG_LEVEL")
	setString(&cfg.Logs.File, "LOG_FILE")

	// Metrics
	if v := os.Getenv("METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	setString(&cfg.Metrics.Path, "METRICS_PATH")
	setString(&cfg.Metrics.ServiceName, "METRICS_SERVICE_NAME")

	// Export
	setInt(&cfg.Export.MaxRows, "MAX_EXPORT_ROWS")
	setInt(&cfg.Export.DefaultPageSize, "DEFAULT_PAGE_SIZE")
	setString(&cfg.Export.ExportsDir, "EXPORTS_DIR")
	setString(&cfg.Export.StatesDir, "STATES_DIR")

	// Janitor
	setInt(&cfg.Janitor.CacheTTL, "CACHE_TTL")

	// Bot
	if v := os.Getenv("ADMIN_USER_IDS"); v != "" {
		cfg.Bot.AdminUserIDs = parseIDs(v)
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

// parseIDs разбирает список через запятую, нечисловые элементы пропускаются
func parseIDs(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// validate проверяет корректность конфигурации и заполняет значения по умолчанию
func validate(cfg *Config) error {
	// Database
	switch cfg.Database.Driver {
	case "":
		cfg.Database.Driver = DriverSQLite
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = "./data/webmaster_bot.db"
	}
	if cfg.Database.Driver == DriverPostgres && cfg.Database.DSN == "" {
		if cfg.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
		if cfg.Database.Port < 0 || cfg.Database.Port > 65535 {
			return fmt.Errorf("database port must be between 1 and 65535")
		}
		if cfg.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if cfg.Database.DBName == "" {
			return fmt.Errorf("database name is required")
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 300
	}

	// Server
	if cfg.Server.HTTPPort == 0 {
		cfg.Server.HTTPPort = 8080
	}
	if cfg.Server.HTTPPort < 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10
	}

	// Logs
	if cfg.Logs.Level == "" {
		cfg.Logs.Level = "info"
	}
	if cfg.Logs.File == "" {
		cfg.Logs.File = "./logs/app.log"
	}

	// Metrics
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = "wordstat_api"
	}

	// Webmaster
	if cfg.Webmaster.BaseURL == "" {
		cfg.Webmaster.BaseURL = "https://api.webmaster.yandex.net/v4"
	}
	if cfg.Webmaster.RetryAttempts <= 0 {
		cfg.Webmaster.RetryAttempts = 3
	}
	if cfg.Webmaster.Timeout <= 0 {
		cfg.Webmaster.Timeout = 30
	}

	// Export
	if cfg.Export.DefaultPageSize <= 0 {
		cfg.Export.DefaultPageSize = 100
	}
	cfg.Export.DefaultPageSize = min(cfg.Export.DefaultPageSize, MaxPageSize)
	if cfg.Export.MaxRows <= 0 {
		cfg.Export.MaxRows = 10000
	}
	if cfg.Export.RegionID == 0 {
		cfg.Export.RegionID = 225
	}
	if cfg.Export.RegionName == "" {
		cfg.Export.RegionName = "Россия"
	}
	if cfg.Export.SubRequestDelay <= 0 {
		cfg.Export.SubRequestDelay = 200
	}
	if cfg.Export.PageDelay <= 0 {
		cfg.Export.PageDelay = 500
	}
	if cfg.Export.HistoryDelay <= 0 {
		cfg.Export.HistoryDelay = 100
	}
	if cfg.Export.MaxRangeDays <= 0 {
		cfg.Export.MaxRangeDays = 365
	}
	if cfg.Export.DefaultDays <= 0 {
		cfg.Export.DefaultDays = 30
	}
	if cfg.Export.DefaultDays > cfg.Export.MaxRangeDays {
		return fmt.Errorf("default_days %d exceeds max_range_days %d", cfg.Export.DefaultDays, cfg.Export.MaxRangeDays)
	}
	if cfg.Export.ExportsDir == "" {
		cfg.Export.ExportsDir = "./exports"
	}
	if cfg.Export.StatesDir == "" {
		cfg.Export.StatesDir = "./states"
	}

	// Worker
	if cfg.Worker.ProcessorInterval <= 0 {
		cfg.Worker.ProcessorInterval = 5
	}
	if cfg.Worker.ProcessorBatchSize <= 0 {
		cfg.Worker.ProcessorBatchSize = 10
	}
	if cfg.Worker.ProgressInterval <= 0 {
		cfg.Worker.ProgressInterval = 2
	}

	// Janitor
	if cfg.Janitor.RunAt == "" {
		cfg.Janitor.RunAt = "03:30"
	}
	if err := cfg.Janitor.RunAt.Validate(); err != nil {
		return fmt.Errorf("janitor run_at: %w", err)
	}
	if cfg.Janitor.RetentionDays <= 0 {
		cfg.Janitor.RetentionDays = 7
	}
	if cfg.Janitor.CacheTTL <= 0 {
		cfg.Janitor.CacheTTL = 3600
	}

	// Bot
	if cfg.Bot.HostsPerPage <= 0 {
		cfg.Bot.HostsPerPage = 10
	}

	return nil
}
