package domain

import (
	"fmt"
	"strings"
)

// DeviceType фильтр по типу устройства
type DeviceType string

const (
	DeviceAll             DeviceType = "ALL"
	DeviceDesktop         DeviceType = "DESKTOP"
	DeviceMobileAndTablet DeviceType = "MOBILE_AND_TABLET"
	DeviceMobile          DeviceType = "MOBILE"
	DeviceTablet          DeviceType = "TABLET"
)

// DeviceTypes все допустимые значения в порядке показа в меню
var DeviceTypes = []DeviceType{DeviceAll, DeviceDesktop, DeviceMobileAndTablet, DeviceMobile, DeviceTablet}

// ParseDeviceType разбирает тип устройства без учёта регистра
func ParseDeviceType(s string) (DeviceType, error) {
	v := DeviceType(strings.ToUpper(strings.TrimSpace(s)))
	for _, d := range DeviceTypes {
		if d == v {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: device type %q", ErrInvalidEnum, s)
}

// Title русское название для меню
func (d DeviceType) Title() string {
	switch d {
	case DeviceDesktop:
		return "Компьютеры"
	case DeviceMobileAndTablet:
		return "Телефоны и планшеты"
	case DeviceMobile:
		return "Телефоны"
	case DeviceTablet:
		return "Планшеты"
	default:
		return "Все устройства"
	}
}

// ExportKind вид выгрузки
type ExportKind string

const (
	ExportPopular    ExportKind = "popular"
	ExportQueries    ExportKind = "queries"
	ExportDetailed   ExportKind = "detailed"
	ExportAllQueries ExportKind = "all-queries"
	ExportEnhanced   ExportKind = "enhanced"
	ExportHistory    ExportKind = "history"
	ExportHistoryAll ExportKind = "history_all"
	ExportAnalytics  ExportKind = "analytics"
)

// ExportKinds все виды выгрузки
var ExportKinds = []ExportKind{
	ExportPopular, ExportQueries, ExportDetailed, ExportAllQueries,
	ExportEnhanced, ExportHistory, ExportHistoryAll, ExportAnalytics,
}

// BotExportKinds виды выгрузки, доступные в боте
var BotExportKinds = []ExportKind{ExportPopular, ExportEnhanced, ExportHistory, ExportHistoryAll, ExportAnalytics}

// ParseExportKind разбирает вид выгрузки
func ParseExportKind(s string) (ExportKind, error) {
	v := ExportKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range ExportKinds {
		if k == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: export kind %q", ErrInvalidEnum, s)
}

// IsPaginated true для видов, которые выгружаются постраничным циклом без истории
func (k ExportKind) IsPaginated() bool {
	switch k {
	case ExportHistory, ExportHistoryAll, ExportAnalytics:
		return false
	default:
		return true
	}
}

// Title русское название для меню
func (k ExportKind) Title() string {
	switch k {
	case ExportEnhanced:
		return "Расширенная выгрузка"
	case ExportHistory:
		return "История запросов"
	case ExportHistoryAll:
		return "Полная история"
	case ExportAnalytics:
		return "Аналитика"
	default:
		return "Популярные запросы"
	}
}

// ExportFormat формат файла выгрузки
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatJSON ExportFormat = "json"
)

// ExportFormats все форматы
var ExportFormats = []ExportFormat{FormatCSV, FormatXLSX, FormatJSON}

// ParseExportFormat разбирает формат файла
func ParseExportFormat(s string) (ExportFormat, error) {
	v := ExportFormat(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, f := range ExportFormats {
		if f == v {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: export format %q", ErrInvalidEnum, s)
}

// ExportStatus статус задачи выгрузки
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "pending"
	ExportStatusProcessing ExportStatus = "processing"
	ExportStatusCompleted  ExportStatus = "completed"
	ExportStatusFailed     ExportStatus = "failed"
)

// Порядок сортировки выдачи
const (
	OrderByShows  = "TOTAL_SHOWS"
	OrderByClicks = "TOTAL_CLICKS"
)

// ParseOrderBy разбирает поле сортировки
func ParseOrderBy(s string) (string, error) {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "":
		return OrderByShows, nil
	case OrderByShows, OrderByClicks:
		return v, nil
	default:
		return "", fmt.Errorf("%w: order by %q", ErrInvalidEnum, s)
	}
}
