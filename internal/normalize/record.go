package normalize

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// RecordContext поля строки, общие для всей выгрузки
type RecordContext struct {
	HostID     string
	HostURL    string
	DateFrom   string
	DateTo     string
	RegionID   int
	RegionName string
	DeviceType domain.DeviceType
	OrderBy    string
	SampleTime time.Time
}

// ToRecord строит строку выгрузки из собранной записи
// Отсутствующие счётчики дают 0, позиция и спрос пустые, CTR вычисляется из кликов и показов
func ToRecord(acc Accumulator, rc RecordContext) domain.QueryRecord {
	shows := Count(acc.Shows)
	clicks := Count(acc.Clicks)

	var ctr float64
	switch {
	case acc.CTR != nil:
		ctr = *acc.CTR
	case shows > 0:
		ctr = domain.RoundTo(float64(clicks)/float64(shows), 6)
	}

	return domain.QueryRecord{
		HostID:     rc.HostID,
		HostURL:    rc.HostURL,
		QueryID:    acc.QueryID,
		Query:      acc.QueryText,
		PageURL:    acc.PageURL,
		DateFrom:   rc.DateFrom,
		DateTo:     rc.DateTo,
		RegionID:   rc.RegionID,
		RegionName: rc.RegionName,
		DeviceType: rc.DeviceType,
		Shows:      shows,
		Clicks:     clicks,
		CTR:        ctr,
		Position:   optional(acc.Position),
		Demand:     optional(acc.Demand),
		OrderBy:    rc.OrderBy,
		SampleTime: rc.SampleTime,
		RawJSON:    rawJSON(acc.Raw),
	}
}

func optional(f *float64) domain.OptionalFloat {
	if f == nil {
		return domain.OptionalFloat{}
	}
	return domain.Float(*f)
}

// rawJSON сериализует исходную запись без экранирования HTML
func rawJSON(raw map[string]any) string {
	if raw == nil {
		return ""
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(raw); err != nil {
		return ""
	}

	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
