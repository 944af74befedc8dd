package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// OptionalFloat необязательное числовое значение
// Отсутствующее значение сериализуется как пустая строка, чтобы набор колонок был стабильным
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Float создаёт заполненное OptionalFloat
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

func (o OptionalFloat) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

// Cell значение для табличных форматов: float64 или пустая строка
func (o OptionalFloat) Cell() any {
	if !o.Valid {
		return ""
	}
	return o.Value
}

func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte(`""`), nil
	}
	return json.Marshal(o.Value)
}

// QueryRecord плоская строка выгрузки поисковых запросов
type QueryRecord struct {
	HostID     string
	HostURL    string
	QueryID    string
	Query      string
	PageURL    string
	DateFrom   string
	DateTo     string
	RegionID   int
	RegionName string
	DeviceType DeviceType
	Shows      int64
	Clicks     int64
	CTR        float64
	Position   OptionalFloat
	Demand     OptionalFloat
	OrderBy    string
	SampleTime time.Time
	RawJSON    string
}

// QueryRecordColumns порядок колонок выгрузки
var QueryRecordColumns = []string{
	"host_id",
	"host_url",
	"query",
	"page_url",
	"date_from",
	"date_to",
	"region_id",
	"region_name",
	"device_type",
	"total_shows",
	"total_clicks",
	"ctr",
	"position",
	"demand",
	"order_by",
	"sample_time",
	"raw_json",
}

func (r QueryRecord) Columns() []string {
	return QueryRecordColumns
}

func (r QueryRecord) Values() []any {
	return []any{
		r.HostID,
		r.HostURL,
		r.Query,
		r.PageURL,
		r.DateFrom,
		r.DateTo,
		int64(r.RegionID),
		r.RegionName,
		string(r.DeviceType),
		r.Shows,
		r.Clicks,
		r.CTR,
		r.Position.Cell(),
		r.Demand.Cell(),
		r.OrderBy,
		r.SampleTime.UTC().Format(time.RFC3339),
		r.RawJSON,
	}
}
