package main

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/config"
	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/pkg/logger"
)

var now = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

var hosts = []domain.Host{
	{HostID: "https:a.ru:443", URL: "https://a.ru/", Verified: true},
	{HostID: "https:b.ru:443", URL: "https://b.ru/"},
}

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestPickHost_ByIDAndURL(t *testing.T) {
	h, err := pickHost(hosts, "https:b.ru:443", false, reader(""), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https://b.ru/", h.URL)

	h, err = pickHost(hosts, "https://a.ru/", false, reader(""), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https:a.ru:443", h.HostID)
}

func TestPickHost_NonInteractive(t *testing.T) {
	_, err := pickHost(hosts, "https:c.ru:443", false, reader(""), io.Discard)
	assert.ErrorIs(t, err, ErrHostNotFound)

	_, err = pickHost(hosts, "", false, reader(""), io.Discard)
	assert.ErrorIs(t, err, ErrHostNotFound)

	_, err = pickHost(nil, "", true, reader(""), io.Discard)
	assert.ErrorIs(t, err, ErrNoHosts)
}

func TestPickHost_Interactive(t *testing.T) {
	var out bytes.Buffer

	h, err := pickHost(hosts, "", true, reader("7\nabc\n2\n"), &out)

	require.NoError(t, err)
	assert.Equal(t, "https:b.ru:443", h.HostID)
	assert.Equal(t, 2, strings.Count(out.String(), "Введите число от 1 до 2"))
}

func TestPickHost_EOFCancels(t *testing.T) {
	_, err := pickHost(hosts, "", true, reader(""), io.Discard)
	assert.ErrorIs(t, err, ErrNoSelection)

	h, err := pickHost(hosts, "", true, reader("1"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "https:a.ru:443", h.HostID)
}

func TestPickHost_SingleHost(t *testing.T) {
	h, err := pickHost(hosts[:1], "", true, reader(""), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, hosts[0], h)
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		format string
		file   string
		want   domain.ExportFormat
	}{
		{"", "queries.csv", domain.FormatCSV},
		{"", "out/report.XLSX", domain.FormatXLSX},
		{"", "data.json", domain.FormatJSON},
		{"", "noext", domain.FormatCSV},
		{"json", "queries.csv", domain.FormatJSON},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.format, tt.file)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.file)
	}

	_, err := resolveFormat("pdf", "x.pdf")
	assert.Error(t, err)
}

func TestResolveRange(t *testing.T) {
	r, err := resolveRange("", "", now, 90)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", r.FromString())
	assert.Equal(t, "2024-03-10", r.ToString())

	r, err = resolveRange("", "2024-02-10", now, 90)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-03", r.FromString())

	r, err = resolveRange("2024-03-01", "", now, 90)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", r.ToString())

	_, err = resolveRange("2024-03-05", "2024-03-01", now, 90)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = resolveRange("2024-03-01", "2024-03-20", now, 90)
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = resolveRange("03/01/2024", "", now, 90)
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestBuildRequest(t *testing.T) {
	cfg := &config.Config{Export: config.ExportConfig{DefaultPageSize: 100, RegionID: 225, RegionName: "Россия", MaxRangeDays: 90}}
	log := logger.NewWithWriter(io.Discard, "error")

	opts := options{
		kind:       "popular",
		deviceType: "mobile",
		orderBy:    "total_clicks",
		limit:      900,
		outputFile: "out.xlsx",
		reset:      true,
		maxRows:    -5,
	}

	req, err := buildRequest(opts, cfg, now, log)

	require.NoError(t, err)
	assert.Equal(t, domain.ExportPopular, req.Kind)
	assert.Equal(t, domain.FormatXLSX, req.Format)
	assert.Equal(t, domain.DeviceMobile, req.DeviceType)
	assert.Equal(t, domain.OrderByClicks, req.OrderBy)
	assert.Equal(t, 500, req.Limit)
	assert.Equal(t, 0, req.MaxRows)
	assert.Equal(t, 225, req.RegionID)
	assert.Equal(t, "Россия", req.RegionName)
	assert.True(t, req.Reset)

	opts.kind = "weekly"
	_, err = buildRequest(opts, cfg, now, log)
	assert.Error(t, err)
}
