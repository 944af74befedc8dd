package templates

import (
	"fmt"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// Callback data inline-кнопок
const (
	CbHostsPage       = "hosts_page"
	CbHostIdx         = "host_idx"
	CbRefreshHosts    = "refresh_hosts"
	CbRefreshHost     = "refresh_host"
	CbBackToHosts     = "back_to_hosts"
	CbBackToHostInfo  = "back_to_host_info"
	CbExportStart     = "export_start"
	CbExportType      = "export_type"
	CbExportDevice    = "export_device"
	CbExportFormat    = "export_format"
	CbBackToType      = "back_to_export_type"
	CbBackToDevice    = "back_to_device_select"
	CbExportCancel    = "export_cancel"
	CbCancel          = "cancel"
	hostButtonMaxText = 40
)

var deviceButtons = map[domain.DeviceType]string{
	domain.DeviceAll:             "📱 Все устройства",
	domain.DeviceDesktop:         "💻 Десктоп",
	domain.DeviceMobileAndTablet: "📱 Телефоны и планшеты",
	domain.DeviceMobile:          "📱 Мобильные",
	domain.DeviceTablet:          "📲 Планшеты",
}

var formatButtons = map[domain.ExportFormat]string{
	domain.FormatCSV:  "📄 CSV",
	domain.FormatXLSX: "📊 Excel (XLSX)",
	domain.FormatJSON: "📋 JSON",
}

func data(name string, arg any) string {
	return fmt.Sprintf("%s:%v", name, arg)
}

// HostsKeyboard страница списка сайтов; в callback передаётся индекс в списке
func HostsKeyboard(hosts []domain.Host, page, perPage int) [][]domain.InlineButton {
	start := min(max(page, 0)*perPage, len(hosts))
	end := min(start+perPage, len(hosts))

	rows := make([][]domain.InlineButton, 0, end-start+2)
	for idx := start; idx < end; idx++ {
		rows = append(rows, []domain.InlineButton{{
			Text: "🌐 " + Truncate(hosts[idx].DisplayName(), hostButtonMaxText),
			Data: data(CbHostIdx, idx),
		}})
	}

	var nav []domain.InlineButton
	if page > 0 {
		nav = append(nav, domain.InlineButton{Text: "◀️ Назад", Data: data(CbHostsPage, page-1)})
	}
	if end < len(hosts) {
		nav = append(nav, domain.InlineButton{Text: "Вперед ▶️", Data: data(CbHostsPage, page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return append(rows, []domain.InlineButton{{Text: "🔄 Обновить список", Data: CbRefreshHosts}})
}

func HostActionsKeyboard() [][]domain.InlineButton {
	return [][]domain.InlineButton{
		{{Text: "📊 Создать экспорт", Data: CbExportStart}},
		{{Text: "🔄 Обновить информацию", Data: CbRefreshHost}},
		{{Text: "🔙 К списку сайтов", Data: CbBackToHosts}},
	}
}

func ExportKindsKeyboard() [][]domain.InlineButton {
	rows := make([][]domain.InlineButton, 0, len(domain.BotExportKinds)+1)
	for _, k := range domain.BotExportKinds {
		rows = append(rows, []domain.InlineButton{{Text: k.Title(), Data: data(CbExportType, k)}})
	}
	return append(rows, []domain.InlineButton{{Text: "🔙 Назад", Data: CbBackToHostInfo}})
}

// DevicesKeyboard по две кнопки в строке
func DevicesKeyboard() [][]domain.InlineButton {
	var rows [][]domain.InlineButton
	var row []domain.InlineButton
	for _, d := range domain.DeviceTypes {
		row = append(row, domain.InlineButton{Text: deviceButtons[d], Data: data(CbExportDevice, d)})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return append(rows, []domain.InlineButton{{Text: "🔙 Назад", Data: CbBackToType}})
}

func FormatsKeyboard() [][]domain.InlineButton {
	row := make([]domain.InlineButton, 0, len(domain.ExportFormats))
	for _, f := range domain.ExportFormats {
		row = append(row, domain.InlineButton{Text: formatButtons[f], Data: data(CbExportFormat, f)})
	}
	return [][]domain.InlineButton{row, {{Text: "🔙 Назад", Data: CbBackToDevice}}}
}

// ExportProgressKeyboard кнопка отмены выполняющейся выгрузки
func ExportProgressKeyboard(jobID int64) [][]domain.InlineButton {
	return [][]domain.InlineButton{{{Text: "❌ Отменить", Data: data(CbExportCancel, jobID)}}}
}

// BackToHostsKeyboard единственная кнопка возврата к списку
func BackToHostsKeyboard() [][]domain.InlineButton {
	return [][]domain.InlineButton{{{Text: "🔙 К списку сайтов", Data: CbBackToHosts}}}
}
