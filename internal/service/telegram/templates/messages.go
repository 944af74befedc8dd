package templates

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// MaxUserErrorLen сколько символов ошибки показывается пользователю
const MaxUserErrorLen = 300

const (
	LoadingHosts     = "🔍 Загружаю список ваших сайтов..."
	LoadingHost      = "🔍 Загружаю информацию о сайте..."
	LoadingStats     = "📊 Загружаю статистику..."
	CheckingToken    = "🔍 Проверка OAuth токена..."
	RunningDiagnose  = "🔍 Запуск диагностики системы..."
	NoHosts          = "📭 <b>У вас пока нет сайтов в Yandex Webmaster</b>\n\nДобавьте сайт на https://webmaster.yandex.ru/"
	HostNotSelected  = "Сайт не выбран"
	HostNotFound     = "Сайт не найден"
	HostsExpired     = "Список сайтов устарел, обновите его"
	WizardIncomplete = "Недостаточно данных для экспорта, начните заново"
	Cancelled        = "✖️ Действие отменено"
	NothingToCancel  = "Нет активных действий"
	AccessDenied     = "⛔ У вас нет доступа к этой команде"
	UnknownCommand   = "Не понимаю команду. Используйте меню или /help"
	ExportStopping   = "⏹ Останавливаю экспорт..."
	ExportNotRunning = "Экспорт уже завершён или ещё не начат"

	ChooseExportKind = `📊 <b>Выберите тип экспорта:</b>

• Популярные запросы - ТОП поисковых запросов
• Расширенная выгрузка - до 1000 запросов
• История запросов - показы и клики по дням
• Полная история - история для 200 запросов
• Аналитика - динамика показов и кликов`

	ChooseDevice = "📱 <b>Выберите тип устройства:</b>\n\nДля каких устройств выгрузить данные?"

	ChooseFormat = `📄 <b>Выберите формат экспорта:</b>

• CSV - для таблиц и анализа
• Excel - с форматированием
• JSON - для программной обработки`
)

// HostsList заголовок списка сайтов
func HostsList(total int) string {
	return fmt.Sprintf("🌐 <b>Ваши сайты (%d):</b>\n\nВыберите сайт для просмотра информации:", total)
}

// HostCard карточка сайта; summary может отсутствовать
func HostCard(host domain.Host, summary *domain.HostSummary, cachedAt *time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🌐 <b>%s</b>\n\n", EscapeHTML(host.DisplayName()))
	fmt.Fprintf(&b, "🆔 Host ID: <code>%s</code>\n", EscapeHTML(Truncate(host.HostID, 50)))

	state := host.VerificationState
	if state == "" {
		state = "N/A"
	}
	fmt.Fprintf(&b, "✅ Верификация: %s\n", EscapeHTML(state))
	if host.MainMirror != "" {
		fmt.Fprintf(&b, "🪞 Главное зеркало: %s\n", EscapeHTML(host.MainMirror))
	}

	if summary != nil {
		b.WriteString("\n📊 <b>Индексация:</b>\n")
		fmt.Fprintf(&b, "   ИКС: %s\n", FormatNumber(summary.SQI))
		fmt.Fprintf(&b, "   В поиске: %s\n", FormatNumber(summary.SearchablePagesCount))
		fmt.Fprintf(&b, "   Исключено: %s\n", FormatNumber(summary.ExcludedPagesCount))

		if len(summary.SiteProblems) > 0 {
			b.WriteString("\n⚠️ <b>Проблемы сайта:</b>\n")
			for _, name := range sortedKeys(summary.SiteProblems) {
				fmt.Fprintf(&b, "   %s: %d\n", EscapeHTML(name), summary.SiteProblems[name])
			}
		}
	}

	if cachedAt != nil {
		fmt.Fprintf(&b, "\n<i>Данные на %s</i>", cachedAt.Format("02.01.2006 15:04"))
	}

	return b.String()
}

// ExportQueued сообщение, которое затем превращается в прогресс
func ExportQueued(job *domain.ExportJob) string {
	return fmt.Sprintf(`⏳ <b>Экспорт поставлен в очередь</b>

📊 Тип: %s
📱 Устройства: %s
📄 Формат: %s
⏱ Период: %s - %s`,
		job.Kind.Title(), job.DeviceType.Title(), strings.ToUpper(string(job.Format)),
		displayDate(job.DateFrom), displayDate(job.DateTo))
}

// ExportProgress текст прогресса выгрузки
func ExportProgress(current, total int, note string) string {
	text := fmt.Sprintf("⏳ <b>Экспорт данных...</b>\n\n%s\n\nОбработано: %s / %s",
		ProgressBar(current, total), FormatNumber(int64(current)), FormatNumber(int64(total)))
	if note != "" {
		text += "\n" + EscapeHTML(note)
	}
	return text
}

// ExportCompleted итог успешной выгрузки
func ExportCompleted(job *domain.ExportJob, rows, size int64) string {
	var b strings.Builder

	b.WriteString("✅ <b>Экспорт завершен!</b>\n\n")
	fmt.Fprintf(&b, "📊 Тип: %s\n", job.Kind.Title())
	fmt.Fprintf(&b, "📱 Устройства: %s\n", job.DeviceType.Title())
	fmt.Fprintf(&b, "📄 Формат: %s\n", strings.ToUpper(string(job.Format)))
	fmt.Fprintf(&b, "📁 Размер: %s\n", FileSize(size))
	if rows > 0 {
		fmt.Fprintf(&b, "📈 Строк: %s\n", FormatNumber(rows))
	}
	fmt.Fprintf(&b, "\n⏱ Период: %s - %s", displayDate(job.DateFrom), displayDate(job.DateTo))

	return b.String()
}

// ExportCaption подпись к файлу
func ExportCaption(job *domain.ExportJob) string {
	host := job.HostURL
	if host == "" {
		host = job.HostID
	}
	return "📊 Экспорт для " + EscapeHTML(host)
}

// ExportFailed ошибка выгрузки; текст ошибки обрезается до MaxUserErrorLen
func ExportFailed(err error) string {
	return fmt.Sprintf("❌ <b>Ошибка при экспорте данных</b>\n\n<code>%s</code>\n\nПопробуйте позже или используйте /diagnose",
		EscapeHTML(Truncate(err.Error(), MaxUserErrorLen)))
}

func ExportCancelled(rows int64) string {
	return fmt.Sprintf("✖️ <b>Экспорт отменён</b>\n\nВыгружено строк до отмены: %s", FormatNumber(rows))
}

// LoadFailed общая ошибка загрузки данных
func LoadFailed(what string, err error) string {
	return fmt.Sprintf("❌ <b>Ошибка при загрузке %s</b>\n\n<code>%s</code>\n\nПопробуйте позже или используйте /diagnose",
		what, EscapeHTML(Truncate(err.Error(), MaxUserErrorLen)))
}

// UserStats статистика пользователя
func UserStats(user *domain.User, stats *domain.ExportStats) string {
	var b strings.Builder

	b.WriteString("📊 <b>Ваша статистика</b>\n\n👤 <b>Пользователь:</b>\n")
	fmt.Fprintf(&b, "   ID: <code>%d</code>\n", user.ID)
	if user.Username != "" {
		fmt.Fprintf(&b, "   Username: @%s\n", EscapeHTML(user.Username))
	}
	fmt.Fprintf(&b, "   Активен с: %s\n", user.CreatedAt.Format("02.01.2006"))
	fmt.Fprintf(&b, "   Последняя активность: %s\n", user.LastActivity.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "   Обращений: %s\n\n", FormatNumber(user.TotalRequests))

	b.WriteString("📈 <b>Экспорты:</b>\n")
	fmt.Fprintf(&b, "   Всего: %s\n", FormatNumber(stats.Total))
	fmt.Fprintf(&b, "   Успешных: %s\n", FormatNumber(stats.Completed))
	fmt.Fprintf(&b, "   Ошибок: %s\n", FormatNumber(stats.Failed))
	if stats.Rows > 0 {
		fmt.Fprintf(&b, "   Строк выгружено: %s\n", FormatNumber(stats.Rows))
	}
	if stats.Bytes > 0 {
		fmt.Fprintf(&b, "   Общий размер: %s\n", FileSize(stats.Bytes))
	}

	if len(stats.ByKind) > 0 {
		b.WriteString("\n📊 <b>По типам:</b>\n")
		kinds := make([]domain.ExportKind, 0, len(stats.ByKind))
		for k := range stats.ByKind {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool {
			if stats.ByKind[kinds[i]] != stats.ByKind[kinds[j]] {
				return stats.ByKind[kinds[i]] > stats.ByKind[kinds[j]]
			}
			return kinds[i] < kinds[j]
		})
		for _, k := range kinds {
			fmt.Fprintf(&b, "   %s: %d\n", k.Title(), stats.ByKind[k])
		}
	}

	if stats.LastAt != nil {
		fmt.Fprintf(&b, "\n🕐 <b>Последний экспорт:</b> %s\n", stats.LastAt.Format("02.01.2006 15:04"))
	}

	return b.String()
}

// AdminStats общая статистика бота
func AdminStats(users, activeUsers, exports, completed, today int64) string {
	return fmt.Sprintf(`📊 <b>Общая статистика бота</b>

👥 <b>Пользователи:</b>
   Всего: %s
   Активных (7 дней): %s

📈 <b>Экспорты:</b>
   Всего: %s
   Успешных: %s
   Сегодня: %s`,
		FormatNumber(users), FormatNumber(activeUsers),
		FormatNumber(exports), FormatNumber(completed), FormatNumber(today))
}

// TokenValid результат /token
func TokenValid(userID string) string {
	return fmt.Sprintf("✅ <b>Токен действителен!</b>\n\n<b>User ID:</b> <code>%s</code>\n\n✅ Вы можете использовать все функции бота",
		EscapeHTML(userID))
}

const TokenRejected = `❌ <b>Токен недействителен!</b>

<b>Что делать:</b>
1. Проверьте YANDEX_ACCESS_TOKEN
2. Убедитесь, что токен не истек
3. Проверьте права токена (webmaster:read)
4. Получите новый токен: /auth

💡 Свяжитесь с администратором бота`

func TokenCheckFailed(err error) string {
	return fmt.Sprintf(`❌ <b>Ошибка проверки токена!</b>

<code>%s</code>

<b>Возможные причины:</b>
• Проблемы с сетью
• API Яндекса недоступен

Попробуйте позже или используйте /diagnose`, EscapeHTML(Truncate(err.Error(), 200)))
}

// DiagnoseCheck строка отчёта диагностики
type DiagnoseCheck struct {
	Name   string
	OK     bool
	Detail string
}

func DiagnoseReport(checks []DiagnoseCheck) string {
	var b strings.Builder
	b.WriteString("<b>🔍 Результаты диагностики:</b>\n\n")
	for _, c := range checks {
		mark := "✅"
		if !c.OK {
			mark = "❌"
		}
		fmt.Fprintf(&b, "%s %s", mark, EscapeHTML(c.Name))
		if c.Detail != "" {
			fmt.Fprintf(&b, ": %s", EscapeHTML(c.Detail))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func displayDate(s string) string {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("02.01.2006")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
