package templates

import "fmt"

const (
	BotName    = "Yandex Webmaster Bot"
	BotVersion = "3.0.0"
)

// Кнопки основного меню
const (
	MenuHosts = "🌐 Мои сайты"
	MenuStats = "📊 Статистика"
	MenuAuth  = "🔐 Авторизация"
	MenuHelp  = "ℹ️ Помощь"
)

// MainMenu раскладка основного меню
var MainMenu = [][]string{
	{MenuHosts, MenuStats},
	{MenuAuth, MenuHelp},
}

// WelcomeText приветствие на /start
func WelcomeText(firstName string) string {
	greeting := "Добро пожаловать"
	if firstName != "" {
		greeting = fmt.Sprintf("%s, добро пожаловать", EscapeHTML(firstName))
	}

	return fmt.Sprintf(`👋 <b>%s в %s v%s!</b>

Я помогу вам работать с Yandex Webmaster API:

📊 <b>Возможности:</b>
• Просмотр списка ваших сайтов
• Экспорт популярных запросов
• История поисковых запросов
• Детальная аналитика
• Экспорт в CSV, Excel, JSON

🚀 <b>Начните работу:</b>
Используйте меню ниже или команду /help для справки

💡 <b>Совет:</b> Начните с команды /token для проверки авторизации`, greeting, BotName, BotVersion)
}

const HelpText = `📚 <b>Справка по командам</b>

<b>Основные команды:</b>
/start - Начало работы
/help - Эта справка
/hosts - Список ваших сайтов
/auth - Информация об авторизации
/token - Проверка OAuth токена
/stats - Статистика использования
/diagnose - Диагностика системы
/cancel - Отменить текущее действие

<b>Как работать с экспортом:</b>
1. Выберите «Мои сайты»
2. Выберите сайт из списка
3. Нажмите «Создать экспорт»
4. Выберите тип данных, устройства и формат
5. Дождитесь завершения и скачайте файл

<b>Типы экспортов:</b>
• Популярные запросы - ТОП запросов
• Расширенная выгрузка - до 1000 запросов
• История запросов - показы и клики по дням
• Полная история - история для 200 запросов
• Аналитика - динамика показов и кликов

<b>Форматы:</b>
📄 CSV · 📊 Excel · 📋 JSON

Данные выгружаются за последние 30 дней.`

const AuthText = `🔐 <b>Авторизация в Yandex Webmaster</b>

Для работы бота необходим OAuth токен от Яндекса.

<b>📝 Как получить токен:</b>
1. Перейдите на https://oauth.yandex.ru/
2. Зарегистрируйте приложение для веб-сервисов
3. В разделе доступов включите <code>webmaster:read</code>
4. Получите OAuth токен
5. Передайте его администратору бота (<code>YANDEX_ACCESS_TOKEN</code>)

<b>⚠️ Важно:</b>
• Токен настраивается администратором
• Все пользователи используют один токен
• Токен дает доступ только к чтению данных

Используйте /token для проверки токена`
