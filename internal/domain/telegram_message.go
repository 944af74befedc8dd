package domain

// ParseMode константы для режимов парсинга текста в Telegram
const (
	ParseModeHTML  = "HTML"
	ParseModePlain = ""
)

// InlineButton кнопка inline-клавиатуры с callback data
type InlineButton struct {
	Text string
	Data string
}

// TelegramMessage сообщение для отправки или редактирования через Telegram Bot API
type TelegramMessage struct {
	ChatID      int64
	MessageID   int // для редактирования существующего сообщения
	MessageText string
	ParseMode   string
	// InlineKeyboard строки inline-кнопок
	InlineKeyboard [][]InlineButton
	// ReplyKeyboard строки кнопок основного меню
	ReplyKeyboard [][]string
}

// NewHTMLMessage создаёт сообщение с HTML-разметкой
func NewHTMLMessage(chatID int64, text string) *TelegramMessage {
	return &TelegramMessage{
		ChatID:      chatID,
		MessageText: text,
		ParseMode:   ParseModeHTML,
	}
}

// WithInline добавляет inline-клавиатуру (builder pattern)
func (m *TelegramMessage) WithInline(rows ...[]InlineButton) *TelegramMessage {
	m.InlineKeyboard = rows
	return m
}

// WithReply добавляет клавиатуру основного меню (builder pattern)
func (m *TelegramMessage) WithReply(rows ...[]string) *TelegramMessage {
	m.ReplyKeyboard = rows
	return m
}

// Edit помечает сообщение как редактирование messageID
func (m *TelegramMessage) Edit(messageID int) *TelegramMessage {
	m.MessageID = messageID
	return m
}

// HasInline проверяет, есть ли inline-кнопки
func (m *TelegramMessage) HasInline() bool {
	return len(m.InlineKeyboard) > 0
}

// HasReply проверяет, есть ли кнопки меню
func (m *TelegramMessage) HasReply() bool {
	return len(m.ReplyKeyboard) > 0
}
