package telegram

import "errors"

var (
	// ErrSendMessage возвращается при ошибке отправки сообщения
	ErrSendMessage = errors.New("service.telegram: failed to send message")

	// ErrEditMessage возвращается при ошибке редактирования сообщения
	ErrEditMessage = errors.New("service.telegram: failed to edit message")

	// ErrSendDocument возвращается при ошибке отправки файла
	ErrSendDocument = errors.New("service.telegram: failed to send document")

	// ErrFileTooLarge файл больше лимита Bot API на отправку документов
	ErrFileTooLarge = errors.New("service.telegram: file is too large")

	// ErrInvalidChatID возвращается при некорректном chat_id
	ErrInvalidChatID = errors.New("service.telegram: invalid chat_id")

	// ErrEmptyMessage возвращается при пустом тексте сообщения
	ErrEmptyMessage = errors.New("service.telegram: message text is empty")

	ErrAnswerCallback = errors.New("service.telegram: failed to answer callback query")
	ErrDeleteMessage  = errors.New("service.telegram: failed to delete message")

	// ErrSetWebhook возвращается при ошибке установки webhook
	ErrSetWebhook = errors.New("service.telegram: failed to set webhook")

	// ErrDeleteWebhook возвращается при ошибке удаления webhook
	ErrDeleteWebhook = errors.New("service.telegram: failed to delete webhook")
)
