package telegram

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

type fakeBot struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	return tgbotapi.Message{MessageID: len(f.sent) + 100}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func TestSendMessage_New(t *testing.T) {
	bot := &fakeBot{}
	svc := NewService(bot)

	msg := domain.NewHTMLMessage(42, "<b>hi</b>").WithInline(
		[]domain.InlineButton{{Text: "A", Data: "a"}, {Text: "B", Data: "b"}},
		[]domain.InlineButton{{Text: "C", Data: "c"}},
	)

	id, err := svc.SendMessage(msg)
	require.NoError(t, err)
	assert.Equal(t, 101, id)

	require.Len(t, bot.sent, 1)
	sent, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, domain.ParseModeHTML, sent.ParseMode)

	markup, ok := sent.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Equal(t, "c", *markup.InlineKeyboard[1][0].CallbackData)
}

func TestSendMessage_ReplyKeyboard(t *testing.T) {
	bot := &fakeBot{}
	svc := NewService(bot)

	_, err := svc.SendMessage(domain.NewHTMLMessage(1, "menu").WithReply([]string{"x", "y"}))
	require.NoError(t, err)

	markup, ok := bot.sent[0].(tgbotapi.MessageConfig).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, markup.ResizeKeyboard)
	assert.Equal(t, "y", markup.Keyboard[0][1].Text)
}

func TestSendMessage_Edit(t *testing.T) {
	bot := &fakeBot{}
	svc := NewService(bot)

	id, err := svc.SendMessage(domain.NewHTMLMessage(1, "progress").Edit(77))
	require.NoError(t, err)
	assert.Equal(t, 77, id)

	edit, ok := bot.sent[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 77, edit.MessageID)
	assert.Nil(t, edit.ReplyMarkup)
}

func TestSendMessage_EditNotModified(t *testing.T) {
	bot := &fakeBot{sendErr: errors.New("Bad Request: message is not modified: specified new message content")}
	svc := NewService(bot)

	_, err := svc.SendMessage(domain.NewHTMLMessage(1, "same").Edit(5))
	assert.NoError(t, err)

	bot.sendErr = errors.New("Bad Request: message to edit not found")
	_, err = svc.SendMessage(domain.NewHTMLMessage(1, "same").Edit(5))
	assert.ErrorIs(t, err, ErrEditMessage)
}

func TestSendMessage_Validation(t *testing.T) {
	svc := NewService(&fakeBot{})

	_, err := svc.SendMessage(domain.NewHTMLMessage(0, "x"))
	assert.ErrorIs(t, err, ErrInvalidChatID)

	_, err = svc.SendMessage(domain.NewHTMLMessage(1, ""))
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendDocument(t *testing.T) {
	bot := &fakeBot{}
	svc := NewService(bot)

	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	require.NoError(t, svc.SendDocument(9, path, "caption"))
	doc, ok := bot.sent[0].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.Equal(t, "caption", doc.Caption)

	assert.ErrorIs(t, svc.SendDocument(9, filepath.Join(t.TempDir(), "missing.csv"), ""), ErrSendDocument)
}

func TestRequests(t *testing.T) {
	bot := &fakeBot{}
	svc := NewService(bot)

	require.NoError(t, svc.AnswerCallback("cb1", "ok"))
	require.NoError(t, svc.DeleteMessage(1, 2))
	require.NoError(t, svc.DeleteWebhook())

	require.Len(t, bot.requests, 3)
	assert.Equal(t, "cb1", bot.requests[0].(tgbotapi.CallbackConfig).CallbackQueryID)
	assert.Equal(t, 2, bot.requests[1].(tgbotapi.DeleteMessageConfig).MessageID)
}
