package telegram_webhook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testLogger struct{}

func (testLogger) Info(string, ...interface{})  {}
func (testLogger) Warn(string, ...interface{})  {}
func (testLogger) Error(string, ...interface{}) {}

type fakeUpdates struct {
	got []tgbotapi.Update
	err error
}

func (f *fakeUpdates) HandleUpdate(_ context.Context, update tgbotapi.Update) error {
	f.got = append(f.got, update)
	return f.err
}

func post(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body)))
	return rec
}

func TestHandle_RoutesUpdate(t *testing.T) {
	updates := &fakeUpdates{}

	rec := post(NewHandler(updates, testLogger{}), `{"update_id": 10, "message": {"message_id": 1, "chat": {"id": 5}, "text": "/hosts"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, updates.got, 1)
	assert.Equal(t, 10, updates.got[0].UpdateID)
	assert.Equal(t, "/hosts", updates.got[0].Message.Text)
}

func TestHandle_HandlerErrorStillOK(t *testing.T) {
	rec := post(NewHandler(&fakeUpdates{err: errors.New("send failed")}, testLogger{}), `{"update_id": 11}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandle_InvalidBody(t *testing.T) {
	updates := &fakeUpdates{}

	rec := post(NewHandler(updates, testLogger{}), `not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, updates.got)
}
