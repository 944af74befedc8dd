package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
)

type recordingHandler struct {
	ids chan int
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update tgbotapi.Update) error {
	h.ids <- update.UpdateID
	if update.UpdateID == 1 {
		return errors.New("boom")
	}
	return nil
}

func TestPollingHandler_RoutesUntilChannelClosed(t *testing.T) {
	handler := &recordingHandler{ids: make(chan int, 3)}
	updates := make(chan tgbotapi.Update, 3)
	updates <- tgbotapi.Update{UpdateID: 1}
	updates <- tgbotapi.Update{UpdateID: 2}
	close(updates)

	done := make(chan struct{})
	go func() {
		NewPollingHandler(handler, testLogger{}).Start(context.Background(), updates)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("polling handler did not stop")
	}

	assert.Equal(t, 1, <-handler.ids)
	assert.Equal(t, 2, <-handler.ids)
}

func TestPollingHandler_StopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		NewPollingHandler(&recordingHandler{ids: make(chan int, 1)}, testLogger{}).Start(ctx, make(chan tgbotapi.Update))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("polling handler did not stop")
	}
}
