package bot

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram/templates"
	"github.com/FrankX3M/wordstat-api/internal/usecase/request_export"
)

// callback нажатие inline-кнопки
type callback struct {
	chatID    int64
	userID    int64
	messageID int
	name      string
	arg       string
}

func parseCallback(q *tgbotapi.CallbackQuery) (callback, bool) {
	if q.Message == nil || q.Message.Chat == nil {
		return callback{}, false
	}

	cb := callback{chatID: q.Message.Chat.ID, messageID: q.Message.MessageID}
	if q.From != nil {
		cb.userID = q.From.ID
	}
	cb.name, cb.arg, _ = strings.Cut(q.Data, ":")
	return cb, true
}

func (r *Router) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if err := r.Messenger.AnswerCallback(q.ID, ""); err != nil {
		r.logger.Warn("Failed to answer callback %s: %v", q.ID, err)
	}

	cb, ok := parseCallback(q)
	if !ok {
		return nil
	}
	if q.From != nil {
		r.touchUser(ctx, q.From)
	}

	r.logger.Debug("Callback %q from user %d (chat %d)", q.Data, cb.userID, cb.chatID)

	switch cb.name {
	case templates.CbHostsPage:
		page, err := strconv.Atoi(cb.arg)
		if err != nil {
			return nil
		}
		return r.showHosts(ctx, cb.chatID, cb.messageID, page, false)
	case templates.CbRefreshHosts:
		return r.showHosts(ctx, cb.chatID, cb.messageID, 0, true)
	case templates.CbBackToHosts:
		return r.showHosts(ctx, cb.chatID, cb.messageID, r.Sessions.Get(cb.chatID).Page, false)
	case templates.CbHostIdx:
		return r.selectHost(ctx, cb)
	case templates.CbRefreshHost:
		return r.showHost(ctx, cb.chatID, cb.userID, cb.messageID, true)
	case templates.CbBackToHostInfo:
		r.Sessions.ResetWizard(cb.chatID)
		return r.showHost(ctx, cb.chatID, cb.userID, cb.messageID, false)
	case templates.CbExportStart, templates.CbBackToType:
		return r.chooseKind(cb)
	case templates.CbExportType:
		return r.selectKind(cb)
	case templates.CbBackToDevice:
		return r.chooseDevice(cb)
	case templates.CbExportDevice:
		return r.selectDevice(cb)
	case templates.CbExportFormat:
		return r.selectFormat(ctx, cb)
	case templates.CbExportCancel:
		return r.cancelExport(cb)
	case templates.CbCancel:
		r.Sessions.ResetWizard(cb.chatID)
		return r.edit(cb.chatID, cb.messageID, templates.Cancelled)
	default:
		r.logger.Warn("Unknown callback data %q", q.Data)
		return nil
	}
}

// selectHost выбор сайта по индексу в списке сессии
func (r *Router) selectHost(ctx context.Context, cb callback) error {
	idx, err := strconv.Atoi(cb.arg)
	hosts := r.Sessions.Get(cb.chatID).Hosts
	if err != nil || idx < 0 || idx >= len(hosts) {
		return r.edit(cb.chatID, cb.messageID, templates.HostsExpired, templates.BackToHostsKeyboard()...)
	}

	host := hosts[idx]
	r.Sessions.Update(cb.chatID, func(sess *Session) {
		sess.Host = &host
		sess.Kind, sess.Device = "", ""
	})

	return r.showHost(ctx, cb.chatID, cb.userID, cb.messageID, false)
}

func (r *Router) chooseKind(cb callback) error {
	if r.Sessions.Get(cb.chatID).Host == nil {
		return r.edit(cb.chatID, cb.messageID, templates.HostNotSelected, templates.BackToHostsKeyboard()...)
	}
	return r.edit(cb.chatID, cb.messageID, templates.ChooseExportKind, templates.ExportKindsKeyboard()...)
}

func (r *Router) selectKind(cb callback) error {
	kind := domain.ExportKind(cb.arg)
	if !slices.Contains(domain.BotExportKinds, kind) {
		return r.chooseKind(cb)
	}
	r.Sessions.Update(cb.chatID, func(sess *Session) { sess.Kind = kind })
	return r.chooseDevice(cb)
}

func (r *Router) chooseDevice(cb callback) error {
	return r.edit(cb.chatID, cb.messageID, templates.ChooseDevice, templates.DevicesKeyboard()...)
}

func (r *Router) selectDevice(cb callback) error {
	device, err := domain.ParseDeviceType(cb.arg)
	if err != nil {
		return r.chooseDevice(cb)
	}
	r.Sessions.Update(cb.chatID, func(sess *Session) { sess.Device = device })
	return r.edit(cb.chatID, cb.messageID, templates.ChooseFormat, templates.FormatsKeyboard()...)
}

// selectFormat последний шаг мастера: задача ставится в очередь, сообщение становится прогрессом
func (r *Router) selectFormat(ctx context.Context, cb callback) error {
	sess := r.Sessions.Get(cb.chatID)
	if sess.Host == nil || sess.Kind == "" || sess.Device == "" {
		return r.edit(cb.chatID, cb.messageID, templates.WizardIncomplete, templates.BackToHostsKeyboard()...)
	}

	job, err := r.RequestExport.Execute(ctx, request_export.Input{
		UserID:    cb.userID,
		ChatID:    cb.chatID,
		MessageID: cb.messageID,
		Host:      *sess.Host,
		Kind:      sess.Kind,
		Device:    sess.Device,
		Format:    domain.ExportFormat(cb.arg),
	})
	if err != nil {
		if errors.Is(err, request_export.ErrInvalidInput) {
			r.logger.Warn("Rejected export request from user %d: %v", cb.userID, err)
			return r.edit(cb.chatID, cb.messageID, templates.WizardIncomplete, templates.BackToHostsKeyboard()...)
		}
		r.logger.Error("Failed to queue export for user %d: %v", cb.userID, err)
		return r.edit(cb.chatID, cb.messageID, templates.ExportFailed(err))
	}

	r.Sessions.ResetWizard(cb.chatID)
	r.logger.Info("Export job %d queued: user=%d host=%s kind=%s format=%s", job.ID, cb.userID, job.HostID, job.Kind, job.Format)

	return r.edit(cb.chatID, cb.messageID, templates.ExportQueued(job), templates.ExportProgressKeyboard(job.ID)...)
}

func (r *Router) cancelExport(cb callback) error {
	jobID, err := strconv.ParseInt(cb.arg, 10, 64)
	if err != nil {
		return nil
	}

	if !r.Canceller.Cancel(jobID) {
		return r.edit(cb.chatID, cb.messageID, templates.ExportNotRunning)
	}

	r.logger.Info("User %d requested cancellation of export job %d", cb.userID, jobID)
	return r.edit(cb.chatID, cb.messageID, templates.ExportStopping)
}
