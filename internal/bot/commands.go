package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/hostcache"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram/templates"
)

// showHosts выводит страницу списка сайтов
// reload загружает список из API, иначе используется список из сессии
func (r *Router) showHosts(ctx context.Context, chatID int64, messageID, page int, reload bool) error {
	hosts := r.Sessions.Get(chatID).Hosts

	if reload || hosts == nil {
		var err error
		messageID, err = r.placeholder(chatID, messageID, templates.LoadingHosts)
		if err != nil {
			return err
		}

		hosts, err = r.loadHosts(ctx)
		if err != nil {
			r.logger.Error("Failed to load hosts for chat %d: %v", chatID, err)
			return r.edit(chatID, messageID, templates.LoadFailed("сайтов", err))
		}
		r.Sessions.Update(chatID, func(sess *Session) { sess.Hosts = hosts })
	}

	if len(hosts) == 0 {
		return r.edit(chatID, messageID, templates.NoHosts, []domain.InlineButton{{Text: "🔄 Обновить список", Data: templates.CbRefreshHosts}})
	}

	lastPage := (len(hosts) - 1) / r.cfg.HostsPerPage
	page = min(max(page, 0), lastPage)
	r.Sessions.Update(chatID, func(sess *Session) { sess.Page = page })

	msg := domain.NewHTMLMessage(chatID, templates.HostsList(len(hosts))).
		WithInline(templates.HostsKeyboard(hosts, page, r.cfg.HostsPerPage)...).
		Edit(messageID)
	_, err := r.Messenger.SendMessage(msg)
	return err
}

func (r *Router) loadHosts(ctx context.Context) ([]domain.Host, error) {
	uid, err := r.Account.UserID(ctx)
	if err != nil {
		return nil, err
	}
	hosts, err := r.API.ListHosts(ctx, uid)
	if err != nil {
		return nil, err
	}
	if hosts == nil {
		hosts = []domain.Host{}
	}
	return hosts, nil
}

// showHost карточка выбранного сайта; refresh игнорирует кэш
func (r *Router) showHost(ctx context.Context, chatID, userID int64, messageID int, refresh bool) error {
	selected := r.Sessions.Get(chatID).Host
	if selected == nil {
		return r.edit(chatID, messageID, templates.HostNotSelected, templates.BackToHostsKeyboard()...)
	}

	if refresh {
		if err := r.Cache.Invalidate(ctx, userID, selected.HostID); err != nil {
			r.logger.Warn("Failed to invalidate host cache for %s: %v", selected.HostID, err)
		}
	} else {
		entry, err := r.Cache.Get(ctx, userID, selected.HostID)
		switch {
		case err == nil:
			return r.edit(chatID, messageID, templates.HostCard(entry.Host, entry.Summary, &entry.UpdatedAt),
				templates.HostActionsKeyboard()...)
		case !errors.Is(err, hostcache.ErrCacheMiss):
			r.logger.Warn("Failed to read host cache for %s: %v", selected.HostID, err)
		}
	}

	if _, err := r.placeholder(chatID, messageID, templates.LoadingHost); err != nil {
		return err
	}

	host, summary, err := r.fetchHost(ctx, selected.HostID)
	if err != nil {
		r.logger.Error("Failed to load host %s: %v", selected.HostID, err)
		return r.edit(chatID, messageID, templates.LoadFailed("информации о сайте", err), templates.BackToHostsKeyboard()...)
	}

	if err := r.Cache.Put(ctx, userID, *host, summary, r.cfg.CacheTTL); err != nil {
		r.logger.Warn("Failed to cache host %s: %v", host.HostID, err)
	}
	r.Sessions.Update(chatID, func(sess *Session) { sess.Host = host })

	return r.edit(chatID, messageID, templates.HostCard(*host, summary, nil), templates.HostActionsKeyboard()...)
}

// fetchHost данные сайта и сводка; без сводки карточка всё равно показывается
func (r *Router) fetchHost(ctx context.Context, hostID string) (*domain.Host, *domain.HostSummary, error) {
	uid, err := r.Account.UserID(ctx)
	if err != nil {
		return nil, nil, err
	}

	host, err := r.API.GetHost(ctx, uid, hostID)
	if err != nil {
		return nil, nil, err
	}

	summary, err := r.API.GetHostSummary(ctx, uid, hostID)
	if err != nil {
		r.logger.Warn("Summary for host %s is unavailable: %v", hostID, err)
		summary = nil
	}

	return host, summary, nil
}

func (r *Router) userStats(ctx context.Context, chatID, userID int64) error {
	messageID, err := r.placeholder(chatID, 0, templates.LoadingStats)
	if err != nil {
		return err
	}

	user, err := r.Users.GetByID(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to load user %d: %v", userID, err)
		return r.edit(chatID, messageID, templates.LoadFailed("статистики", err))
	}

	stats, err := r.Exports.StatsByUser(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to load export stats for user %d: %v", userID, err)
		return r.edit(chatID, messageID, templates.LoadFailed("статистики", err))
	}

	return r.edit(chatID, messageID, templates.UserStats(user, stats))
}

func (r *Router) adminStats(ctx context.Context, chatID int64) error {
	messageID, err := r.placeholder(chatID, 0, templates.LoadingStats)
	if err != nil {
		return err
	}

	now := r.now().UTC()
	users, active, err := r.Users.Counts(ctx, now.Add(-activeUserWindow))
	if err != nil {
		r.logger.Error("Failed to count users: %v", err)
		return r.edit(chatID, messageID, templates.LoadFailed("статистики", err))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	exports, completed, recent, err := r.Exports.Totals(ctx, today)
	if err != nil {
		r.logger.Error("Failed to count exports: %v", err)
		return r.edit(chatID, messageID, templates.LoadFailed("статистики", err))
	}

	return r.edit(chatID, messageID, templates.AdminStats(users, active, exports, completed, recent))
}

// checkToken заново запрашивает владельца токена
func (r *Router) checkToken(ctx context.Context, chatID int64) error {
	messageID, err := r.placeholder(chatID, 0, templates.CheckingToken)
	if err != nil {
		return err
	}

	r.Account.Reset()
	uid, err := r.Account.UserID(ctx)
	switch {
	case err == nil:
		return r.edit(chatID, messageID, templates.TokenValid(uid))
	case errors.Is(err, webmaster.ErrUnauthorized):
		r.logger.Warn("Access token rejected: %v", err)
		return r.edit(chatID, messageID, templates.TokenRejected)
	default:
		r.logger.Error("Token check failed: %v", err)
		return r.edit(chatID, messageID, templates.TokenCheckFailed(err))
	}
}

// diagnose проверяет БД, токен и доступ к списку сайтов
func (r *Router) diagnose(ctx context.Context, chatID int64) error {
	messageID, err := r.placeholder(chatID, 0, templates.RunningDiagnose)
	if err != nil {
		return err
	}

	checks := []templates.DiagnoseCheck{{Name: "Telegram API", OK: true}}

	dbCheck := templates.DiagnoseCheck{Name: "База данных", OK: true}
	if r.DB != nil {
		if err := r.DB.PingContext(ctx); err != nil {
			dbCheck = templates.DiagnoseCheck{Name: "База данных", Detail: err.Error()}
		}
	}
	checks = append(checks, dbCheck)

	uid, err := r.Account.UserID(ctx)
	if err != nil {
		checks = append(checks,
			templates.DiagnoseCheck{Name: "OAuth токен", Detail: templates.Truncate(err.Error(), 100)},
			templates.DiagnoseCheck{Name: "Доступ к сайтам", Detail: "пропущено"})
		return r.edit(chatID, messageID, templates.DiagnoseReport(checks))
	}
	checks = append(checks, templates.DiagnoseCheck{Name: "OAuth токен", OK: true, Detail: "user_id " + uid})

	hosts, err := r.API.ListHosts(ctx, uid)
	if err != nil {
		checks = append(checks, templates.DiagnoseCheck{Name: "Доступ к сайтам", Detail: templates.Truncate(err.Error(), 100)})
	} else {
		checks = append(checks, templates.DiagnoseCheck{Name: "Доступ к сайтам", OK: true, Detail: fmt.Sprintf("сайтов: %d", len(hosts))})
	}

	return r.edit(chatID, messageID, templates.DiagnoseReport(checks))
}
