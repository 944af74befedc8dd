package bot

import (
	"context"
	"slices"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram/templates"
	"github.com/FrankX3M/wordstat-api/internal/usecase/start_message"
)

// Команды бота
const (
	CmdStart      = "start"
	CmdHelp       = "help"
	CmdHosts      = "hosts"
	CmdStats      = "stats"
	CmdAuth       = "auth"
	CmdToken      = "token"
	CmdDiagnose   = "diagnose"
	CmdCancel     = "cancel"
	CmdAdminStats = "admin_stats"
)

// menuCommands кнопки основного меню
var menuCommands = map[string]string{
	templates.MenuHosts: CmdHosts,
	templates.MenuStats: CmdStats,
	templates.MenuAuth:  CmdAuth,
	templates.MenuHelp:  CmdHelp,
}

const activeUserWindow = 7 * 24 * time.Hour

// Config параметры меню
type Config struct {
	HostsPerPage int
	CacheTTL     time.Duration
	AdminUserIDs []int64
}

// Deps зависимости роутера
type Deps struct {
	Messenger     Messenger
	API           WebmasterAPI
	Account       AccountResolver
	Cache         HostCache
	Users         UserRepository
	Exports       ExportRepository
	StartMessage  StartMessageUseCase
	RequestExport RequestExportUseCase
	Canceller     ExportCanceller
	DB            Pinger
	Sessions      *Sessions
}

// Router разбирает обновления Telegram и вызывает обработчики меню
type Router struct {
	Deps
	cfg    Config
	logger Logger
	now    func() time.Time
}

// NewRouter создаёт роутер; Sessions создаются, если не переданы
func NewRouter(deps Deps, cfg Config, logger Logger) *Router {
	if cfg.HostsPerPage <= 0 {
		cfg.HostsPerPage = 10
	}
	if deps.Sessions == nil {
		deps.Sessions = NewSessions()
	}
	return &Router{
		Deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// HandleUpdate обрабатывает одно обновление: сообщение или нажатие inline-кнопки
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Text != "":
		return r.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	cmd := commandOf(msg)

	if cmd == CmdStart {
		r.logger.Info("Received /start command from chat %d", chatID)
		return r.StartMessage.Execute(ctx, msg.From, chatID)
	}

	var userID int64
	if msg.From != nil {
		userID = msg.From.ID
		r.touchUser(ctx, msg.From)
	}

	r.logger.Debug("Command %q from user %d (chat %d)", cmd, userID, chatID)

	switch cmd {
	case CmdHelp:
		return r.reply(chatID, templates.HelpText)
	case CmdAuth:
		return r.reply(chatID, templates.AuthText)
	case CmdHosts:
		return r.showHosts(ctx, chatID, 0, 0, true)
	case CmdStats:
		return r.userStats(ctx, chatID, userID)
	case CmdToken:
		return r.checkToken(ctx, chatID)
	case CmdDiagnose:
		return r.diagnose(ctx, chatID)
	case CmdCancel:
		if r.Sessions.ResetWizard(chatID) {
			return r.reply(chatID, templates.Cancelled)
		}
		return r.reply(chatID, templates.NothingToCancel)
	case CmdAdminStats:
		if !r.isAdmin(userID) {
			return r.reply(chatID, templates.AccessDenied)
		}
		return r.adminStats(ctx, chatID)
	default:
		return r.reply(chatID, templates.UnknownCommand)
	}
}

// commandOf команда из /command@bot или текста кнопки меню
func commandOf(msg *tgbotapi.Message) string {
	if msg.IsCommand() {
		return strings.ToLower(msg.Command())
	}
	return menuCommands[strings.TrimSpace(msg.Text)]
}

// touchUser регистрирует обращение; ошибка не мешает ответу
func (r *Router) touchUser(ctx context.Context, from *tgbotapi.User) {
	if err := r.Users.Upsert(ctx, start_message.UserFrom(from)); err != nil {
		r.logger.Warn("Failed to update user %d activity: %v", from.ID, err)
	}
}

func (r *Router) isAdmin(userID int64) bool {
	return userID != 0 && slices.Contains(r.cfg.AdminUserIDs, userID)
}

// reply новое HTML-сообщение без клавиатуры
func (r *Router) reply(chatID int64, text string) error {
	_, err := r.Messenger.SendMessage(domain.NewHTMLMessage(chatID, text))
	return err
}

// edit заменяет текст и inline-клавиатуру сообщения
func (r *Router) edit(chatID int64, messageID int, text string, rows ...[]domain.InlineButton) error {
	_, err := r.Messenger.SendMessage(domain.NewHTMLMessage(chatID, text).WithInline(rows...).Edit(messageID))
	return err
}

// placeholder показывает текст загрузки: новым сообщением при messageID == 0 или правкой существующего
func (r *Router) placeholder(chatID int64, messageID int, text string) (int, error) {
	return r.Messenger.SendMessage(domain.NewHTMLMessage(chatID, text).Edit(messageID))
}
