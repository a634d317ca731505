package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/logger"
	"telegram_clicker/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// Game is the part of service.GameService the bot uses.
type Game interface {
	Login(ctx context.Context, id domain.TelegramIdentity, ip, source string) (*domain.Player, error)
	Resolve(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error)
	State(ctx context.Context, playerID int64) (*service.State, error)
	Upgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error)
	BuyUpgrade(ctx context.Context, playerID, upgradeID int64) (*service.PurchaseResult, error)
	Transfer(ctx context.Context, fromID int64, to domain.Recipient, amount int64, key uuid.UUID) (*service.TransferResult, error)
	Achievements(ctx context.Context, playerID int64) ([]domain.Achievement, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	History(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error)
}

// TransferNotifier is told about completed transfers so live Mini App
// sessions can refresh.
type TransferNotifier interface {
	NotifyTransfer(fromID, toID, amount int64)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot serves the game's chat commands. Updates arrive from Telegram over an
// authenticated channel, so the sender's identity is trusted as-is.
type Bot struct {
	api        sender
	stop       func()
	updates    func() tgbotapi.UpdatesChannel
	game       Game
	notifier   TransferNotifier
	miniAppURL string

	stopCh chan struct{}
	wg     sync.WaitGroup
	log    *slog.Logger
}

func New(token string, game Game, notifier TransferNotifier, miniAppURL string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	b := newBot(api, game, notifier, miniAppURL)
	b.stop = api.StopReceivingUpdates
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return api.GetUpdatesChan(u)
	}
	b.log.Info("bot authorized", "username", api.Self.UserName)
	return b, nil
}

func newBot(api sender, game Game, notifier TransferNotifier, miniAppURL string) *Bot {
	return &Bot{
		api:        api,
		game:       game,
		notifier:   notifier,
		miniAppURL: miniAppURL,
		stopCh:     make(chan struct{}),
		log:        logger.With("component", "bot"),
	}
}

// Start blocks, dispatching commands until Stop is called.
func (b *Bot) Start() {
	updates := b.updates()
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.From == nil || !msg.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handle(msg)
			}(msg)
		}
	}
}

// Stop waits up to 10s for in-flight commands.
func (b *Bot) Stop() {
	close(b.stopCh)
	if b.stop != nil {
		b.stop()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handle(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply := b.respond(ctx, msg)
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("error sending message", "chat_id", msg.Chat.ID, "error", err)
	}
}

// SendNotification sends a plain HTML message to a player's private chat.
func (b *Bot) SendNotification(tgID int64, text string) error {
	m := tgbotapi.NewMessage(tgID, text)
	m.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(m)
	return err
}
