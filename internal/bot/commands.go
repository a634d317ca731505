package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const historyLimit = 10

func identityOf(u *tgbotapi.User) domain.TelegramIdentity {
	return domain.TelegramIdentity{
		TgID:      u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// respond builds the reply to a command message.
func (b *Bot) respond(ctx context.Context, msg *tgbotapi.Message) tgbotapi.MessageConfig {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "")
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyToMessageID = msg.MessageID

	if msg.Command() == "start" {
		reply.Text = b.handleStart(ctx, msg.From)
		if b.miniAppURL != "" {
			reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🎮 Play", b.miniAppURL)),
			)
		}
		return reply
	}

	player, err := b.game.Resolve(ctx, identityOf(msg.From))
	if err != nil {
		b.log.Error("resolve player failed", "tg_id", msg.From.ID, "error", err)
		reply.Text = "❌ Something went wrong, try again later."
		return reply
	}

	args := msg.CommandArguments()
	switch msg.Command() {
	case "help":
		reply.Text = helpMessage()
	case "balance":
		reply.Text = b.handleBalance(ctx, player)
	case "upgrades":
		reply.Text = b.handleUpgrades(ctx, player)
	case "buy":
		reply.Text = b.handleBuy(ctx, player, args)
	case "transfer":
		reply.Text = b.handleTransfer(ctx, player, args)
	case "top":
		reply.Text = b.handleTop(ctx, args)
	case "achievements":
		reply.Text = b.handleAchievements(ctx, player)
	case "history":
		reply.Text = b.handleHistory(ctx, player)
	default:
		reply.Text = "❌ Unknown command. Use /help for the list of commands."
	}
	return reply
}

func helpMessage() string {
	return `<b>🪙 Commands</b>

/balance - Coins and income
/upgrades - Available upgrades
/buy &lt;id&gt; - Buy an upgrade
/transfer &lt;@username|tg_id&gt; &lt;amount&gt; - Send coins
/top [limit] - Leaderboard
/achievements - Your achievements
/history - Recent activity`
}

func (b *Bot) handleStart(ctx context.Context, from *tgbotapi.User) string {
	player, err := b.game.Login(ctx, identityOf(from), "", "bot")
	if err != nil {
		b.log.Error("login failed", "tg_id", from.ID, "error", err)
		return "❌ Something went wrong, try again later."
	}
	return fmt.Sprintf("👋 Welcome, <b>%s</b>!\n\nTap to earn coins, buy upgrades for passive income and climb the leaderboard.\n\n%s",
		html.EscapeString(player.DisplayName()), helpMessage())
}

func (b *Bot) handleBalance(ctx context.Context, player *domain.Player) string {
	st, err := b.game.State(ctx, player.ID)
	if err != nil {
		return errorText(err)
	}

	text := fmt.Sprintf(`<b>💰 Balance</b>

• Coins: %d
• Income: %d/h
• Tap power: %d
• Total taps: %d`,
		st.Player.Coins,
		st.Player.IncomePerHour,
		st.Player.TapPower,
		st.Player.TotalTaps,
	)
	if st.Accrued > 0 {
		text += fmt.Sprintf("\n\n⏳ +%d passive income credited", st.Accrued)
	}
	return text + achievementsUnlocked(st.NewAchievements)
}

func (b *Bot) handleUpgrades(ctx context.Context, player *domain.Player) string {
	upgrades, err := b.game.Upgrades(ctx, player.ID)
	if err != nil {
		return errorText(err)
	}
	if len(upgrades) == 0 {
		return "No upgrades available."
	}

	var sb strings.Builder
	sb.WriteString("<b>🛠 Upgrades</b>\n")
	for _, u := range upgrades {
		if u.Maxed() {
			fmt.Fprintf(&sb, "\n%d. %s (lvl %d, max)", u.ID, html.EscapeString(u.Name), u.Level)
			continue
		}
		fmt.Fprintf(&sb, "\n%d. %s (lvl %d) - %d coins, +%d/h",
			u.ID, html.EscapeString(u.Name), u.Level, u.NextCost, u.IncomePerHour)
	}
	sb.WriteString("\n\nBuy with /buy &lt;id&gt;")
	return sb.String()
}

func (b *Bot) handleBuy(ctx context.Context, player *domain.Player, args string) string {
	id, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil || id <= 0 {
		return "❌ Usage: /buy &lt;id&gt;"
	}

	res, err := b.game.BuyUpgrade(ctx, player.ID, id)
	if err != nil {
		return errorText(err)
	}
	return fmt.Sprintf("✅ Upgrade bought: level %d for %d coins.\nBalance: %d, income: %d/h",
		res.NewLevel, res.Cost, res.Coins, res.IncomePerHour) + achievementsUnlocked(res.NewAchievements)
}

// ParseTransferArgs parses "<@username|tg_id> <amount>".
func ParseTransferArgs(args string) (domain.Recipient, int64, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return domain.Recipient{}, 0, errors.New("expected recipient and amount")
	}

	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || amount <= 0 {
		return domain.Recipient{}, 0, domain.ErrInvalidAmount
	}

	to := parts[0]
	if strings.HasPrefix(to, "@") {
		return domain.Recipient{Username: strings.TrimPrefix(to, "@")}, amount, nil
	}
	if tgID, err := strconv.ParseInt(to, 10, 64); err == nil && tgID > 0 {
		return domain.Recipient{TgID: tgID}, amount, nil
	}
	return domain.Recipient{Username: to}, amount, nil
}

func (b *Bot) handleTransfer(ctx context.Context, player *domain.Player, args string) string {
	to, amount, err := ParseTransferArgs(args)
	if err != nil {
		return "❌ Usage: /transfer &lt;@username|tg_id&gt; &lt;amount&gt;"
	}

	res, err := b.game.Transfer(ctx, player.ID, to, amount, uuid.Nil)
	if err != nil {
		return errorText(err)
	}

	if !res.Replayed {
		b.notifyRecipient(player, res)
	}

	return fmt.Sprintf("✅ Sent %d coins to %s.\nBalance: %d",
		res.Amount, html.EscapeString(res.Recipient.DisplayName()), res.FromBalance) + achievementsUnlocked(res.NewAchievements)
}

func (b *Bot) notifyRecipient(sender *domain.Player, res *service.TransferResult) {
	if b.notifier != nil {
		b.notifier.NotifyTransfer(res.FromPlayerID, res.ToPlayerID, res.Amount)
	}
	note := fmt.Sprintf("💸 You received <b>%d</b> coins from %s", res.Amount, html.EscapeString(sender.DisplayName()))
	if err := b.SendNotification(res.Recipient.TgID, note); err != nil {
		// the recipient may never have opened a chat with the bot
		b.log.Debug("transfer notification not delivered", "tg_id", res.Recipient.TgID, "error", err)
	}
}

func (b *Bot) handleTop(ctx context.Context, args string) string {
	limit := 10
	if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
		limit = n
	}

	entries, err := b.game.Leaderboard(ctx, limit)
	if err != nil {
		return errorText(err)
	}
	if len(entries) == 0 {
		return "No players yet."
	}

	var sb strings.Builder
	sb.WriteString("<b>🏆 Leaderboard</b>\n")
	for _, e := range entries {
		name := e.FirstName
		if e.Username != "" {
			name = "@" + e.Username
		}
		fmt.Fprintf(&sb, "\n%d. %s - %d", e.Rank, html.EscapeString(name), e.Coins)
	}
	return sb.String()
}

func (b *Bot) handleAchievements(ctx context.Context, player *domain.Player) string {
	list, err := b.game.Achievements(ctx, player.ID)
	if err != nil {
		return errorText(err)
	}
	if len(list) == 0 {
		return "No achievements yet."
	}

	var sb strings.Builder
	sb.WriteString("<b>🏅 Achievements</b>\n")
	for _, a := range list {
		mark := "▫️"
		if a.Unlocked() {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%s %s - %s (+%d)", mark, html.EscapeString(a.Title), html.EscapeString(a.Description), a.Reward)
	}
	return sb.String()
}

func (b *Bot) handleHistory(ctx context.Context, player *domain.Player) string {
	logs, err := b.game.History(ctx, player.ID, historyLimit)
	if err != nil {
		return errorText(err)
	}
	if len(logs) == 0 {
		return "No activity yet."
	}

	var sb strings.Builder
	sb.WriteString("<b>📜 Recent activity</b>\n")
	for _, l := range logs {
		fmt.Fprintf(&sb, "\n%s %s", l.CreatedAt.Format("02.01 15:04"), strings.ReplaceAll(l.Action, "_", " "))
		if amount, ok := l.Details["amount"]; ok {
			fmt.Fprintf(&sb, " (%v)", amount)
		}
	}
	return sb.String()
}

func achievementsUnlocked(list []domain.Achievement) string {
	if len(list) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n🎉 Unlocked:")
	for _, a := range list {
		fmt.Fprintf(&sb, "\n• %s (+%d)", html.EscapeString(a.Title), a.Reward)
	}
	return sb.String()
}

func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "❌ Not enough coins."
	case errors.Is(err, domain.ErrUpgradeNotFound):
		return "❌ No such upgrade."
	case errors.Is(err, domain.ErrUpgradeMaxed):
		return "❌ Upgrade is already at max level."
	case errors.Is(err, domain.ErrRecipientNotFound):
		return "❌ Recipient not found. They need to open the game first."
	case errors.Is(err, domain.ErrSelfTransfer):
		return "❌ You cannot send coins to yourself."
	case errors.Is(err, domain.ErrInvalidAmount):
		return "❌ Invalid amount."
	default:
		return "❌ Something went wrong, try again later."
	}
}
