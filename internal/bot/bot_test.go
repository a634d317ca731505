package bot

import (
	"context"
	"errors"
	"testing"

	"telegram_clicker/internal/domain"
	"telegram_clicker/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGame struct {
	mock.Mock
}

func (m *mockGame) Login(ctx context.Context, id domain.TelegramIdentity, ip, source string) (*domain.Player, error) {
	args := m.Called(ctx, id, ip, source)
	p, _ := args.Get(0).(*domain.Player)
	return p, args.Error(1)
}

func (m *mockGame) Resolve(ctx context.Context, id domain.TelegramIdentity) (*domain.Player, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*domain.Player)
	return p, args.Error(1)
}

func (m *mockGame) State(ctx context.Context, playerID int64) (*service.State, error) {
	args := m.Called(ctx, playerID)
	s, _ := args.Get(0).(*service.State)
	return s, args.Error(1)
}

func (m *mockGame) Upgrades(ctx context.Context, playerID int64) ([]domain.Upgrade, error) {
	args := m.Called(ctx, playerID)
	u, _ := args.Get(0).([]domain.Upgrade)
	return u, args.Error(1)
}

func (m *mockGame) BuyUpgrade(ctx context.Context, playerID, upgradeID int64) (*service.PurchaseResult, error) {
	args := m.Called(ctx, playerID, upgradeID)
	r, _ := args.Get(0).(*service.PurchaseResult)
	return r, args.Error(1)
}

func (m *mockGame) Transfer(ctx context.Context, fromID int64, to domain.Recipient, amount int64, key uuid.UUID) (*service.TransferResult, error) {
	args := m.Called(ctx, fromID, to, amount, key)
	r, _ := args.Get(0).(*service.TransferResult)
	return r, args.Error(1)
}

func (m *mockGame) Achievements(ctx context.Context, playerID int64) ([]domain.Achievement, error) {
	args := m.Called(ctx, playerID)
	a, _ := args.Get(0).([]domain.Achievement)
	return a, args.Error(1)
}

func (m *mockGame) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	e, _ := args.Get(0).([]domain.LeaderboardEntry)
	return e, args.Error(1)
}

func (m *mockGame) History(ctx context.Context, playerID int64, limit int) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, playerID, limit)
	l, _ := args.Get(0).([]*domain.AuditLog)
	return l, args.Error(1)
}

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		s.sent = append(s.sent, m)
	}
	return tgbotapi.Message{}, s.err
}

type recordingNotifier struct {
	calls [][3]int64
}

func (n *recordingNotifier) NotifyTransfer(fromID, toID, amount int64) {
	n.calls = append(n.calls, [3]int64{fromID, toID, amount})
}

var alice = &tgbotapi.User{ID: 42, UserName: "alice", FirstName: "Alice"}

func command(text string) *tgbotapi.Message {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 1,
		From:      alice,
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}
}

func newTestBot(t *testing.T) (*Bot, *mockGame, *fakeSender, *recordingNotifier) {
	t.Helper()
	game := &mockGame{}
	t.Cleanup(func() { game.AssertExpectations(t) })
	sender := &fakeSender{}
	notifier := &recordingNotifier{}
	return newBot(sender, game, notifier, "https://t.me/clicker_bot/app"), game, sender, notifier
}

func expectResolve(game *mockGame) {
	game.On("Resolve", mock.Anything, domain.TelegramIdentity{TgID: 42, Username: "alice", FirstName: "Alice"}).
		Return(&domain.Player{ID: 1, TgID: 42, Username: "alice"}, nil)
}

func TestStart(t *testing.T) {
	b, game, _, _ := newTestBot(t)
	game.On("Login", mock.Anything, mock.Anything, "", "bot").Return(&domain.Player{ID: 1, Username: "alice"}, nil)

	reply := b.respond(context.Background(), command("/start"))
	assert.Contains(t, reply.Text, "Welcome, <b>@alice</b>")
	assert.Equal(t, tgbotapi.ModeHTML, reply.ParseMode)

	markup, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://t.me/clicker_bot/app", *markup.InlineKeyboard[0][0].URL)
}

func TestBalance(t *testing.T) {
	b, game, _, _ := newTestBot(t)
	expectResolve(game)
	game.On("State", mock.Anything, int64(1)).Return(&service.State{
		Player:          domain.Player{Coins: 1500, IncomePerHour: 60, TapPower: 2},
		Accrued:         30,
		NewAchievements: []domain.Achievement{{Title: "Rich", Reward: 100}},
	}, nil)

	text := b.respond(context.Background(), command("/balance")).Text
	assert.Contains(t, text, "Coins: 1500")
	assert.Contains(t, text, "+30 passive income")
	assert.Contains(t, text, "Rich (+100)")
}

func TestBuy(t *testing.T) {
	b, game, _, _ := newTestBot(t)
	expectResolve(game)
	game.On("BuyUpgrade", mock.Anything, int64(1), int64(3)).Return(nil, domain.ErrInsufficientFunds)

	assert.Contains(t, b.respond(context.Background(), command("/buy x")).Text, "Usage")
	assert.Equal(t, "❌ Not enough coins.", b.respond(context.Background(), command("/buy 3")).Text)
}

func TestTransfer(t *testing.T) {
	b, game, sender, notifier := newTestBot(t)
	expectResolve(game)
	game.On("Transfer", mock.Anything, int64(1), domain.Recipient{Username: "bob"}, int64(50), uuid.Nil).
		Return(&service.TransferResult{
			Transfer:  domain.Transfer{FromPlayerID: 1, ToPlayerID: 2, Amount: 50, FromBalance: 950},
			Recipient: domain.Player{ID: 2, TgID: 77, Username: "bob"},
		}, nil)

	text := b.respond(context.Background(), command("/transfer @bob 50")).Text
	assert.Contains(t, text, "Sent 50 coins to @bob")
	assert.Contains(t, text, "Balance: 950")

	assert.Equal(t, [][3]int64{{1, 2, 50}}, notifier.calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(77), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "50</b> coins from @alice")
}

func TestTransfer_ReplaySkipsNotifications(t *testing.T) {
	b, game, sender, notifier := newTestBot(t)
	expectResolve(game)
	game.On("Transfer", mock.Anything, int64(1), domain.Recipient{Username: "bob"}, int64(50), uuid.Nil).
		Return(&service.TransferResult{
			Transfer:  domain.Transfer{FromPlayerID: 1, ToPlayerID: 2, Amount: 50, FromBalance: 950, Replayed: true},
			Recipient: domain.Player{ID: 2, TgID: 77, Username: "bob"},
		}, nil)

	text := b.respond(context.Background(), command("/transfer @bob 50")).Text
	assert.Contains(t, text, "Sent 50 coins to @bob")
	assert.Empty(t, notifier.calls)
	assert.Empty(t, sender.sent)
}

func TestTransfer_RecipientMissing(t *testing.T) {
	b, game, sender, notifier := newTestBot(t)
	expectResolve(game)
	game.On("Transfer", mock.Anything, int64(1), domain.Recipient{TgID: 9}, int64(5), uuid.Nil).
		Return(nil, domain.ErrRecipientNotFound)

	text := b.respond(context.Background(), command("/transfer 9 5")).Text
	assert.Contains(t, text, "Recipient not found")
	assert.Empty(t, sender.sent)
	assert.Empty(t, notifier.calls)
}

func TestTop(t *testing.T) {
	b, game, _, _ := newTestBot(t)
	expectResolve(game)
	game.On("Leaderboard", mock.Anything, 3).Return([]domain.LeaderboardEntry{
		{Rank: 1, Username: "bob", Coins: 900},
		{Rank: 2, FirstName: "<Eve>", Coins: 800},
	}, nil)

	text := b.respond(context.Background(), command("/top 3")).Text
	assert.Contains(t, text, "1. @bob - 900")
	assert.Contains(t, text, "2. &lt;Eve&gt; - 800")
}

func TestUnknownAndResolveFailure(t *testing.T) {
	b, game, _, _ := newTestBot(t)
	game.On("Resolve", mock.Anything, mock.Anything).Return(&domain.Player{ID: 1}, nil).Once()
	game.On("Resolve", mock.Anything, mock.Anything).Return(nil, errors.New("db down")).Once()

	assert.Contains(t, b.respond(context.Background(), command("/dance")).Text, "Unknown command")
	assert.Contains(t, b.respond(context.Background(), command("/balance")).Text, "Something went wrong")
}

func TestHandleSendsReply(t *testing.T) {
	b, game, sender, _ := newTestBot(t)
	expectResolve(game)

	b.handle(command("/help"))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Equal(t, 1, sender.sent[0].ReplyToMessageID)
	assert.Contains(t, sender.sent[0].Text, "/transfer")
}

func TestParseTransferArgs(t *testing.T) {
	tests := []struct {
		args   string
		to     domain.Recipient
		amount int64
		err    bool
	}{
		{"@bob 10", domain.Recipient{Username: "bob"}, 10, false},
		{"12345 7", domain.Recipient{TgID: 12345}, 7, false},
		{"bob 1", domain.Recipient{Username: "bob"}, 1, false},
		{"@bob", domain.Recipient{}, 0, true},
		{"@bob 0", domain.Recipient{}, 0, true},
		{"@bob -3", domain.Recipient{}, 0, true},
		{"@bob ten", domain.Recipient{}, 0, true},
		{"", domain.Recipient{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			to, amount, err := ParseTransferArgs(tt.args)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, to)
			assert.Equal(t, tt.amount, amount)
		})
	}
}
