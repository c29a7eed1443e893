package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tguilloux/surebet/internal/pkg/config"
	"github.com/tguilloux/surebet/internal/pkg/models"
)

// Notifier pushes a found opportunity to a human. The pipeline treats
// notification failures as non-fatal: the opportunity is already stored.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) error
}

// minSendInterval spaces Telegram messages out so a burst of opportunities
// does not trip the bot API rate limit.
const minSendInterval = 2 * time.Second

type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger

	mu       sync.Mutex
	lastSend time.Time
}

func NewTelegramNotifier(cfg *config.TelegramConfig, logger *slog.Logger) (*TelegramNotifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is not set")
	}
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat id is not set")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	logger.Info("telegram notifier ready", "bot", bot.Self.UserName)

	return &TelegramNotifier{
		bot:    bot,
		chatID: cfg.ChatID,
		logger: logger,
	}, nil
}

func (n *TelegramNotifier) NotifyOpportunity(ctx context.Context, opp *models.ArbitrageOpportunity) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := minSendInterval - time.Since(n.lastSend); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	msg := tgbotapi.NewMessage(n.chatID, formatOpportunity(opp))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	n.lastSend = time.Now()
	return nil
}

func formatOpportunity(opp *models.ArbitrageOpportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 <b>Arbitrage: %s</b>\n", opp.MatchName)
	fmt.Fprintf(&b, "%s / %s — %s\n", opp.Sport, opp.Category, opp.MatchDate.Format("Mon 02 Jan 15:04"))
	fmt.Fprintf(&b, "Margin: <b>%.2f%%</b>\n\n", opp.Margin*100)
	for _, leg := range opp.Legs {
		fmt.Fprintf(&b, "• %s %s @ %.2f (stake %.1f%%)\n",
			leg.Bookmaker, leg.Outcome, leg.Odd, leg.StakeShare*100)
	}
	return b.String()
}
