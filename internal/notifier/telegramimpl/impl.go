package telegramimpl

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/crosspost/internal/domain"
	"github.com/orgball2608/crosspost/internal/notifier"
	"github.com/orgball2608/crosspost/pkg/config"
	"github.com/orgball2608/crosspost/pkg/formatter"
	"github.com/orgball2608/crosspost/pkg/logger"
	"go.uber.org/fx"
)

const maxErrorLen = 200

// Sender is the part of *tgbotapi.BotAPI the alerter needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
}

type TelegramImpl struct {
	bot    Sender
	chatID int64
	level  notifier.Level
	logger logger.Logger
}

var _ notifier.Notifier = (*TelegramImpl)(nil)

// New returns a Telegram alerter, or a no-op notifier when no bot token or
// chat is configured.
func New(opts Opts) (notifier.Notifier, error) {
	log := opts.Logger.WithComponent("Notifier")
	level, err := notifier.ParseLevel(opts.Config.Telegram.AlertLevel)
	if err != nil {
		return nil, err
	}
	if opts.Config.Telegram.Token == "" || opts.Config.Telegram.AlertChat == 0 || level == notifier.LevelNone {
		log.Info("Operator alerts disabled")
		return notifier.Nop{}, nil
	}

	bot, err := tgbotapi.NewBotAPI(opts.Config.Telegram.Token)
	if err != nil {
		log.Error("Error creating bot", "error", err)
		return nil, err
	}
	return NewWithSender(bot, opts.Config.Telegram.AlertChat, level, log), nil
}

func NewWithSender(bot Sender, chatID int64, level notifier.Level, log logger.Logger) *TelegramImpl {
	return &TelegramImpl{
		bot:    bot,
		chatID: chatID,
		level:  level,
		logger: log,
	}
}

func (tg *TelegramImpl) PostFinished(ctx context.Context, post domain.Post, status domain.PostStatus, targets []domain.DeliveryTarget) error {
	if !tg.level.Wants(status) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(tg.chatID, FormatAlert(post, status, targets))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	if _, err := tg.bot.Send(msg); err != nil {
		tg.logger.Error("Error sending alert",
			"chatID", tg.chatID,
			"post_id", post.ID,
			"error", err)
		return fmt.Errorf("failed to send alert: %w", err)
	}

	tg.logger.Info("Alert sent", "chatID", tg.chatID, "post_id", post.ID, "status", status)
	return nil
}

// FormatAlert renders the MarkdownV2 alert body for a finished post.
func FormatAlert(post domain.Post, status domain.PostStatus, targets []domain.DeliveryTarget) string {
	var sent, failed int
	for _, t := range targets {
		switch t.Status {
		case domain.TargetStatusSent:
			sent++
		case domain.TargetStatusFailed:
			failed++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*Post %s*\n", formatter.EscapeMarkdownV2(strings.ToUpper(string(status))))
	fmt.Fprintf(&sb, "id: `%s`\nuser: %s\n", formatter.EscapeMarkdownV2(post.ID), formatter.EscapeMarkdownV2(post.UserID))
	fmt.Fprintf(&sb, "%s\n", formatter.EscapeMarkdownV2(fmt.Sprintf("%d sent, %d failed", sent, failed)))

	for _, t := range targets {
		if t.Status != domain.TargetStatusFailed {
			continue
		}
		line := fmt.Sprintf("%s/%s after %d attempt(s): %s",
			t.Platform, t.AccountID, t.Attempts, formatter.Truncate(t.LastError, maxErrorLen))
		fmt.Fprintf(&sb, "• %s\n", formatter.EscapeMarkdownV2(line))
	}
	return sb.String()
}
