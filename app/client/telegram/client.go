package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"quotebot/app/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/do"
)

// MessageHandler receives inbound text messages. command is empty for plain
// text and has no leading slash or @botname suffix otherwise.
type MessageHandler func(chatID int64, username, command, text string)

var _ do.Shutdownable = (*Client)(nil)

type Client struct {
	cfg *config.Config
	bot *tgbotapi.BotAPI
	// botName is the bot's own username, used to match /command@botname.
	botName string

	mutex          sync.RWMutex
	messageHandler MessageHandler
	stopOnce       sync.Once
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	bot.Debug = cfg.Telegram.Debug

	slog.Info("Authorized on Telegram", "username", bot.Self.UserName)

	return &Client{
		cfg:     cfg,
		bot:     bot,
		botName: bot.Self.UserName,
	}, nil
}

func (c *Client) SetListener(listener MessageHandler) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.messageHandler = listener
}

// Run long-polls for updates until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(c.cfg.Telegram.PollTimeout.Seconds())

	updates := c.bot.GetUpdatesChan(u)
	defer c.stop()

	slog.Info("Polling Telegram for updates")

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			c.handleUpdate(update)
		}
	}
}

func (c *Client) handleUpdate(update tgbotapi.Update) {
	message := update.Message
	if message == nil || message.Chat == nil {
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}

	command, ok := c.command(message)
	if !ok {
		slog.Debug("Ignoring command for another bot", "chat_id", message.Chat.ID, "command", message.CommandWithAt())
		return
	}

	var username string
	if message.From != nil {
		username = message.From.UserName
	}

	c.mutex.RLock()
	handler := c.messageHandler
	c.mutex.RUnlock()

	if handler == nil {
		return
	}

	handler(message.Chat.ID, username, command, text)
}

// command strips a trailing @botname from the message command. It reports
// false when the command is addressed to a different bot.
func (c *Client) command(message *tgbotapi.Message) (string, bool) {
	command, target, found := strings.Cut(message.CommandWithAt(), "@")
	if found && !strings.EqualFold(target, c.botName) {
		return "", false
	}

	return command, true
}

func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	return nil
}

func (c *Client) Shutdown() error {
	c.stop()

	return nil
}

// stop closes the update channel; the Bot API client panics if that happens twice.
func (c *Client) stop() {
	c.stopOnce.Do(c.bot.StopReceivingUpdates)
}
