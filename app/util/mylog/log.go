package mylog

import (
	"context"
	"log/slog"
	"os"

	"quotebot/app/config"

	"github.com/phsym/console-slog"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

// TelegramKey marks a record that should also reach the operator chat.
const TelegramKey = "telegram"

// Alert returns the attribute that forwards a record to the operator chat
// regardless of its level.
func Alert() slog.Attr {
	return slog.Bool(TelegramKey, true)
}

// Preinit logs everything to the console until the config is known.
func Preinit() {
	slog.SetDefault(slog.New(newConsoleHandler(slog.LevelDebug)))
}

// Init routes records to the console at the configured level and, when an
// operator chat is configured, errors and alerts to Telegram.
func Init(cfg *config.Config) error {
	level, err := parseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	router := slogmulti.Router().Add(newConsoleHandler(level))

	if cfg.Log.Telegram.Token != "" {
		router = router.Add(
			slogtelegram.Option{
				Level:     slog.LevelDebug,
				Token:     cfg.Log.Telegram.Token,
				Username:  cfg.Log.Telegram.ChatID,
				AddSource: true,
			}.NewTelegramHandler(),
			forwardToTelegram,
		)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

func parseLevel(value string) (slog.Level, error) {
	if value == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, oops.In("mylog").With("level", value).Wrapf(err, "invalid log level")
	}

	return level, nil
}

func newConsoleHandler(level slog.Level) slog.Handler {
	return console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
}

func forwardToTelegram(_ context.Context, r slog.Record) bool {
	if r.Level >= slog.LevelError {
		return true
	}

	alert := false
	r.Attrs(func(attr slog.Attr) bool {
		alert = attr.Key == TelegramKey && attr.Value.Kind() == slog.KindBool && attr.Value.Bool()
		return !alert
	})

	return alert
}
