package config

import (
	"errors"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

const DefaultPath = "config.yaml"

type Config struct {
	Log      Log      `koanf:"log"`
	Telegram Telegram `koanf:"telegram"`
	Quote    Quote    `koanf:"quote"`
	Messages Messages `koanf:"messages"`
	Delivery Delivery `koanf:"delivery"`
}

type Telegram struct {
	// Bot token, obtain it via BotFather
	Token string `koanf:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789" validate:"required"`
	// Long polling timeout
	PollTimeout time.Duration `koanf:"poll_timeout" example:"60s" validate:"min=1s"`
	// Inbound message buffer size
	QueueSize int `koanf:"queue_size" example:"64" validate:"min=1"`
	// Log raw Bot API traffic
	Debug bool `koanf:"debug" example:"false"`
}

type Quote struct {
	// CSV file with id,quote_text columns
	QuotesFile string `koanf:"quotes_file" example:"./quotes.csv" validate:"required"`
	// CSV file with user_id,quote_id,viewed_at columns
	DBFile string `koanf:"db_file" example:"./database.csv" validate:"required"`
	// Serve more than one quote per day
	DisableThrottling bool `koanf:"disable_throttling" example:"false"`
}

type Messages struct {
	// Optional YAML file overriding the built-in reply pools
	File string `koanf:"file" example:"./messages.yaml"`
}

type Delivery struct {
	// Send attempts before a reply is dropped
	Attempts int `koanf:"attempts" example:"3" validate:"min=1,max=10"`
}

type Log struct {
	// Minimum level written to the console
	Level string `koanf:"level" example:"info" validate:"oneof=debug info warn error"`
	// Telegram logging config
	Telegram TelegramLog `koanf:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `koanf:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `koanf:"chat_id" example:"1001234567890" validate:"required_with=Token"`
}

// envKeys maps the environment variables the bot understands onto config keys.
var envKeys = map[string]string{
	"TELEGRAM_API_KEY":     "telegram.token",
	"DISABLE_THROTTLING":   "quote.disable_throttling",
	"QUOTES_FILE":          "quote.quotes_file",
	"DB_FILE":              "quote.db_file",
	"MESSAGES_FILE":        "messages.file",
	"LOG_LEVEL":            "log.level",
	"LOG_TELEGRAM_TOKEN":   "log.telegram.token",
	"LOG_TELEGRAM_CHAT_ID": "log.telegram.chat_id",
}

func defaults() map[string]any {
	return map[string]any{
		"log.level":                "info",
		"telegram.poll_timeout":    "60s",
		"telegram.queue_size":      64,
		"telegram.debug":           false,
		"quote.quotes_file":        "./quotes.csv",
		"quote.db_file":            "./database.csv",
		"quote.disable_throttling": false,
		"delivery.attempts":        3,
	}
}

// Load reads defaults, then the YAML file at path if it exists, then the environment.
func Load(path string) (*Config, error) {
	errb := oops.In("config").With("path", path)

	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errb.Wrapf(err, "failed to load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err = k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errb.Wrapf(err, "failed to parse YAML config")
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, errb.Wrapf(err, "failed to read config file")
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return envKeys[s]
	}), nil)
	if err != nil {
		return nil, errb.Wrapf(err, "failed to load environment")
	}

	var result Config
	if err = k.Unmarshal("", &result); err != nil {
		return nil, errb.Wrapf(err, "failed to decode config")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err = validate.Struct(result); err != nil {
		return nil, errb.Wrapf(err, "failed to validate config")
	}

	return &result, nil
}
