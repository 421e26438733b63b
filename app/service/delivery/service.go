package delivery

import (
	"context"
	"log/slog"

	"quotebot/app/client/telegram"
	"quotebot/app/config"
	"quotebot/app/util/retry"

	"github.com/samber/do"
)

type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Service delivers replies on a best-effort basis: a message that still
// fails after the configured attempts is dropped.
type Service struct {
	sender   Sender
	attempts int
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(do.MustInvoke[*telegram.Client](di), cfg.Delivery.Attempts), nil
}

func NewService(sender Sender, attempts int) *Service {
	return &Service{
		sender:   sender,
		attempts: attempts,
	}
}

// Send reports whether text reached chatID.
func (s *Service) Send(ctx context.Context, chatID int64, text string) bool {
	err := retry.Do(ctx, s.attempts, func(int) error {
		return s.sender.Send(ctx, chatID, text)
	})
	if err != nil {
		slog.Warn("Dropping message after failed delivery",
			"chat_id", chatID,
			"attempts", s.attempts,
			"error", err)
		return false
	}

	return true
}
