package bot

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"quotebot/app/client/telegram"
	"quotebot/app/config"
	"quotebot/app/service/delivery"
	"quotebot/app/service/messages"
	"quotebot/app/service/queue"
	"quotebot/app/service/quotes"
	"quotebot/app/service/selection"
	"quotebot/app/service/viewlog"
	"quotebot/app/util/mylog"

	"github.com/samber/do"
)

const (
	startCommand = "start"
	quoteCommand = "quote"
)

type ViewLog interface {
	History(userID string) []viewlog.Record
	Append(record viewlog.Record)
	Persist() error
}

type Replier interface {
	Send(ctx context.Context, chatID int64, text string) bool
}

type Service struct {
	quotes   *quotes.Store
	views    ViewLog
	messages *messages.Service
	replier  Replier
	queue    *queue.Service

	rand     selection.Rand
	now      func() time.Time
	throttle bool

	// exhausted holds users already reported to the operator as out of quotes.
	exhausted map[string]struct{}
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	queueSvc := do.MustInvoke[*queue.Service](di)

	do.MustInvoke[*telegram.Client](di).SetListener(func(chatID int64, username, command, text string) {
		queueSvc.Add(queue.Message{
			ChatID:   chatID,
			Username: username,
			Command:  command,
			Text:     text,
		})
	})

	if cfg.Quote.DisableThrottling {
		slog.Warn("Throttling is disabled")
	}

	return &Service{
		quotes:   do.MustInvoke[*quotes.Store](di),
		views:    do.MustInvoke[*viewlog.Log](di),
		messages: do.MustInvoke[*messages.Service](di),
		replier:  do.MustInvoke[*delivery.Service](di),
		queue:    queueSvc,
		rand:     do.MustInvoke[*rand.Rand](di),
		now:      time.Now,
		throttle: !cfg.Quote.DisableThrottling,

		exhausted: make(map[string]struct{}),
	}, nil
}

// Run handles queued messages one at a time until ctx is done or the queue
// is closed.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.queue.Channel():
			if !ok {
				return
			}

			start := time.Now()
			s.HandleMessage(ctx, msg)

			slog.Debug("Processed message",
				"chat_id", msg.ChatID,
				"username", msg.Username,
				"command", msg.Command,
				"duration", time.Since(start))
		}
	}
}

func (s *Service) HandleMessage(ctx context.Context, msg queue.Message) {
	var reply string

	switch msg.Command {
	case "":
		reply = s.messages.Filler()
	case startCommand:
		slog.Info("Start", "chat_id", msg.ChatID, "username", msg.Username)
		reply = s.messages.Welcome()
	case quoteCommand:
		slog.Info("Quote", "chat_id", msg.ChatID, "username", msg.Username)
		reply = s.Quote(strconv.FormatInt(msg.ChatID, 10))
	default:
		slog.Debug("Ignoring unknown command", "chat_id", msg.ChatID, "command", msg.Command)
		return
	}

	s.replier.Send(ctx, msg.ChatID, reply)
}

// Quote runs the selection policy for userID and returns the text to reply
// with. A fresh quote is recorded in the view log before it is returned.
func (s *Service) Quote(userID string) string {
	now := s.now()

	outcome := selection.Select(userID, s.quotes.IDs(), s.views.History(userID), now, selection.Options{
		Throttle: s.throttle,
		Rand:     s.rand,
	})

	switch outcome.Kind {
	case selection.Throttled:
		slog.Info("Throttled", "user_id", userID)
		return s.messages.Throttled()
	case selection.Exhausted:
		if _, reported := s.exhausted[userID]; reported {
			slog.Info("Missing quote", "user_id", userID)
		} else {
			s.exhausted[userID] = struct{}{}
			slog.Info("Missing quote", "user_id", userID, mylog.Alert())
		}
		return s.messages.Exhausted()
	}

	text, _ := s.quotes.Text(outcome.QuoteID)

	s.views.Append(viewlog.Record{
		UserID:   userID,
		QuoteID:  outcome.QuoteID,
		ViewedAt: now.UTC(),
	})
	if err := s.views.Persist(); err != nil {
		slog.Error("Failed to persist view log", "user_id", userID, "quote_id", outcome.QuoteID, "error", err)
	}

	slog.Info("Served quote", "user_id", userID, "quote_id", outcome.QuoteID)

	return text
}
