package queue

import (
	"log/slog"

	"quotebot/app/config"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service buffers inbound messages so they are handled one at a time.
type Service struct {
	queue chan Message
}

type Message struct {
	ChatID   int64
	Username string
	Command  string
	Text     string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Telegram.QueueSize), nil
}

func NewService(size int) *Service {
	return &Service{
		queue: make(chan Message, size),
	}
}

func (s *Service) Add(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("message queue is closed", "chat_id", msg.ChatID)
		}
	}()

	select {
	case s.queue <- msg:
	default:
		slog.Warn("message queue is full", "chat_id", msg.ChatID)
	}
}

func (s *Service) Channel() <-chan Message {
	return s.queue
}

func (s *Service) Shutdown() error {
	close(s.queue)

	return nil
}
