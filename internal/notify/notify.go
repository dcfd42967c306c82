// Package notify is the notification gateway: it renders the account
// emails and hands them to a transport.  Every Send is awaited and its error
// is returned to the caller unchanged.
package notify

import (
	"context"
	"fmt"

	"github.com/iliyamo/labyrinth/internal/config"
	"github.com/iliyamo/labyrinth/internal/logging"
)

// Message is one HTML email to a single recipient.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// New returns the Sender selected by cfg.Transport.  The returned close
// function releases broker connections and is never nil.
func New(cfg config.MailConfig, log logging.Logger) (Sender, func() error, error) {
	switch cfg.Transport {
	case "smtp":
		s, err := NewSMTPSender(cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { return nil }, nil
	case "queue":
		q := NewQueueSender(cfg.AMQPURL, cfg.Queue)
		return q, q.Close, nil
	case "log":
		return LogSender{Log: log}, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
}

// LogSender writes messages to the log instead of sending them.  Meant for
// local runs without an SMTP server.
type LogSender struct {
	Log logging.Logger
}

func (l LogSender) Send(ctx context.Context, m Message) error {
	l.Log.Info(ctx, "mail (log transport)", "to", m.To, "subject", m.Subject)
	// the body carries live tokens
	l.Log.Debug(ctx, "mail body", "to", m.To, "html", m.HTML)
	return nil
}
