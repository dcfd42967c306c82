// Command mailer drains the mail queue filled by the API when
// MAIL_TRANSPORT=queue and delivers each message over SMTP.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/labyrinth/internal/config"
	"github.com/iliyamo/labyrinth/internal/logging"
	"github.com/iliyamo/labyrinth/internal/notify"
	"github.com/iliyamo/labyrinth/internal/queue"
)

func main() {
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("app", cfg.Name, "component", "mailer")

	smtp, err := notify.NewSMTPSender(cfg.Mail)
	if err != nil {
		log.Fatalf("smtp: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &queue.Consumer{
		URL:     cfg.Mail.AMQPURL,
		Queue:   cfg.Mail.Queue,
		Handler: notify.Deliver(smtp),
		Log:     logger,
	}
	logger.Info(ctx, "consuming", "queue", cfg.Mail.Queue)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	logger.Info(ctx, "stopped")
}
