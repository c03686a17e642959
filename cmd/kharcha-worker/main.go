// kharcha-worker tails the ledger event queue and writes an audit log.
// It deliberately holds no store handle: the ledger database belongs to
// the server process alone.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"kharcha/internal/amqp"
	"kharcha/internal/cli"
	applog "kharcha/internal/log"
)

func main() {
	logger := cli.SetupLogger().WithComponent(applog.ComponentAMQP)
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Worker started", "queue", cfg.AMQPQueue)

	err = client.ConsumeLedgerEvents(ctx, func(msg *amqp.LedgerEventMessage) error {
		logger.Info("Ledger event",
			"event", msg.Event,
			applog.FieldTransactionID, msg.ID,
			"at", msg.Timestamp)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped", applog.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
