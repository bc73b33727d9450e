// Command task-events drains the task event queue into an audit log.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/student-task-portal/internal/config"
	"github.com/iliyamo/student-task-portal/internal/queue"
)

func main() {
	config.LoadDotEnv()
	log := config.NewLogger(config.LoadLogConfig())
	qc := config.LoadQueueConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.Consumer{URL: qc.BrokerURL(), Queue: qc.Queue, LogDir: qc.LogDir, Log: log}
	log.WithField("queue", qc.Queue).Info("task-events: consuming")
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("task-events: stopped")
	}
	log.Info("task-events: bye")
}
