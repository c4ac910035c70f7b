package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go-content-moderator/internal/container"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize dependency injection container
	c, err := container.NewContainer(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	consumer, err := c.Consumer(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize event consumer: %v", err)
	}

	logrus.WithField("queue", c.Config().QueueURL).Info("Starting moderation event consumer")

	if err := consumer.Run(ctx); err != nil {
		logrus.WithError(err).Fatal("Event consumer stopped")
	}

	logrus.Info("Event consumer exited")
}
