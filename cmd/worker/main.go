package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Whizard545/roomsync-prod/internal/queue"
)

// The worker consumes reservation events from RabbitMQ and appends
// them to the audit log. It runs as its own process so a broker outage
// or slow disk never backs up the API.
func main() {
	_ = godotenv.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.Info("reservation worker starting")

	if err := queue.StartReservationConsumer(); err != nil {
		logrus.WithError(err).Fatal("consumer stopped")
	}
}
