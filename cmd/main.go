package main

import (
	"log"

	"github.com/dialsched/internal/api"
	"github.com/dialsched/internal/auth"
	"github.com/dialsched/internal/config"
	"github.com/dialsched/internal/database"
	"github.com/dialsched/internal/executor"
	"github.com/dialsched/internal/notify"
	"github.com/dialsched/internal/schedule"
	"github.com/dialsched/internal/target"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()
	auth.SetSecret(cfg.Auth.JWTSecret)

	// Initialize database
	if err := database.Initialize(cfg.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	db := database.GetDB()

	// Notifier for failed executions
	notifier := notify.NewNotifier(&notify.Config{
		SlackToken:     cfg.Alert.Slack.Token,
		SlackChannel:   cfg.Alert.Slack.Channel,
		SMTPHost:       cfg.Alert.Email.SMTPHost,
		SMTPPort:       cfg.Alert.Email.SMTPPort,
		EmailFrom:      cfg.Alert.Email.From,
		EmailPassword:  cfg.Alert.Email.Password,
		EmailReceivers: cfg.Alert.Email.ToReceivers,
	})

	// Activation port against the dialer core
	dialer := target.NewDialerClient(cfg.Dialer.BaseURL, cfg.Dialer.APIKey, cfg.Dialer.RateLimit)

	// Start the occurrence executor
	exec := executor.New(db, dialer, notifier, executor.Config{
		Interval:          cfg.Executor.Interval,
		ActivationTimeout: cfg.Executor.ActivationTimeout,
		MaxAttempts:       cfg.Executor.MaxAttempts,
		RetryDelay:        cfg.Executor.RetryDelay,
		StaleClaimAge:     cfg.Executor.StaleClaimAge,
	})
	exec.Start()
	defer exec.Stop()

	// Initialize and start API server
	manager := schedule.NewManager(db)
	server := api.NewServer(manager, executor.NewLedger(db))
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
