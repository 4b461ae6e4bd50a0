package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/steadypath/steadypath/api"
	"github.com/steadypath/steadypath/internal/config"
	"github.com/steadypath/steadypath/internal/escalation"
	"github.com/steadypath/steadypath/internal/escalation/providers"
	"github.com/steadypath/steadypath/internal/ws"
	"github.com/steadypath/steadypath/pkg/logger"
	"github.com/steadypath/steadypath/pkg/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := gorm.Open(sqlite.Open(cfg.Database.Path), &gorm.Config{})
	if err != nil {
		zapLogger.Fatal("Failed to open ledger database", zap.Error(err))
	}

	ledger, err := escalation.NewLedger(zapLogger, db)
	if err != nil {
		zapLogger.Fatal("Failed to create delivery ledger", zap.Error(err))
	}

	httpClient := &http.Client{Timeout: cfg.Escalation.ChannelTimeout}

	smsAdapter := escalation.NewChannelAdapter(zapLogger, models.ChannelShortMessage,
		providers.NewPrimarySMS(zapLogger, cfg.SMS.Primary, httpClient),
		providers.NewGatewaySMS(zapLogger, "sms-alternate", cfg.SMS.Fallback, httpClient),
		providers.NewGatewaySMS(zapLogger, "sms-regional", cfg.SMS.Regional, httpClient),
	)
	emailAdapter := escalation.NewChannelAdapter(zapLogger, models.ChannelEmail,
		providers.NewAPIEmail(zapLogger, cfg.Email, httpClient),
		providers.NewComposeEmail(zapLogger, cfg.Email),
	)
	chatAdapter := escalation.NewChannelAdapter(zapLogger, models.ChannelChatLink,
		providers.NewBotChat(zapLogger, cfg.Chat, httpClient),
		providers.NewDeepLinkChat(zapLogger, cfg.Chat),
	)
	deviceAdapter := escalation.NewChannelAdapter(zapLogger, models.ChannelDeviceLocal,
		providers.NewDeviceLocal(zapLogger, cfg.Escalation.ExportDir, cfg.Escalation.ContactStagger),
	)

	notifier := escalation.NewTerminalNotifier(zapLogger)
	svc := escalation.NewService(
		zapLogger,
		ledger,
		notifier,
		cfg.Contacts,
		[]*escalation.ChannelAdapter{smsAdapter, emailAdapter, chatAdapter},
		deviceAdapter,
		cfg.Escalation.ChannelTimeout,
	)

	feed := ws.NewFeed(zapLogger)
	if history, err := ledger.List(context.Background()); err == nil {
		feed.Prime(history)
	} else {
		zapLogger.Warn("Failed to prime feed snapshot", zap.Error(err))
	}
	ledger.Subscribe(feed.Publish)

	server := api.NewServer(zapLogger, svc, feed)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	zapLogger.Info("SteadyPath escalation service started",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("contacts", len(cfg.Contacts)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		zapLogger.Fatal("API server failed", zap.Error(err))
	case sig := <-sigCh:
		zapLogger.Info("Shutting down", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
