package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad/go-workshop-core/internal/catalog"
	"github.com/ad/go-workshop-core/internal/config"
	"github.com/ad/go-workshop-core/internal/db"
	"github.com/ad/go-workshop-core/internal/handlers"
	"github.com/ad/go-workshop-core/internal/metrics"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/ad/go-workshop-core/internal/storage"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	dbQueue := db.NewDBQueue(sqlDB)
	defer dbQueue.Close()

	var notifier services.AdminNotifier = services.LogNotifier{}
	var b *bot.Bot
	if cfg.BotToken != "" {
		b, err = connectBot(cfg.BotToken)
		if err != nil {
			return err
		}
		notifier = services.NewErrorManager(b, cfg.AdminChatID)
	}

	app, err := newApp(cfg, dbQueue, notifier)
	if err != nil {
		return err
	}

	if b != nil {
		adminBot := handlers.NewAdminBot(cfg.AdminChatID, app.reset, app.users, app.settings, notifier)
		b.RegisterHandlerMatchFunc(func(update *tgmodels.Update) bool {
			return update.Message != nil
		}, adminBot.HandleUpdate, logMiddleware)
		go b.Start(ctx)
		log.Printf("Admin bot started for chat %d", cfg.AdminChatID)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Workshop core listening on %s, DB: %s", cfg.HTTPAddr, cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	return nil
}

type app struct {
	server   *handlers.Server
	reset    *services.ResetEngine
	users    *db.UserRepository
	settings *db.SettingsRepository
}

func newApp(cfg config.Config, dbQueue *db.DBQueue, notifier services.AdminNotifier) (*app, error) {
	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	files, err := storage.NewLocalStore(cfg.ReportsDir)
	if err != nil {
		return nil, err
	}

	userRepo := db.NewUserRepository(dbQueue)
	settingsRepo := db.NewSettingsRepository(dbQueue)
	guard := services.NewWorkshopLockGuard(userRepo)
	resetEngine := services.NewResetEngine(userRepo, db.NewResetRepository(dbQueue), files, notifier)

	server := handlers.NewServer(cfg, handlers.Deps{
		Progression: services.NewProgressionEngine(cat, db.NewProgressRepository(dbQueue), guard),
		Guard:       guard,
		Assessments: services.NewAssessmentService(db.NewAssessmentRepository(dbQueue), guard),
		Reports:     services.NewReportService(db.NewReportRepository(dbQueue), files, userRepo),
		Reset:       resetEngine,
		Invites:     services.NewInviteEngine(db.NewInviteRepository(dbQueue), cfg.InviteCodeLength, cfg.InviteDefaultTTL),
		Messages:    settingsRepo,
		Notifier:    notifier,
		Gatherer:    metrics.NewRegistry(),
	})
	return &app{server: server, reset: resetEngine, users: userRepo, settings: settingsRepo}, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	log.Printf("Loading workshop catalog from %s", path)
	return catalog.LoadFile(path)
}

func connectBot(token string) (*bot.Bot, error) {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	var lastErr error
	for i := 0; i < 3; i++ {
		log.Printf("Attempting to connect to Telegram API (attempt %d/3)...", i+1)
		b, err := bot.New(token, bot.WithHTTPClient(15*time.Second, httpClient))
		if err == nil {
			log.Printf("Successfully connected to Telegram API")
			return b, nil
		}
		lastErr = err
		log.Printf("Failed to connect to Telegram API (attempt %d/3): %v", i+1, err)
		if i < 2 {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect to Telegram API after 3 attempts: %w", lastErr)
}

func logMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
		if update.Message != nil && update.Message.From != nil {
			log.Printf("[MSG] from=%d text=%q", update.Message.From.ID, update.Message.Text)
		}
		next(ctx, b, update)
	}
}
