package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/grupoventia/crm-comercial/internal/aging"
	"github.com/grupoventia/crm-comercial/internal/collections"
	"github.com/grupoventia/crm-comercial/internal/config"
	"github.com/grupoventia/crm-comercial/internal/dispatch"
	"github.com/grupoventia/crm-comercial/internal/lifecycle"
	"github.com/grupoventia/crm-comercial/internal/notifications"
	"github.com/grupoventia/crm-comercial/internal/quotes"
)

// ReminderWorker sweeps open quotes and collections cases on a schedule and
// queues contact reminders for anything due soon or overdue. The sweep only
// reads and notifies; it never touches entity state, so the engine stays
// free of background transitions.
type ReminderWorker struct {
	quoteRepo       quotes.Repository
	caseRepo        collections.Repository
	dispatcher      *dispatch.Dispatcher
	quoteClassifier aging.Classifier
	caseClassifier  aging.Classifier
	logger          *zap.Logger
}

// NewReminderWorker creates the worker.
func NewReminderWorker(db *gorm.DB, dispatcher *dispatch.Dispatcher, cfg config.LifecycleConfig, logger *zap.Logger) *ReminderWorker {
	return &ReminderWorker{
		quoteRepo:       quotes.NewRepository(db),
		caseRepo:        collections.NewRepository(db),
		dispatcher:      dispatcher,
		quoteClassifier: aging.NewClassifier(cfg.QuoteDueSoonDays),
		caseClassifier:  aging.NewClassifier(cfg.CollectionsDueSoonDays),
		logger:          logger,
	}
}

// Sweep runs one pass. The reference on each intent includes the sweep date
// so the outbox dedup makes daily reruns idempotent.
func (w *ReminderWorker) Sweep(ctx context.Context, now time.Time) {
	ref := now.Format("2006-01-02")

	w.sweepQuotes(ctx, now, ref)
	w.sweepCases(ctx, now, ref)
}

func (w *ReminderWorker) sweepQuotes(ctx context.Context, now time.Time, ref string) {
	sent := lifecycle.QuoteSent
	list, err := w.quoteRepo.List(ctx, quotes.ListFilter{Status: &sent})
	if err != nil {
		w.logger.Error("Failed to list open quotes", zap.Error(err))
		return
	}

	var intents []lifecycle.Intent
	for _, q := range list {
		c := w.quoteClassifier.Classify(q.ExpirationDate, now)
		if c.Bucket == aging.BucketNormal {
			continue
		}
		reason := "quote_expiring"
		if c.Bucket == aging.BucketOverdue {
			reason = "quote_expired"
		}
		intents = append(intents, lifecycle.NotifyContact{
			EntityKind: lifecycle.KindQuote,
			EntityID:   q.ID,
			Reason:     reason,
			Reference:  ref,
		})
	}

	report := w.dispatcher.Dispatch(ctx, intents)
	w.logger.Info("Quote reminder sweep finished",
		zap.Int("queued", len(report.Outcomes)),
		zap.Int("failed", len(report.Failed())))
}

func (w *ReminderWorker) sweepCases(ctx context.Context, now time.Time, ref string) {
	list, err := w.caseRepo.List(ctx, collections.ListFilter{OpenOnly: true})
	if err != nil {
		w.logger.Error("Failed to list open cases", zap.Error(err))
		return
	}

	var intents []lifecycle.Intent
	for _, cc := range list {
		c := w.caseClassifier.Classify(cc.Invoice.DueDate, now)
		if c.Bucket == aging.BucketNormal {
			continue
		}
		reason := "payment_due_soon"
		if c.Bucket == aging.BucketOverdue {
			reason = "payment_overdue"
		}
		intents = append(intents, lifecycle.NotifyContact{
			EntityKind: lifecycle.KindCollectionsCase,
			EntityID:   cc.ID,
			Reason:     reason,
			Reference:  ref,
		})
	}

	report := w.dispatcher.Dispatch(ctx, intents)
	w.logger.Info("Collections reminder sweep finished",
		zap.Int("queued", len(report.Outcomes)),
		zap.Int("failed", len(report.Failed())))
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDatabaseURL()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// The sweep only queues notifications, so only the sender is wired.
	sender := notifications.NewOutboxSender(db, logger)
	dispatcher := dispatch.New(nil, nil, sender, logger)

	worker := NewReminderWorker(db, dispatcher, cfg.Lifecycle, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Lifecycle.ReminderCron, func() {
		worker.Sweep(ctx, time.Now())
	}); err != nil {
		logger.Fatal("Invalid reminder cron expression",
			zap.String("cron", cfg.Lifecycle.ReminderCron), zap.Error(err))
	}

	// Run one pass at startup, then on schedule
	worker.Sweep(ctx, time.Now())
	c.Start()
	logger.Info("Reminder worker started", zap.String("cron", cfg.Lifecycle.ReminderCron))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received")
	<-c.Stop().Done()
	logger.Info("Reminder worker stopped")
}
