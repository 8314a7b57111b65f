// main wires the permit administration core: stores, engines, services, the
// HTTP surface, and the two daily reconciliation jobs. Business logic lives in
// the internal services packages.
package main

import (
	"context"
	"database/sql"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	appmetrics "github.com/JRosan/fop-system-sub004/internal/application/metrics"
	appservice "github.com/JRosan/fop-system-sub004/internal/application/service"
	appstore "github.com/JRosan/fop-system-sub004/internal/application/store"
	"github.com/JRosan/fop-system-sub004/internal/feecalc"
	"github.com/JRosan/fop-system-sub004/internal/jobs"
	"github.com/JRosan/fop-system-sub004/internal/notification"
	permitservice "github.com/JRosan/fop-system-sub004/internal/permit/service"
	permitstore "github.com/JRosan/fop-system-sub004/internal/permit/store"
	"github.com/JRosan/fop-system-sub004/internal/platform/config"
	"github.com/JRosan/fop-system-sub004/internal/platform/httpserver"
	"github.com/JRosan/fop-system-sub004/internal/platform/kafka"
	"github.com/JRosan/fop-system-sub004/internal/platform/logger"
	redisplatform "github.com/JRosan/fop-system-sub004/internal/platform/redis"
	revmetrics "github.com/JRosan/fop-system-sub004/internal/revenue/metrics"
	revmodels "github.com/JRosan/fop-system-sub004/internal/revenue/models"
	"github.com/JRosan/fop-system-sub004/internal/revenue/schedule"
	revservice "github.com/JRosan/fop-system-sub004/internal/revenue/service"
	revstore "github.com/JRosan/fop-system-sub004/internal/revenue/store"
	httptransport "github.com/JRosan/fop-system-sub004/internal/transport/http"
	"github.com/JRosan/fop-system-sub004/pkg/money"
	"github.com/JRosan/fop-system-sub004/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	currency := money.Currency(cfg.Currency)

	// Persistence: Postgres for the ledger when a DSN is configured, memory
	// otherwise. Applications and permits are memory-backed.
	var (
		invoiceStore revservice.InvoiceStore
		balanceStore revservice.BalanceStore
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("open postgres: %v", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("ping postgres: %v", err)
		}
		if _, err := db.ExecContext(ctx, revstore.Schema); err != nil {
			log.Fatalf("apply schema: %v", err)
		}
		invoiceStore = revstore.NewPostgresInvoiceStore(db)
		balanceStore = revstore.NewPostgresBalanceStore(db)
		log.Printf("ledger persistence: postgres")
	} else {
		invoiceStore = revstore.NewInMemoryInvoiceStore()
		balanceStore = revstore.NewInMemoryBalanceStore()
		log.Printf("ledger persistence: in-memory")
	}

	redisClient, err := redisplatform.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := kafka.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	var eventSink tx.Publisher
	if publisher != nil {
		defer publisher.Close()
		eventSink = publisher
	}
	uow := tx.NewManager(eventSink, log)

	notifier := notification.NewLogNotifier(log)

	// Fee calculation for applications and the flight-charge schedule.
	feeConfigs := feecalc.NewInMemoryConfigStore()
	seedFeeConfiguration(ctx, feeConfigs, currency, log)
	feeEngine := feecalc.NewEngine(feeConfigs)

	monthlyRate, err := decimal.NewFromString(cfg.MonthlyInterestRate)
	if err != nil {
		log.Fatalf("invalid monthly interest rate %q: %v", cfg.MonthlyInterestRate, err)
	}
	rateStore := schedule.NewInMemoryRateStore()
	scheduleEngine := schedule.NewEngine(rateStore, monthlyRate)

	revenueSvc := revservice.New(invoiceStore, balanceStore, scheduleEngine, uow,
		currency, cfg.DueDateOffsetDays,
		revservice.WithLogger(log),
		revservice.WithMetrics(revmetrics.New()),
		revservice.WithNotifier(notifier),
	)

	maxOverdue, err := money.New(cfg.MaxOverdueAmount, currency)
	if err != nil {
		log.Fatalf("invalid max overdue amount %q: %v", cfg.MaxOverdueAmount, err)
	}
	policy := revmodels.EligibilityPolicy{
		MaxOverdueAmount:   maxOverdue,
		MaxOverdueInvoices: cfg.MaxOverdueInvoices,
	}

	permits := permitstore.NewInMemory()
	permitSvc := permitservice.New(permits, balanceStore, policy, log)

	apps := appstore.NewInMemory()
	appSvc := appservice.New(apps, feeEngine, permitSvc, uow,
		appservice.WithLogger(log),
		appservice.WithMetrics(appmetrics.New()),
		appservice.WithNotifier(notifier),
	)

	// Daily reconciliation jobs.
	var dedupe jobs.Deduper
	if redisClient != nil {
		dedupe = jobs.NewRedisDeduper(redisClient.Client)
	} else {
		dedupe = jobs.NewMemoryDeduper(nil)
	}
	backoff := time.Duration(cfg.JobRetryBackoff) * time.Second
	expiryJob := jobs.NewExpiryJob(permits, permitSvc, notifier, dedupe,
		jobs.Schedule{Hour: cfg.ExpiryJobHour, UTCOffset: cfg.UTCOffsetHours}, backoff, log)
	overdueJob := jobs.NewOverdueJob(invoiceStore, revenueSvc, cfg.GracePeriodDays,
		jobs.Schedule{Hour: cfg.OverdueJobHour, UTCOffset: cfg.UTCOffsetHours}, backoff, log)

	var healthChecks []httpserver.HealthChecker
	if redisClient != nil {
		healthChecks = append(healthChecks, redisClient)
	}
	router := httpserver.NewRouter(healthChecks...)
	httptransport.NewHandler(appSvc, permitSvc, revenueSvc, log).Routes(router)
	srv := httpserver.New(cfg.Addr, router)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("starting fop-system on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error { return ignoreCanceled(expiryJob.Run(gCtx)) })
	g.Go(func() error { return ignoreCanceled(overdueJob.Run(gCtx)) })
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("shutdown complete")
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}

// seedFeeConfiguration installs a development default so applications can be
// rated out of the box. Real deployments manage fee configurations through
// operational tooling.
func seedFeeConfiguration(ctx context.Context, store feecalc.ConfigStore, currency money.Currency, log *stdlog.Logger) {
	cfg := &feecalc.FeeConfiguration{
		ID:         uuid.New(),
		Version:    1,
		Currency:   currency,
		BaseFee:    decimal.NewFromInt(500),
		PerSeatFee: decimal.NewFromInt(25),
		PerKgFee:   decimal.RequireFromString("0.10"),
		Multipliers: map[feecalc.ApplicationType]decimal.Decimal{
			feecalc.TypeOneTime:   decimal.NewFromInt(1),
			feecalc.TypeBlanket:   decimal.RequireFromString("2.5"),
			feecalc.TypeEmergency: decimal.RequireFromString("1.5"),
		},
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := store.Save(ctx, cfg); err != nil {
		log.Printf("seed fee configuration: %v", err)
		return
	}
	log.Printf("seeded default fee configuration v%d (%s)", cfg.Version, currency)
}
