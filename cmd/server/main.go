package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/community-hub/internal/config"
	"github.com/iliyamo/community-hub/internal/database"
	"github.com/iliyamo/community-hub/internal/feed"
	"github.com/iliyamo/community-hub/internal/handler"
	"github.com/iliyamo/community-hub/internal/jobs"
	"github.com/iliyamo/community-hub/internal/logger"
	"github.com/iliyamo/community-hub/internal/metrics"
	"github.com/iliyamo/community-hub/internal/middleware"
	"github.com/iliyamo/community-hub/internal/queue"
	"github.com/iliyamo/community-hub/internal/repository"
	"github.com/iliyamo/community-hub/internal/router"
	"github.com/iliyamo/community-hub/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg config.Config) error {
	lg := logger.New("hub", cfg.LogLevel)

	db, dialect, err := openDB(cfg.Store)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	defer db.Close()
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(migrateCtx, db, dialect)
	cancel()
	if err != nil {
		return err
	}
	store := repository.NewSQLStore(db, dialect)

	// Redis is optional: without it there is no cache, no rate limiting and
	// presence stays in SQL.
	var rdb *redis.Client
	if client, err := config.NewRedisClient(config.LoadRedisConfig()); err != nil {
		lg.Warnf("redis unavailable, continuing without it: %v", err)
	} else {
		rdb = client
		defer rdb.Close()
		if cfg.PresenceBackend == config.BackendRedis {
			store.Presence = repository.NewRedisPresenceRepo(rdb, "hub")
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hub := feed.NewHub(32)
	sinks := []service.EventSink{hub}
	cacheCfg := config.LoadCacheConfig()
	if purger := middleware.NewCachePurger(cacheCfg, rdb, lg); purger != nil {
		sinks = append(sinks, purger)
	}

	var smtpSender service.MailSender
	if cfg.SMTP.Host != "" {
		smtpSender = service.NewSMTPSender(cfg.SMTP)
	} else {
		lg.Warnf("SMTP_HOST not set, /sendEmail will answer 500")
	}
	mailer := service.NewMailer(smtpSender, cfg.SMTP, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AMQPURL != "" {
		pub := queue.NewPublisher(cfg.AMQPURL, lg, m)
		defer pub.Close()
		sinks = append(sinks, pub)

		var notify queue.Notifier
		if cfg.NotifyBookings {
			notify = mailer
		}
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.AuditLogPath, lg, store.Users, notify)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				lg.Errorf("audit consumer stopped: %v", err)
			}
		}()
	}
	sink := service.NewMultiSink(lg, sinks...)

	templates, err := config.LoadPlaceholders(cfg.PlaceholdersPath)
	if err != nil {
		return err
	}

	accounts := service.NewAccounts(store.Users, store.Tokens, service.AccountsConfig{
		JWTSecret:       cfg.JWTSecret,
		AccessTTLMin:    cfg.AccessTTLMin,
		RefreshTTLDays:  cfg.RefreshTTLDays,
		BcryptCost:      cfg.BcryptCost,
		AdminSignupCode: cfg.AdminSignupCode,
	})
	guard := service.NewBookingGuard(store.Bookings, cfg.BookingStrict, sink, m)
	events := service.NewEvents(store.Events, templates, sink)
	regs := service.NewRegistrations(store.Registrations, store.Events, sink, m)
	tracker := service.NewTracker(store.Presence, sink, m, lg)
	suggester := service.NewSuggester(cfg.GenAI, m)

	sched := jobs.NewScheduler(lg)
	if err := sched.AddGaugeRefresh(jobs.GaugeSchedule, "online-users", tracker, 10*time.Second); err != nil {
		return err
	}
	sched.Start()

	e := echo.New()
	e.HideBanner = true
	e.Logger = lg
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("12M")) // base64 attachments
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(middleware.RequestMetrics(m))

	bookings := handler.NewBookingHandler(guard, hub)
	eventsH := handler.NewEventHandler(events, regs, hub)
	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts), cfg.JWTSecret)
	router.RegisterPublic(e, bookings, eventsH, handler.NewDispatchHandler(mailer, suggester),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterMember(e, bookings, eventsH, handler.NewPresenceHandler(tracker, hub), cfg.JWTSecret)
	router.RegisterAdmin(e, bookings, cfg.JWTSecret)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	addr := ":" + cfg.Port
	go func() {
		lg.Infof("listening on %s (env=%s, store=%s, strict=%t)", addr, cfg.Env, cfg.Store.Backend, guard.Strict())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorf("server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	lg.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sched.Stop(shutdownCtx)
	hub.Close() // ends open SSE streams
	return e.Shutdown(shutdownCtx)
}

func openDB(sc config.StoreConfig) (*sql.DB, database.Dialect, error) {
	switch sc.Backend {
	case config.BackendMySQL:
		db, err := database.OpenMySQL(sc.DBUser, sc.DBPass, sc.DBHost, sc.DBPort, sc.DBName)
		return db, database.MySQL, err
	case config.BackendSQLite:
		db, err := database.OpenSQLite(sc.SQLitePath)
		return db, database.SQLite, err
	}
	return nil, database.SQLite, fmt.Errorf("unknown STORE_BACKEND %q", sc.Backend)
}
