package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/khyberwear/khyber-shawls-sub000/docs"
	"github.com/khyberwear/khyber-shawls-sub000/internal/app"
	"github.com/khyberwear/khyber-shawls-sub000/internal/config"
	"github.com/khyberwear/khyber-shawls-sub000/internal/events"
	"github.com/khyberwear/khyber-shawls-sub000/internal/handler"
	"github.com/khyberwear/khyber-shawls-sub000/internal/identity"
	"github.com/khyberwear/khyber-shawls-sub000/internal/mailer"
	"github.com/khyberwear/khyber-shawls-sub000/internal/middleware"
	"github.com/khyberwear/khyber-shawls-sub000/internal/notify"
	"github.com/khyberwear/khyber-shawls-sub000/internal/postgres"
	"github.com/khyberwear/khyber-shawls-sub000/internal/repo"
	"github.com/khyberwear/khyber-shawls-sub000/internal/service"
	"github.com/khyberwear/khyber-shawls-sub000/pkg/cache"
	"github.com/khyberwear/khyber-shawls-sub000/pkg/trm"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// @title           Khyber Shawls Order API
// @version         1.0
// @description     Order intake, tracking and fulfillment HTTP API
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	smtp, err := mailer.New(conf.SMTP)
	panicIfErr("failed to create mailer", err)
	dispatcher := notify.NewDispatcher(logger, smtp, conf.SMTP.OpsEmail)

	publisher := events.NewPublisher(conf.Kafka)

	orderService := service.NewOrderService(logger, txManager, orderRepo, orderCache, dispatcher, publisher)

	provider := identity.NewHeaderProvider(conf.Admin.Emails)
	httpHandler := handler.NewHTTPHandler(logger, orderService, middleware.RequireAdmin)

	mws := []func(next http.Handler) http.Handler{middleware.WithIdentity(provider)}
	closers := []io.Closer{publisher, smtp}
	if conf.RateLimit.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: conf.RateLimit.RedisAddr})
		mws = append(mws, middleware.RateLimit(logger, rdb, conf.RateLimit.PerMinute))
		closers = append(closers, rdb)
		logger.Info("rate limiting enabled", slog.String("redis", conf.RateLimit.RedisAddr))
	}

	app := app.New(logger, conf, mws...)
	app.SetHTTPHandlers(httpHandler)
	app.SetClosers(closers...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	orderCache.StartJanitor(ctx)

	app.Start(ctx)
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
