package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"homecook-backend/internal/config"
	"homecook-backend/internal/env"
	"homecook-backend/internal/infrastructure/cache"
	"homecook-backend/internal/infrastructure/doordash"
	"homecook-backend/internal/infrastructure/notify"
	"homecook-backend/internal/infrastructure/repo"
	"homecook-backend/internal/infrastructure/stripepay"
	"homecook-backend/internal/logging"
	"homecook-backend/internal/realtime"
	"homecook-backend/internal/server"
	"homecook-backend/internal/usecase"
)

type stores struct {
	orders  usecase.OrderRepo
	payouts usecase.PayoutRepo
	chefs   usecase.ChefRepo
	close   func() error
}

type processor interface {
	usecase.PaymentProcessor
	server.PaymentWebhookParser
}

func main() {
	loaded := env.Load(".env", ".env.local")
	envDefaults := config.EnvDefaults()

	envName := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	logJSON := flag.Bool("log-json", envDefaults.LogJSON, "")
	logLevel := flag.String("log-level", envDefaults.LogLevel, "")
	jwtSecret := flag.String("jwt-secret", envDefaults.JWTSecret, "")
	databaseURL := flag.String("database-url", envDefaults.DatabaseURL, "")
	redisAddr := flag.String("redis-addr", envDefaults.RedisAddr, "")
	paymentMock := flag.Bool("payment-mock", envDefaults.PaymentMock, "")

	flag.Parse()

	cfg := envDefaults
	cfg.Env = *envName
	cfg.Port = *port
	cfg.LogJSON = *logJSON
	cfg.LogLevel = *logLevel
	cfg.JWTSecret = *jwtSecret
	cfg.DatabaseURL = *databaseURL
	cfg.RedisAddr = *redisAddr
	cfg.PaymentMock = *paymentMock

	logging.Init(cfg.LogJSON, cfg.LogLevel)
	slog.Info("starting homecook backend", "env", cfg.Env, "port", cfg.Port, "env_files", loaded)

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer st.close()

	var (
		broker     realtime.Broker = realtime.NewHub()
		quoteCache usecase.Cache   = cache.NewMemoryCache(cfg.PlatformName)
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		defer rdb.Close()
		broker = realtime.NewRedisBroker(rdb, "orders")
		quoteCache = cache.NewRedisCache(rdb, cfg.PlatformName)
		slog.Info("redis connected", "addr", cfg.RedisAddr)
	}

	proc, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	providerHTTP := &http.Client{Timeout: cfg.Timeout()}
	dd := &doordash.Client{
		BaseURL:       cfg.DoorDashBaseURL,
		DeveloperID:   cfg.DoorDashDeveloperID,
		KeyID:         cfg.DoorDashKeyID,
		SigningSecret: cfg.DoorDashSigningSecret,
		HTTP:          providerHTTP,
	}
	var notifier usecase.Notifier = notify.LogNotifier{}
	if cfg.SMSURL != "" {
		notifier = &notify.SMSGateway{URL: cfg.SMSURL, Token: cfg.SMSToken, HTTP: providerHTTP}
	}

	if cfg.DoorDashWebhookAuth == "" {
		if cfg.Env == "dev" {
			slog.Warn("doordash webhook auth not configured, accepting unauthenticated calls in dev")
		} else {
			slog.Warn("doordash webhook auth not configured, rejecting every delivery webhook")
		}
	}

	srv := server.New(cfg, server.Deps{
		Auth:   &usecase.AuthService{JWTSecret: cfg.JWTSecret},
		Orders: &usecase.OrderService{Repo: st.orders},
		Quotes: &usecase.QuoteService{Drive: dd, Orders: st.orders, Cache: quoteCache, Publisher: broker},
		Payments: &usecase.PaymentService{
			Orders: st.orders, Chefs: st.chefs, Processor: proc, Publisher: broker, PlatformName: cfg.PlatformName,
		},
		Dispatch: &usecase.DispatchService{
			Orders:          st.orders,
			Chefs:           st.chefs,
			Drive:           dd,
			Notifier:        notifier,
			Publisher:       broker,
			Cache:           quoteCache,
			IDPrefix:        cfg.DeliveryIDPrefix,
			DefaultFeeCents: cfg.DefaultDeliveryFee,
		},
		Webhooks: &usecase.WebhookService{
			Orders:               st.orders,
			Publisher:            broker,
			AuthHeader:           cfg.DoorDashWebhookAuth,
			AllowUnauthenticated: cfg.Env == "dev",
		},
		Payouts:  &usecase.PayoutService{Payouts: st.payouts, Chefs: st.chefs, Processor: proc},
		Chefs: &usecase.ChefService{
			Chefs: st.chefs, Processor: proc, RefreshURL: cfg.OnboardingRefresh, ReturnURL: cfg.OnboardingReturn,
		},
		Broker:         broker,
		PaymentWebhook: proc,
	})

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", hs.Addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}

func openStores(cfg config.Config) (*stores, error) {
	if cfg.DatabaseURL == "" {
		slog.Warn("no database configured, using in-memory store")
		return &stores{
			orders:  repo.NewMemoryOrderRepo(),
			payouts: repo.NewMemoryPayoutRepo(),
			chefs:   repo.NewMemoryChefRepo(),
			close:   func() error { return nil },
		}, nil
	}
	pg, err := repo.NewPostgresRepo(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return &stores{orders: pg, payouts: pg, chefs: pg, close: pg.Close}, nil
}

func newProcessor(cfg config.Config) (processor, error) {
	if !cfg.UseStripe() {
		slog.Warn("stripe not configured, using mock payment processor")
		return stripepay.NewMock(), nil
	}
	return stripepay.NewClient(stripepay.Config{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
	})
}
