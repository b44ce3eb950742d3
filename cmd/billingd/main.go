package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/helioslabs/billingkit/pkg/access"
	"github.com/helioslabs/billingkit/pkg/account"
	"github.com/helioslabs/billingkit/pkg/alert"
	pkgbilling "github.com/helioslabs/billingkit/pkg/billing"
	"github.com/helioslabs/billingkit/pkg/config"
	"github.com/helioslabs/billingkit/pkg/dedup"
	"github.com/helioslabs/billingkit/pkg/entitlement"
	"github.com/helioslabs/billingkit/pkg/httpserver"
	"github.com/helioslabs/billingkit/pkg/logger"
	"github.com/helioslabs/billingkit/pkg/mongo"
	"github.com/helioslabs/billingkit/pkg/pg"
	"github.com/helioslabs/billingkit/pkg/redis"
	"github.com/helioslabs/billingkit/pkg/requestid"
	"github.com/helioslabs/billingkit/pkg/subscription"
	billingmodule "github.com/helioslabs/billingkit/svc/billing"
)

type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_SERVICE_NAME" envDefault:"billingd"`

	// Store selects the account store backend: memory, mongo, or postgres.
	Store string `env:"ACCOUNT_STORE" envDefault:"memory"`

	// Provider selects the billing backend: stripe or paddle.
	Provider string `env:"BILLING_PROVIDER" envDefault:"stripe"`

	// DedupEnabled wires the redis processed-event marker.
	DedupEnabled bool `env:"DEDUP_ENABLED" envDefault:"false"`

	// EntitlementsPath optionally overrides the built-in plan table with a
	// YAML file.
	EntitlementsPath string `env:"ENTITLEMENTS_PATH"`
}

func main() {
	ctx := context.Background()

	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, appCfg.Service),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, appCfg, log); err != nil {
		log.Error("billingd exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig, log *slog.Logger) error {
	// Entitlement table: built-in defaults unless a YAML override is given.
	table := entitlement.Default()
	if appCfg.EntitlementsPath != "" {
		src := entitlement.NewFileSource(appCfg.EntitlementsPath)
		loaded, err := src.Load(ctx)
		if err != nil {
			return err
		}
		table = loaded
	}

	store, healthchecks, err := buildStore(ctx, appCfg, log)
	if err != nil {
		return err
	}

	provider, err := buildProvider(appCfg)
	if err != nil {
		return err
	}

	var priceCfg pkgbilling.PriceConfig
	config.MustLoad(&priceCfg)
	prices := pkgbilling.NewPriceTableFromConfig(priceCfg)

	opts := []subscription.ServiceOption{subscription.WithLogger(log)}

	if appCfg.DedupEnabled {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)
		redisClient, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		var dedupCfg dedup.Config
		config.MustLoad(&dedupCfg)
		marker, err := dedup.NewRedisMarker(redisClient, dedupCfg)
		if err != nil {
			return err
		}
		opts = append(opts, subscription.WithDedupMarker(marker))
		healthchecks = append(healthchecks, redis.Healthcheck(redisClient))
	}

	var emailCfg alert.EmailConfig
	config.MustLoad(&emailCfg)
	if emailCfg.Configured() {
		notifier, err := alert.NewEmailNotifier(emailCfg)
		if err != nil {
			return err
		}
		opts = append(opts, subscription.WithNotifier(notifier))
	}

	svc := subscription.NewService(store, provider, prices, opts...)
	module := billingmodule.New(svc, appCfg.Provider, billingmodule.WithLogger(log))
	guard := access.NewGuard(store, table, access.WithLogger(log))

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, healthchecks...))

	r.Mount("/billing", module.Router())

	// The gated product API authenticates with the account's API key and
	// asks the guard for an admission decision.
	r.Group(func(r chi.Router) {
		r.Use(access.Middleware(guard))
		r.Get("/v1/me", handleMe)
	})

	var srvCfg httpserver.Config
	config.MustLoad(&srvCfg)

	return httpserver.New(srvCfg, httpserver.WithLogger(log)).Run(ctx, r)
}

// buildStore wires the selected account store backend and its readiness
// probes.
func buildStore(ctx context.Context, appCfg appConfig, log *slog.Logger) (account.Store, []func(context.Context) error, error) {
	switch appCfg.Store {
	case "memory":
		log.Warn("using in-memory account store, records will not survive restarts")
		return account.NewMemoryStore(), nil, nil

	case "mongo":
		var mongoCfg mongo.Config
		config.MustLoad(&mongoCfg)
		client, err := mongo.Connect(ctx, mongoCfg)
		if err != nil {
			return nil, nil, err
		}
		store := account.NewMongoStore(client.Database(mongoCfg.Database))
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return store, []func(context.Context) error{mongo.Healthcheck(client)}, nil

	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)
		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			return nil, nil, err
		}
		return account.NewPostgresStore(pool), []func(context.Context) error{pg.Healthcheck(pool)}, nil

	default:
		return nil, nil, fmt.Errorf("unknown account store backend %q", appCfg.Store)
	}
}

// buildProvider wires the selected billing provider from its own env config.
func buildProvider(appCfg appConfig) (pkgbilling.Provider, error) {
	switch appCfg.Provider {
	case "stripe":
		var cfg pkgbilling.StripeConfig
		config.MustLoad(&cfg)
		return pkgbilling.NewStripeProvider(cfg)

	case "paddle":
		var cfg pkgbilling.PaddleConfig
		config.MustLoad(&cfg)
		return pkgbilling.NewPaddleProvider(cfg)

	default:
		return nil, fmt.Errorf("unknown billing provider %q", appCfg.Provider)
	}
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	decision, ok := access.GetDecisionFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"account_id":    decision.AccountID,
		"plan":          decision.Plan,
		"request_quota": decision.RequestQuota,
	})
}
