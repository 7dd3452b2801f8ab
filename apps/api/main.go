// The api server hosts the control plane: tenant resolution for every
// inbound host and self-service provisioning of new tenants.
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/caarlos0/env/v11"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	oapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"go.uber.org/zap"

	signupshandler "github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/handler"
	signupsrepo "github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/repo"
	signupsservice "github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/service"
	tenantshandler "github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/handler"
	tenantsrepo "github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/repo"
	tenantsservice "github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/crypto"
	platformlogging "github.com/nimbusdesk/nimbusdesk-saas/platform/go/logging"
	platformmiddleware "github.com/nimbusdesk/nimbusdesk-saas/platform/go/middleware"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
	tenantmiddleware "github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant/middleware"
)

type config struct {
	Port            string        `env:"PORT" envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL     string        `env:"DATABASE_URL,required"`
	AuthProvider    string        `env:"AUTH_PROVIDER" envDefault:"firebase"` // firebase | dev
	BaseDomain      string        `env:"BASE_DOMAIN" envDefault:"localhost:3000"`
	CacheTTL        time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	SettingsKEK     string        `env:"SETTINGS_KEK"`                      // base64, 32 bytes; empty disables phone storage
	SettingsKEKID   string        `env:"SETTINGS_KEK_ID" envDefault:"kek1"` // identifies the active KEK for rotation
	BootstrapOnBoot bool          `env:"BOOTSTRAP_ON_START" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "control-plane-api",
		Level:     cfg.LogLevel,
	})
	if err != nil {
		log.Fatalf("init zap logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: cfg.DatabaseURL})
	if err != nil {
		logger.Fatal("init postgres pool", zap.Error(err))
	}
	defer persistence.ClosePool(pool)

	if cfg.BootstrapOnBoot {
		if err := persistence.BootstrapControlPlane(ctx, pool); err != nil {
			logger.Fatal("bootstrap control-plane schema", zap.Error(err))
		}
		logger.Info("control-plane schema bootstrapped")
	}

	tenantStore, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		logger.Fatal("init tenant store", zap.Error(err))
	}
	signupStore, err := persistence.NewSignupStore(ctx, pool)
	if err != nil {
		logger.Fatal("init signup store", zap.Error(err))
	}
	planStore, err := persistence.NewPlanStore(ctx, pool)
	if err != nil {
		logger.Fatal("init plan store", zap.Error(err))
	}

	authMiddleware, identityProvider := buildAuth(ctx, cfg, logger)

	tenantRepo := tenantsrepo.NewPostgresRepository(tenantStore)
	resolverCache := tenant.NewCache(cfg.CacheTTL, clock.New())
	tenantService := tenantsservice.New(tenantRepo, resolverCache, logger)
	tenantHTTPHandler := tenantshandler.New(tenantService, logger)

	settingsValidator, err := persistence.NewSettingsValidator()
	if err != nil {
		logger.Fatal("init settings validator", zap.Error(err))
	}

	keyRing := buildKeyRing(cfg, logger)

	signupsRepo := signupsrepo.NewPostgresRepository(tenantStore, signupStore, planStore)
	signupsService := signupsservice.New(signupsRepo, identityProvider, settingsValidator, keyRing, cfg.BaseDomain, logger)
	signupsHTTPHandler := signupshandler.New(signupsService, logger)

	rootRouter := chi.NewRouter()

	rootRouter.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		chimw.Timeout(cfg.RequestTimeout),
		platformmiddleware.DefaultCORS(),
	)

	rootRouter.Use(platformlogging.RequestLogger(logger))

	rootRouter.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	rootRouter.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// ---- Swagger UI + OpenAPI JSON (public) ----
	registerDocsRoutes(rootRouter, logger)

	spec, err := loadControlPlaneSpec()
	if err != nil {
		logger.Fatal("load control-plane contract", zap.Error(err))
	}
	contractValidator := oapimiddleware.OapiRequestValidatorWithOptions(spec, &oapimiddleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: platformmiddleware.ValidateAuthenticationViaSwagger,
		},
	})

	apiRouter := chi.NewRouter()
	apiRouter.Use(authMiddleware)
	apiRouter.Use(platformmiddleware.RequestTrace)
	apiRouter.Use(contractValidator)

	tenantHTTPHandler.Register(apiRouter)
	signupsHTTPHandler.Register(apiRouter)
	apiRouter.Mount("/admin", tenantHTTPHandler.AdminRoutes())

	apiRouter.Group(func(r chi.Router) {
		r.Use(tenantmiddleware.TenantContext(func(req *http.Request) tenant.Resolution {
			return tenantService.Resolve(req.Context(), req.Host, req.URL.Query())
		}))
		r.Use(tenantmiddleware.RequireActiveTenant)
		r.Get("/workspace", tenantHTTPHandler.Workspace)
	})

	rootRouter.Mount("/api/v1", apiRouter)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rootRouter,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	go func() {
		logger.Info("starting control-plane api",
			zap.String("port", cfg.Port),
			zap.String("base_domain", cfg.BaseDomain),
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server listen failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildKeyRing assembles the envelope-encryption key ring from config. A
// missing KEK disables phone storage rather than storing plaintext.
func buildKeyRing(cfg config, logger *zap.Logger) *crypto.KeyRing {
	if cfg.SettingsKEK == "" {
		logger.Warn("SETTINGS_KEK not set; contact phone numbers will not be stored")
		return nil
	}

	kek, err := base64.StdEncoding.DecodeString(cfg.SettingsKEK)
	if err != nil {
		logger.Fatal("decode SETTINGS_KEK", zap.Error(err))
	}
	ring, err := crypto.NewKeyRing(cfg.SettingsKEKID, kek)
	if err != nil {
		logger.Fatal("init key ring", zap.Error(err))
	}
	return ring
}
