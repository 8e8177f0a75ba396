package main

// GET  /api/products                 - browse the catalog (filters, sort, paging)
// GET  /api/products/{id}            - product detail with reviews and related bottles
// POST /api/auth/register            - create a customer account (legal age required)
// POST /api/auth/login               - exchange credentials for a bearer token
// /api/cart, /api/checkout           - the signed-in customer's cart and checkout
// /api/orders, /api/account          - order history and profile
// /api/admin/...                     - catalog, stock, order and review management
// GET  /health, /metrics             - liveness and Prometheus metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"spirits-storefront/auth"
	"spirits-storefront/catalog"
	"spirits-storefront/config"
	"spirits-storefront/handler"
	"spirits-storefront/service"
	"spirits-storefront/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var (
		configPath    string
		addr          string
		skipMigrate   bool
		seedFile      string
		adminEmail    string
		adminPassword string
	)
	flagSet := pflag.NewFlagSet("storefront "+cmd, pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	switch cmd {
	case "serve":
		flagSet.StringVar(&addr, "addr", "", "listen address (overrides config)")
		flagSet.BoolVar(&skipMigrate, "skip-migrate", false, "do not apply the schema on start")
	case "migrate":
	case "seed":
		flagSet.StringVar(&seedFile, "file", "catalog.yaml", "YAML catalog to import")
		flagSet.StringVar(&adminEmail, "admin-email", "", "create an admin account with this email")
		flagSet.StringVar(&adminPassword, "admin-password", "", "password for --admin-email (or ADMIN_PASSWORD)")
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTP.Addr = addr
	}
	if err := cfg.ValidateFor(cmd); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPostgresStore(ctx, cfg.Database.URL, store.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	switch cmd {
	case "migrate":
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("migrations_applied")
		return nil
	case "seed":
		if adminPassword == "" {
			adminPassword = os.Getenv("ADMIN_PASSWORD")
		}
		return seed(ctx, st, cfg, logger, seedFile, adminEmail, adminPassword)
	}

	if !skipMigrate {
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("migrations_applied")
	}
	return serve(ctx, st, cfg, logger)
}

func serve(ctx context.Context, st store.Store, cfg config.Config, logger *slog.Logger) error {
	svc := service.NewService(st, cfg.Shop, logger)
	var serviceInterface service.ServiceInterface = svc

	authz, err := auth.NewAuthorizer(cfg.Auth.PolicyFile)
	if err != nil {
		return err
	}
	h := handler.NewHandler(serviceInterface, handler.Options{
		Tokens: auth.NewTokenIssuer(auth.TokenConfig{
			Secret:    []byte(cfg.Auth.JWTSecret),
			Issuer:    cfg.Auth.Issuer,
			Audience:  cfg.Auth.Audience,
			TTL:       cfg.Auth.TokenTTL,
			ClockSkew: cfg.Auth.ClockSkew,
		}),
		Authorizer: authz,
		Metrics:    handler.NewMetrics(),
		Logger:     logger,
		LoginRate:  rate.Limit(cfg.Auth.LoginRate),
		LoginBurst: cfg.Auth.LoginBurst,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_started", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("server_stopping")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func seed(ctx context.Context, st store.Store, cfg config.Config, logger *slog.Logger, file, adminEmail, adminPassword string) error {
	svc := service.NewService(st, cfg.Shop, logger)

	if adminEmail != "" {
		u, err := svc.CreateAdmin(ctx, adminEmail, adminPassword)
		switch {
		case errors.Is(err, store.ErrConflict):
			logger.Info("admin_exists", "email", adminEmail)
		case err != nil:
			return fmt.Errorf("create admin: %w", err)
		default:
			logger.Info("admin_created", "user_id", u.ID, "email", u.Email)
		}
	}

	products, err := catalog.LoadSeedFile(file)
	if err != nil {
		return err
	}
	start := time.Now()
	created, skipped, err := svc.ImportProducts(ctx, products)
	if err != nil {
		return err
	}
	logger.Info("catalog_seeded", "file", file, "created", created, "skipped", skipped,
		"duration", time.Since(start))
	return nil
}

func newLogger(cfg config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts)), nil
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts)), nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage:
  storefront [serve] [--config file] [--addr :8080] [--skip-migrate]
  storefront migrate [--config file]
  storefront seed [--config file] [--file catalog.yaml] [--admin-email a@b --admin-password ...]

Configuration is read from the YAML file, then .env, then the environment
(DATABASE_URL, JWT_SECRET, STOREFRONT_ADDR, LOG_LEVEL, ...).
`)
}
