package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teamnest/teamnest/internal/bootstrap"
	"github.com/teamnest/teamnest/internal/cache"
	"github.com/teamnest/teamnest/internal/config"
	"github.com/teamnest/teamnest/internal/email"
	authctrl "github.com/teamnest/teamnest/internal/http/controllers/auth"
	healthctrl "github.com/teamnest/teamnest/internal/http/controllers/health"
	membersctrl "github.com/teamnest/teamnest/internal/http/controllers/members"
	"github.com/teamnest/teamnest/internal/http/helpers"
	mw "github.com/teamnest/teamnest/internal/http/middlewares"
	"github.com/teamnest/teamnest/internal/http/router"
	authsvc "github.com/teamnest/teamnest/internal/http/services/auth"
	memberssvc "github.com/teamnest/teamnest/internal/http/services/members"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/metrics"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/rate"
	"github.com/teamnest/teamnest/internal/security/password"
	tokens "github.com/teamnest/teamnest/internal/security/token"
	"github.com/teamnest/teamnest/internal/store"
	_ "github.com/teamnest/teamnest/internal/store/memory"
	_ "github.com/teamnest/teamnest/internal/store/pg"
	"github.com/teamnest/teamnest/internal/tenancy"
	"github.com/teamnest/teamnest/internal/tenantctx"
)

var version = "dev"

func main() {
	var (
		flagConfig  = flag.String("config", os.Getenv("CONFIG_PATH"), "ruta al YAML de configuración")
		flagEnvFile = flag.String("env-file", ".env", "archivo .env a cargar (si existe)")
	)
	flag.Parse()

	if *flagEnvFile != "" {
		if err := godotenv.Load(filepath.Clean(*flagEnvFile)); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "env file: %v\n", err)
		}
	}

	cfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config invalid:\n%v\n", err)
		os.Exit(1)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Version:     cfg.App.Version,
	})
	defer func() { _ = logger.Sync() }()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error("service stopped with error", logger.Err(err))
		if errors.Is(err, jwtx.ErrKeyLoad) {
			os.Exit(1)
		}
		os.Exit(2)
	}
	log.Info("service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.L().With(logger.Layer("main"))

	keys, err := jwtx.LoadKeyPair(cfg.JWT.PublicKey, cfg.JWT.PrivateKey)
	if err != nil {
		return err
	}
	log.Info("signing key loaded", logger.KID(keys.KID()))

	st, err := store.Open(ctx, store.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxConns:        cfg.Storage.MaxConns,
		MinConns:        cfg.Storage.MinConns,
		MaxConnLifetime: cfg.Storage.ConnMaxLifetime,
		Migrate:         cfg.Storage.Migrate,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store ready", zap.String("driver", cfg.Storage.Driver))

	var rdb *redis.Client
	if cfg.Cache.Kind == "redis" || (cfg.Rate.Enabled && cfg.Rate.Backend == "redis") {
		rdb, err = cache.DialRedis(ctx, cache.RedisOptions{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
	}

	checks := map[string]healthctrl.Pinger{"store": st}
	var cc cache.Client
	if cfg.Cache.Kind == "redis" {
		cc = cache.NewRedis(rdb, cfg.Redis.Prefix+"cache:", cfg.Cache.TenantTTL)
		checks["redis"] = cc
	} else {
		cc = cache.NewMemory(cfg.Redis.Prefix, cfg.Cache.TenantTTL)
	}
	defer func() { _ = cc.Close() }()
	tenantStatus := cache.NewTenantStatus(cc, st.Tenants(), cfg.Cache.TenantTTL)

	var loginLimiter, forgotLimiter rate.Limiter
	if cfg.Rate.Enabled {
		if cfg.Rate.Backend == "redis" {
			loginLimiter = rate.NewRedisLimiter(rdb, cfg.Redis.Prefix+"rl:login:", cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
			forgotLimiter = rate.NewRedisLimiter(rdb, cfg.Redis.Prefix+"rl:forgot:", cfg.Rate.Forgot.Limit, cfg.Rate.Forgot.Window)
		} else {
			loginLimiter = rate.NewMemoryLimiter(cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
			forgotLimiter = rate.NewMemoryLimiter(cfg.Rate.Forgot.Limit, cfg.Rate.Forgot.Window)
		}
	}

	var sender email.Sender = email.LogSender{}
	if cfg.Email.Driver == "smtp" {
		sender = &email.SMTPSender{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.Username,
			Pass:               cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLSMode,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}
	}
	mailer := email.NewMailer(sender, cfg.Email.BaseURL)

	hasher, err := password.NewHasher(password.Default)
	if err != nil {
		return err
	}
	policy, err := passwordPolicy(cfg)
	if err != nil {
		return err
	}
	claimPolicy, err := tenantctx.ParsePolicy(cfg.Auth.TenantClaimPolicy)
	if err != nil {
		return err
	}

	if _, err := bootstrap.EnsurePlatformRole(ctx, st, cfg.Auth.PlatformRole); err != nil {
		return fmt.Errorf("platform role: %w", err)
	}

	issuer := jwtx.NewIssuer(cfg.JWT.Issuer, keys, cfg.JWT.AccessTTL)
	var refresh *tokens.RefreshService
	if cfg.JWT.RefreshEnabled {
		refresh = tokens.NewRefreshService(tokens.RefreshDeps{Store: st, TTL: cfg.JWT.RefreshTTL})
	}
	resets := tokens.NewResetService(tokens.ResetDeps{Store: st, TTL: cfg.Auth.ResetTTL, Notifier: mailer, Sessions: refresh})
	enforcer := tenancy.NewEnforcer(st)

	services := authsvc.Services{
		Login:   authsvc.NewLoginService(authsvc.LoginDeps{Store: st, Hasher: hasher, Issuer: issuer, Refresh: refresh}),
		Refresh: authsvc.NewRefreshService(authsvc.RefreshDeps{Issuer: issuer, Tokens: refresh}),
		Logout:  authsvc.NewLogoutService(refresh),
		Password: authsvc.NewPasswordService(authsvc.PasswordDeps{
			Resets: resets, Hasher: hasher, Policy: policy,
		}),
		Me: authsvc.NewMeService(st, enforcer),
		Register: authsvc.NewRegisterService(authsvc.RegisterDeps{
			Store: st, Hasher: hasher, Policy: policy,
			OwnerRole: cfg.Auth.OwnerRole, MemberRole: cfg.Auth.MemberRole,
			Welcome: mailer,
		}),
	}
	members := memberssvc.NewService(memberssvc.Deps{
		Enforcer: enforcer, Hasher: hasher, Policy: policy, MemberRole: cfg.Auth.MemberRole,
	})

	cookies := helpers.CookieConfig{
		AccessName:  cfg.Cookie.AccessName,
		RefreshName: cfg.Cookie.RefreshName,
		HTTPOnly:    cfg.Cookie.HTTPOnly,
		Secure:      cfg.Cookie.Secure,
		SameSite:    cfg.SameSite(),
		Path:        cfg.Cookie.Path,
		Domain:      cfg.Cookie.Domain,
	}

	proxies, err := helpers.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("server.trusted_proxies: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	handler := router.New(router.Deps{
		Auth:           authctrl.NewControllers(services, cookies),
		Members:        membersctrl.NewController(members, enforcer),
		Health:         healthctrl.NewController(keys, cfg.App.Version, checks),
		Verifier:       issuer.Verifier(),
		AccessCookie:   cfg.Cookie.AccessName,
		Tenant:         mw.TenantConfig{Policy: claimPolicy, Status: tenantStatus},
		LoginLimiter:   loginLimiter,
		ForgotLimiter:  forgotLimiter,
		TrustedProxies: proxies,
		ManagerRoles:   []string{cfg.Auth.OwnerRole, cfg.Auth.PlatformRole},
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", srv.Addr), zap.String("version", cfg.App.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		j := &tokens.Janitor{Store: st, Interval: cfg.Janitor.Interval, Grace: cfg.Janitor.Grace}
		return j.Run(logger.ToContext(gctx, logger.Named("janitor")))
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// passwordPolicy arma la política desde config; la blacklist es opcional.
func passwordPolicy(cfg *config.Config) (password.Policy, error) {
	p := password.DefaultPolicy
	p.MinLength = cfg.Auth.PasswordMinLength
	if path := cfg.Auth.PasswordBlacklistPath; path != "" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return p, fmt.Errorf("password blacklist: %w", err)
		}
		defer f.Close()
		bl, err := password.ReadBlacklist(f)
		if err != nil {
			return p, fmt.Errorf("password blacklist: %w", err)
		}
		p.Blacklist = bl
	}
	return p, nil
}
