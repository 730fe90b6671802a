// Package config carga la configuración del servicio: defaults en código,
// luego el YAML (si hay), luego overrides de entorno y por último Validate.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env" env:"APP_ENV"`
		Name    string `yaml:"name" env:"APP_NAME"`
		Version string `yaml:"version" env:"APP_VERSION"`
	} `yaml:"app"`

	Log struct {
		Level string `yaml:"level" env:"LOG_LEVEL"`
	} `yaml:"log"`

	Server struct {
		Addr            string        `yaml:"addr" env:"SERVER_ADDR"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
		// CIDRs (o IPs) de proxies cuyos X-Forwarded-For se aceptan.
		TrustedProxies []string `yaml:"trusted_proxies" env:"SERVER_TRUSTED_PROXIES" envSeparator:","`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver          string        `yaml:"driver" env:"STORAGE_DRIVER"`
		DSN             string        `yaml:"dsn" env:"STORAGE_DSN"`
		MaxConns        int32         `yaml:"max_conns" env:"STORAGE_MAX_CONNS"`
		MinConns        int32         `yaml:"min_conns" env:"STORAGE_MIN_CONNS"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"STORAGE_CONN_MAX_LIFETIME"`
		Migrate         bool          `yaml:"migrate" env:"STORAGE_MIGRATE"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db" env:"REDIS_DB"`
		Prefix   string `yaml:"prefix" env:"REDIS_PREFIX"`
	} `yaml:"redis"`

	Cache struct {
		// memory | redis
		Kind string `yaml:"kind" env:"CACHE_KIND"`
		// TTL del estado de tenant cacheado.
		TenantTTL time.Duration `yaml:"tenant_ttl" env:"CACHE_TENANT_TTL"`
	} `yaml:"cache"`

	JWT struct {
		Issuer         string        `yaml:"issuer" env:"JWT_ISSUER"`
		AccessTTL      time.Duration `yaml:"access_ttl" env:"JWT_ACCESS_TTL"`
		RefreshTTL     time.Duration `yaml:"refresh_ttl" env:"JWT_REFRESH_TTL"`
		RefreshEnabled bool          `yaml:"refresh_enabled" env:"JWT_REFRESH_ENABLED"`
		// PEM (o base64) de la pública X.509 y privada PKCS#8.
		PublicKey      string `yaml:"public_key" env:"JWT_PUBLIC_KEY"`
		PrivateKey     string `yaml:"private_key" env:"JWT_PRIVATE_KEY"`
		PublicKeyFile  string `yaml:"public_key_file" env:"JWT_PUBLIC_KEY_FILE"`
		PrivateKeyFile string `yaml:"private_key_file" env:"JWT_PRIVATE_KEY_FILE"`
	} `yaml:"jwt"`

	Cookie struct {
		AccessName  string `yaml:"access_name" env:"COOKIE_ACCESS_NAME"`
		RefreshName string `yaml:"refresh_name" env:"COOKIE_REFRESH_NAME"`
		HTTPOnly    bool   `yaml:"http_only" env:"COOKIE_HTTP_ONLY"`
		Secure      bool   `yaml:"secure" env:"COOKIE_SECURE"`
		// Lax | Strict | None
		SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE"`
		Path     string `yaml:"path" env:"COOKIE_PATH"`
		Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	} `yaml:"cookie"`

	Auth struct {
		ResetTTL time.Duration `yaml:"reset_ttl" env:"AUTH_RESET_TTL"`
		// ignore | reject
		TenantClaimPolicy     string `yaml:"tenant_claim_policy" env:"AUTH_TENANT_CLAIM_POLICY"`
		PlatformRole          string `yaml:"platform_role" env:"AUTH_PLATFORM_ROLE"`
		OwnerRole             string `yaml:"owner_role" env:"AUTH_OWNER_ROLE"`
		MemberRole            string `yaml:"member_role" env:"AUTH_MEMBER_ROLE"`
		PasswordMinLength     int    `yaml:"password_min_length" env:"AUTH_PASSWORD_MIN_LENGTH"`
		PasswordBlacklistPath string `yaml:"password_blacklist_path" env:"AUTH_PASSWORD_BLACKLIST_PATH"`
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled" env:"RATE_ENABLED"`
		// memory | redis
		Backend string `yaml:"backend" env:"RATE_BACKEND"`
		Login   struct {
			Limit  int           `yaml:"limit" env:"RATE_LOGIN_LIMIT"`
			Window time.Duration `yaml:"window" env:"RATE_LOGIN_WINDOW"`
		} `yaml:"login"`
		Forgot struct {
			Limit  int           `yaml:"limit" env:"RATE_FORGOT_LIMIT"`
			Window time.Duration `yaml:"window" env:"RATE_FORGOT_WINDOW"`
		} `yaml:"forgot"`
	} `yaml:"rate"`

	Email struct {
		// smtp | log
		Driver  string `yaml:"driver" env:"EMAIL_DRIVER"`
		BaseURL string `yaml:"base_url" env:"EMAIL_BASE_URL"`
	} `yaml:"email"`

	SMTP struct {
		Host     string `yaml:"host" env:"SMTP_HOST"`
		Port     int    `yaml:"port" env:"SMTP_PORT"`
		Username string `yaml:"username" env:"SMTP_USERNAME"`
		Password string `yaml:"password" env:"SMTP_PASSWORD"`
		From     string `yaml:"from" env:"SMTP_FROM"`
		// auto | starttls | ssl | none
		TLSMode            string `yaml:"tls_mode" env:"SMTP_TLS_MODE"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify" env:"SMTP_INSECURE_SKIP_VERIFY"`
	} `yaml:"smtp"`

	Janitor struct {
		Interval time.Duration `yaml:"interval" env:"JANITOR_INTERVAL"`
		Grace    time.Duration `yaml:"grace" env:"JANITOR_GRACE"`
	} `yaml:"janitor"`
}

// Default retorna la configuración con defaults sanos para dev.
func Default() *Config {
	var c Config
	c.App.Env = "dev"
	c.App.Name = "teamnest"
	c.Log.Level = "info"

	c.Server.Addr = ":8080"
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second

	c.Storage.Driver = "memory"
	c.Storage.MaxConns = 10

	c.Redis.Addr = "localhost:6379"
	c.Redis.Prefix = "teamnest:"

	c.Cache.Kind = "memory"
	c.Cache.TenantTTL = time.Minute

	c.JWT.Issuer = "teamnest"
	c.JWT.AccessTTL = 15 * time.Minute
	c.JWT.RefreshTTL = 720 * time.Hour
	c.JWT.RefreshEnabled = true

	c.Cookie.AccessName = "access_token"
	c.Cookie.RefreshName = "refresh_token"
	c.Cookie.HTTPOnly = true
	c.Cookie.Secure = true
	c.Cookie.SameSite = "Lax"
	c.Cookie.Path = "/"

	c.Auth.ResetTTL = 15 * time.Minute
	c.Auth.TenantClaimPolicy = "ignore"
	c.Auth.PlatformRole = "PLATFORM_ADMIN"
	c.Auth.OwnerRole = "OWNER"
	c.Auth.MemberRole = "MEMBER"
	c.Auth.PasswordMinLength = 8

	c.Rate.Enabled = true
	c.Rate.Backend = "memory"
	c.Rate.Login.Limit = 10
	c.Rate.Login.Window = time.Minute
	c.Rate.Forgot.Limit = 5
	c.Rate.Forgot.Window = 15 * time.Minute

	c.Email.Driver = "log"
	c.Email.BaseURL = "http://localhost:3000"
	c.SMTP.Port = 587
	c.SMTP.TLSMode = "auto"

	c.Janitor.Interval = time.Hour
	c.Janitor.Grace = 24 * time.Hour
	return &c
}

// Load aplica defaults, el YAML en path (si path no es vacío) y los
// overrides de entorno. No valida: llamar Validate.
func Load(path string) (*Config, error) {
	c := Default()
	if strings.TrimSpace(path) != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	if err := c.resolveKeyFiles(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) resolveKeyFiles() error {
	if c.JWT.PublicKey == "" && c.JWT.PublicKeyFile != "" {
		b, err := os.ReadFile(filepath.Clean(c.JWT.PublicKeyFile))
		if err != nil {
			return fmt.Errorf("config: jwt public key file: %w", err)
		}
		c.JWT.PublicKey = string(b)
	}
	if c.JWT.PrivateKey == "" && c.JWT.PrivateKeyFile != "" {
		b, err := os.ReadFile(filepath.Clean(c.JWT.PrivateKeyFile))
		if err != nil {
			return fmt.Errorf("config: jwt private key file: %w", err)
		}
		c.JWT.PrivateKey = string(b)
	}
	return nil
}

// SameSite traduce Cookie.SameSite a http.SameSite.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(strings.TrimSpace(c.Cookie.SameSite)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Validate junta todos los problemas en un solo error.
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	for _, p := range c.Server.TrustedProxies {
		if !validProxy(p) {
			bad("server.trusted_proxies: %q is not an ip or cidr", p)
		}
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			bad("storage.dsn required for postgres")
		}
	default:
		bad("storage.driver %q: want postgres|memory", c.Storage.Driver)
	}
	if c.Cache.Kind != "memory" && c.Cache.Kind != "redis" {
		bad("cache.kind %q: want memory|redis", c.Cache.Kind)
	}
	if c.Rate.Backend != "memory" && c.Rate.Backend != "redis" {
		bad("rate.backend %q: want memory|redis", c.Rate.Backend)
	}
	if strings.TrimSpace(c.JWT.Issuer) == "" {
		bad("jwt.issuer required")
	}
	if c.JWT.PublicKey == "" || c.JWT.PrivateKey == "" {
		bad("jwt.public_key and jwt.private_key required")
	}
	for name, d := range map[string]time.Duration{
		"jwt.access_ttl":  c.JWT.AccessTTL,
		"jwt.refresh_ttl": c.JWT.RefreshTTL,
		"auth.reset_ttl":  c.Auth.ResetTTL,
	} {
		if d <= 0 {
			bad("%s must be > 0", name)
		}
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict":
	case "none":
		if !c.Cookie.Secure {
			bad("cookie.same_site=None requires cookie.secure=true")
		}
	default:
		bad("cookie.same_site %q: want Lax|Strict|None", c.Cookie.SameSite)
	}
	switch strings.ToLower(c.Auth.TenantClaimPolicy) {
	case "ignore", "reject":
	default:
		bad("auth.tenant_claim_policy %q: want ignore|reject", c.Auth.TenantClaimPolicy)
	}
	if c.Auth.PasswordMinLength < 8 {
		bad("auth.password_min_length must be >= 8")
	}
	if c.Email.Driver != "smtp" && c.Email.Driver != "log" {
		bad("email.driver %q: want smtp|log", c.Email.Driver)
	}
	if c.Email.Driver == "smtp" && (c.SMTP.Host == "" || c.SMTP.From == "") {
		bad("smtp.host and smtp.from required when email.driver=smtp")
	}
	if c.Rate.Enabled && (c.Rate.Login.Limit <= 0 || c.Rate.Forgot.Limit <= 0) {
		bad("rate limits must be > 0 when rate.enabled")
	}
	return errors.Join(errs...)
}

func validProxy(s string) bool {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}
	return net.ParseIP(s) != nil
}
