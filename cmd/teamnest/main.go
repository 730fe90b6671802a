package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teamnest/teamnest/internal/bootstrap"
	"github.com/teamnest/teamnest/internal/config"
	jwtx "github.com/teamnest/teamnest/internal/jwt"
	"github.com/teamnest/teamnest/internal/security/password"
	"github.com/teamnest/teamnest/internal/store"
	_ "github.com/teamnest/teamnest/internal/store/memory"
	"github.com/teamnest/teamnest/internal/store/pg"
)

func main() {
	var (
		configPath = envOr("CONFIG_PATH", "")
		envFile    = ".env"
	)

	root := &cobra.Command{
		Use:           "teamnest",
		Short:         "Herramientas de operación de TeamNest",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				_ = godotenv.Load(filepath.Clean(envFile))
			}
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configPath, "YAML de configuración (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&envFile, "env-file", envFile, "archivo .env a cargar si existe")

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		keysCmd(loadConfig),
		migrateCmd(loadConfig),
		hashPasswordCmd(),
		bootstrapCmd(loadConfig),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		if errors.Is(err, jwtx.ErrKeyLoad) {
			os.Exit(1)
		}
		os.Exit(2)
	}
}

type configLoader func() (*config.Config, error)

// keys generate | kid
func keysCmd(load configLoader) *cobra.Command {
	keys := &cobra.Command{Use: "keys", Short: "Par RSA de firma"}

	var bits int
	var outDir string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Genera un par RSA nuevo (PEM) para JWT_PUBLIC_KEY / JWT_PRIVATE_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := jwtx.GenerateKeyPairPEM(bits)
			if err != nil {
				return err
			}
			kp, err := jwtx.LoadKeyPair(pub, priv)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if outDir == "" {
				fmt.Fprintln(out, pub)
				fmt.Fprintln(out, priv)
				fmt.Fprintf(out, "kid=%s\n", kp.KID())
				return nil
			}
			if err := os.MkdirAll(outDir, 0o700); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(outDir, "jwt_public.pem"), []byte(pub), 0o644); err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(outDir, "jwt_private.pem"), []byte(priv), 0o600); err != nil {
				return err
			}
			fmt.Fprintf(out, "keys written to %s (kid=%s)\n", outDir, kp.KID())
			return nil
		},
	}
	generate.Flags().IntVar(&bits, "bits", 2048, "tamaño de la clave (>= 2048)")
	generate.Flags().StringVar(&outDir, "out", "", "directorio destino (vacío = stdout)")

	var printJWKS bool
	kid := &cobra.Command{
		Use:   "kid",
		Short: "Muestra el kid (y opcionalmente el JWKS) del par configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			kp, err := jwtx.LoadKeyPair(cfg.JWT.PublicKey, cfg.JWT.PrivateKey)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !printJWKS {
				fmt.Fprintln(out, kp.KID())
				return nil
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(kp.JWKS())
		},
	}
	kid.Flags().BoolVar(&printJWKS, "jwks", false, "imprime el documento JWKS")

	keys.AddCommand(generate, kid)
	return keys
}

// migrate up | list
func migrateCmd(load configLoader) *cobra.Command {
	migrate := &cobra.Command{Use: "migrate", Short: "Migraciones PostgreSQL embebidas"}

	up := &cobra.Command{
		Use:   "up",
		Short: "Aplica las migraciones pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Storage.DSN == "" {
				return fmt.Errorf("storage.dsn requerido")
			}
			ctx := cmd.Context()
			s, err := pg.Open(ctx, store.Config{Driver: "postgres", DSN: cfg.Storage.DSN})
			if err != nil {
				return err
			}
			defer s.Close()
			res, err := s.Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied=%v skipped=%d took=%s\n", res.Applied, len(res.Skipped), res.Duration)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista las migraciones embebidas",
		RunE: func(cmd *cobra.Command, args []string) error {
			migs, err := pg.NewMigrator().Parse()
			if err != nil {
				return err
			}
			for _, m := range migs {
				fmt.Fprintf(cmd.OutOrStdout(), "%04d %s\n", m.Version, m.Name)
			}
			return nil
		},
	}

	migrate.AddCommand(up, list)
	return migrate
}

// hash-password lee la contraseña de stdin para no dejarla en el historial.
func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Imprime el hash argon2id (PHC) de la contraseña leída de stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 4096))
			if err != nil {
				return err
			}
			plain := strings.TrimRight(string(b), "\r\n")
			h, err := password.NewHasher(password.Default)
			if err != nil {
				return err
			}
			hash, err := h.Hash(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// bootstrap admin crea el admin de plataforma (sin tenant).
func bootstrapCmd(load configLoader) *cobra.Command {
	boot := &cobra.Command{Use: "bootstrap", Short: "Alta inicial"}

	var email, name string
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Crea el admin de plataforma con el rol configurado",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := store.Open(ctx, store.Config{
				Driver:  cfg.Storage.Driver,
				DSN:     cfg.Storage.DSN,
				Migrate: cfg.Storage.Migrate,
			})
			if err != nil {
				return err
			}
			defer st.Close()

			if email == "" {
				email = os.Getenv("ADMIN_EMAIL")
			}
			pass := os.Getenv("ADMIN_PASSWORD")
			if email == "" || pass == "" {
				email, pass, err = bootstrap.PromptAdminCredentials(os.Stdin, cmd.OutOrStdout())
				if err != nil {
					return err
				}
			}
			h, err := password.NewHasher(password.Default)
			if err != nil {
				return err
			}
			policy := password.DefaultPolicy
			policy.MinLength = cfg.Auth.PasswordMinLength

			u, err := bootstrap.CreatePlatformAdmin(ctx, bootstrap.AdminConfig{
				Store: st, Hasher: h, Policy: policy,
				Role: cfg.Auth.PlatformRole, Email: email, Name: name, Password: pass,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin created id=%s email=%s\n", u.ID, u.Email)
			return nil
		},
	}
	admin.Flags().StringVar(&email, "email", "", "email del admin (env ADMIN_EMAIL)")
	admin.Flags().StringVar(&name, "name", "Platform Admin", "nombre visible")

	boot.AddCommand(admin)
	return boot
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
