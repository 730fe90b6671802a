// Package bootstrap prepara datos mínimos de plataforma: el rol de
// plataforma por defecto y, opcionalmente, el primer administrador.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/teamnest/teamnest/internal/domain/repository"
	"github.com/teamnest/teamnest/internal/observability/logger"
	"github.com/teamnest/teamnest/internal/security/password"
)

// EnsurePlatformRole crea el rol de plataforma name si no existe. Dos
// réplicas arrancando a la vez no fallan: el conflicto se resuelve releyendo.
func EnsurePlatformRole(ctx context.Context, st repository.Store, name string) (*repository.Role, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("EnsurePlatformRole"))

	r, err := st.Roles().FindByName(ctx, repository.Unscoped(), name, repository.ScopePlatform)
	if err == nil {
		return r, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("find platform role: %w", err)
	}

	r, err = repository.NewRole(name, repository.ScopePlatform, nil)
	if err != nil {
		return nil, err
	}
	if err := st.Roles().Create(ctx, r); err != nil {
		if repository.IsConflict(err) {
			return st.Roles().FindByName(ctx, repository.Unscoped(), name, repository.ScopePlatform)
		}
		return nil, fmt.Errorf("create platform role: %w", err)
	}
	log.Info("platform role created", logger.String("role", r.Name))
	return r, nil
}

// AdminConfig describe el administrador de plataforma a crear.
type AdminConfig struct {
	Store    repository.Store
	Hasher   *password.Hasher
	Policy   password.Policy
	Role     string
	Email    string
	Name     string
	Password string
}

// ErrAdminExists: ya hay un usuario con ese email.
var ErrAdminExists = errors.New("admin already exists")

// CreatePlatformAdmin crea un usuario sin tenant con el rol de plataforma.
func CreatePlatformAdmin(ctx context.Context, cfg AdminConfig) (*repository.User, error) {
	if ok, reasons := cfg.Policy.Validate(cfg.Password); !ok {
		return nil, fmt.Errorf("password: %s", strings.Join(reasons, ","))
	}
	if _, err := cfg.Store.Users().GetByEmail(ctx, repository.NormalizeEmail(cfg.Email)); err == nil {
		return nil, ErrAdminExists
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	hash, err := cfg.Hasher.Hash(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var admin *repository.User
	err = cfg.Store.InTx(ctx, func(tx repository.Store) error {
		role, err := EnsurePlatformRole(ctx, tx, cfg.Role)
		if err != nil {
			return err
		}
		name := cfg.Name
		if strings.TrimSpace(name) == "" {
			name = "Platform Admin"
		}
		admin, err = repository.NewPlatformUser(cfg.Email, name, hash, *role)
		if err != nil {
			return err
		}
		if err := tx.Users().Create(ctx, admin); err != nil {
			if repository.IsConflict(err) {
				return ErrAdminExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// PromptAdminCredentials pide email y contraseña por terminal. La contraseña
// se lee sin eco cuando stdin es una TTY.
func PromptAdminCredentials(in io.Reader, out io.Writer) (email, pass string, err error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Admin Email: ")
	email, err = reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", err
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return "", "", fmt.Errorf("invalid email")
	}

	readSecret := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out)
			return string(b), err
		}
		s, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(s, "\r\n"), nil
	}

	if pass, err = readSecret("Admin Password: "); err != nil {
		return "", "", err
	}
	confirm, err := readSecret("Confirm Password: ")
	if err != nil {
		return "", "", err
	}
	if pass != confirm {
		return "", "", fmt.Errorf("passwords do not match")
	}
	return email, pass, nil
}
