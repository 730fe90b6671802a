// Package store abre el backend de persistencia configurado.
//
// Cada adapter (pg, memory) se registra en init(); cmd/service importa los
// adapters que quiere habilitar y llama Open con storage.driver.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/teamnest/teamnest/internal/domain/repository"
)

// Adapter construye un repository.Store para un driver.
type Adapter interface {
	// Name retorna el nombre del driver ("postgres", "memory").
	Name() string
	// Connect abre el backend.
	Connect(ctx context.Context, cfg Config) (repository.Store, error)
}

// Config es la configuración común de los adapters.
type Config struct {
	Driver string
	DSN    string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration

	// Migrate aplica las migraciones embebidas al conectar.
	Migrate bool

	// Now reemplaza el reloj (solo memory, tests).
	Now func() time.Time
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("store: adapter %q already registered", name))
	}
	adapters[name] = a
}

// Drivers lista los adapters registrados.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(adapters))
	for n := range adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Open conecta con el adapter cfg.Driver.
func Open(ctx context.Context, cfg Config) (repository.Store, error) {
	registryMu.RLock()
	a, ok := adapters[cfg.Driver]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("store: driver %q not registered (have %v)", cfg.Driver, Drivers())
	}
	return a.Connect(ctx, cfg)
}
