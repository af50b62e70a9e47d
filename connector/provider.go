package connector

import (
	"context"
	"fmt"
	"sync"

	"github.com/Konsultn-Engineering/morph/database"
	"github.com/Konsultn-Engineering/morph/dialect"
)

// Connection is an established database handle plus its dialect.
type Connection interface {
	DB() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() Stats
	Close() error
}

// Provider connects to one database family.
type Provider interface {
	Connect(ctx context.Context, cfg Config) (Connection, error)
	Dialect() dialect.Dialect
}

var (
	providersMu sync.RWMutex
	providers   = map[string]Provider{}
)

// RegisterProvider makes a provider available to New. Called from provider
// init functions.
func RegisterProvider(name string, p Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = p
}

// New connects using the named provider ("postgres", ...).
func New(ctx context.Context, name string, cfg Config) (Connection, error) {
	providersMu.RLock()
	p, ok := providers[name]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("connector: unknown provider %q", name)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if cfg.Retry != nil {
		return connectWithRetry(ctx, *cfg.Retry, func(ctx context.Context) (Connection, error) {
			return p.Connect(ctx, cfg)
		})
	}
	return p.Connect(ctx, cfg)
}
