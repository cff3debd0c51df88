package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"logportal/config"
	"logportal/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"
)

// PoolOptions caps every connection pool the portal opens.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolOptions returns the pool limits used when none are configured.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Pools keeps one connection pool per distinct resolved connection URI.
// Pools are created lazily on first use and live until Close.
type Pools struct {
	mu     sync.Mutex
	pools  map[string]*sqlx.DB
	group  singleflight.Group
	opts   PoolOptions
	logger *zap.Logger
}

// NewPools creates an empty pool set.
func NewPools(opts PoolOptions, logger *zap.Logger) *Pools {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = DefaultPoolOptions().MaxOpenConns
	}
	if opts.MaxIdleConns <= 0 || opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = min(DefaultPoolOptions().MaxIdleConns, opts.MaxOpenConns)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pools{
		pools:  make(map[string]*sqlx.DB),
		opts:   opts,
		logger: logger,
	}
}

// Get returns the pool for uri, opening it on first use. Concurrent first
// callers for the same uri share one open.
func (p *Pools) Get(ctx context.Context, uri string) (*sqlx.DB, error) {
	if db, ok := p.lookup(uri); ok {
		return db, nil
	}

	v, err, _ := p.group.Do(uri, func() (any, error) {
		if db, ok := p.lookup(uri); ok {
			return db, nil
		}
		return p.open(uri)
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

func (p *Pools) lookup(uri string) (*sqlx.DB, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	db, ok := p.pools[uri]
	return db, ok
}

func (p *Pools) open(uri string) (*sqlx.DB, error) {
	driver, dsn, err := ParseConnection(uri)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, &DataAccessError{Op: "open", Err: fmt.Errorf("failed to create connection pool: %w", err)}
	}

	db.SetMaxOpenConns(p.opts.MaxOpenConns)
	db.SetMaxIdleConns(p.opts.MaxIdleConns)
	db.SetConnMaxLifetime(p.opts.ConnMaxLifetime)
	db.SetConnMaxIdleTime(p.opts.ConnMaxIdleTime)

	p.mu.Lock()
	p.pools[uri] = db
	p.mu.Unlock()
	metrics.PoolsOpen.Inc()

	p.logger.Info("Database pool created",
		zap.String("driver", driver),
		zap.String("uri", config.RedactURI(uri)),
		zap.Int("max_open_conns", p.opts.MaxOpenConns))
	return db, nil
}

// Len returns the number of open pools.
func (p *Pools) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

// Retain closes every pool whose URI is not in keep and returns how many
// were closed. Queries already running on a closed pool finish first.
func (p *Pools) Retain(keep map[string]bool) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	closed := 0
	for uri, db := range p.pools {
		if keep[uri] {
			continue
		}
		if err := db.Close(); err != nil {
			p.logger.Warn("Failed to close database pool", zap.String("uri", config.RedactURI(uri)), zap.Error(err))
		}
		delete(p.pools, uri)
		metrics.PoolsOpen.Dec()
		closed++
		p.logger.Info("Database pool released", zap.String("uri", config.RedactURI(uri)))
	}
	return closed
}

// Close closes every pool.
func (p *Pools) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for uri, db := range p.pools {
		if err := db.Close(); err != nil {
			p.logger.Warn("Failed to close database pool", zap.String("uri", config.RedactURI(uri)), zap.Error(err))
		}
		delete(p.pools, uri)
		metrics.PoolsOpen.Dec()
	}
	p.logger.Info("Database pools closed")
}
