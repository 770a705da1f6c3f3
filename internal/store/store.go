// Package store is the query layer over decoded Copilot Money data. It
// decodes each collection at most once and serves filtered views from
// memory until the cache is invalidated.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dvloznov/copilot-ledger/internal/decoder"
	"github.com/dvloznov/copilot-ledger/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrDatabaseUnavailable is returned when the database directory is missing.
var ErrDatabaseUnavailable = errors.New("database not available")

// Source decodes collections from a database directory.
type Source interface {
	DecodeTransactions(dir string) ([]domain.Transaction, decoder.Report, error)
	DecodeAccounts(dir string) ([]domain.Account, decoder.Report, error)
}

// Database serves transactions, accounts and categories for one directory.
type Database struct {
	path   string
	source Source
	log    zerolog.Logger

	group singleflight.Group

	mu           sync.RWMutex
	generation   uint64
	transactions collection[domain.Transaction]
	accounts     collection[domain.Account]
}

type collection[T any] struct {
	items  []T
	loaded bool
}

// New creates a Database reading from path.
func New(path string, source Source, log zerolog.Logger) *Database {
	return &Database{path: path, source: source, log: log}
}

// Path returns the database directory.
func (db *Database) Path() string {
	return db.path
}

// IsAvailable reports whether the directory exists and holds table files.
func (db *Database) IsAvailable() bool {
	return decoder.HasTableFiles(db.path)
}

// Invalidate drops the cached collections. The next query decodes again.
func (db *Database) Invalidate() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.generation++
	db.transactions = collection[domain.Transaction]{}
	db.accounts = collection[domain.Account]{}
	db.log.Debug().Uint64("generation", db.generation).Msg("Cache invalidated")
}

// Warm decodes both collections if they are not cached yet and returns their sizes.
func (db *Database) Warm(ctx context.Context) (int, int, error) {
	txs, err := db.allTransactions(ctx)
	if err != nil {
		return 0, 0, err
	}
	accs, err := db.allAccounts(ctx)
	if err != nil {
		return 0, 0, err
	}
	return len(txs), len(accs), nil
}

func (db *Database) allTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return cached(ctx, db, "transactions", &db.transactions, db.source.DecodeTransactions)
}

func (db *Database) allAccounts(ctx context.Context) ([]domain.Account, error) {
	return cached(ctx, db, "accounts", &db.accounts, db.source.DecodeAccounts)
}

// cached returns the collection c, decoding it first if needed. Loads are
// shared per collection and generation, so a caller arriving after
// Invalidate never joins a decode that started before it. A decode that
// raced an Invalidate is returned to its callers but not kept.
func cached[T any](ctx context.Context, db *Database, key string, c *collection[T], decode func(string) ([]T, decoder.Report, error)) ([]T, error) {
	db.mu.RLock()
	items, ok, gen := c.items, c.loaded, db.generation
	db.mu.RUnlock()
	if ok {
		return items, nil
	}

	flight := key + "@" + strconv.FormatUint(gen, 10)
	v, err := db.load(ctx, key, flight, func() (any, error) {
		db.mu.RLock()
		items, ok := c.items, c.loaded
		db.mu.RUnlock()
		if ok {
			return items, nil
		}

		items, report, err := decode(db.path)
		if err != nil {
			return nil, err
		}
		db.log.Info().Str("collection", key).Uint64("generation", gen).Object("report", report).Msg("Decoded collection")

		db.mu.Lock()
		defer db.mu.Unlock()
		if db.generation == gen {
			c.items, c.loaded = items, true
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

// load runs fn at most once concurrently per flight. Callers that give up
// on ctx return early while the decode finishes for the others.
func (db *Database) load(ctx context.Context, key, flight string, fn func() (any, error)) (any, error) {
	ch := db.group.DoChan(flight, fn)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if errors.Is(res.Err, decoder.ErrDatabaseNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrDatabaseUnavailable, db.path)
			}
			return nil, fmt.Errorf("load %s: %w", key, res.Err)
		}
		return res.Val, nil
	}
}
