// Package history serves daily price series with a two-level cache in front
// of a market data provider.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cartera-ar/cartera/internal/domain"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Provider supplies daily price series, oldest first.
type Provider interface {
	GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.HistoricalPrice, error)
}

// CachedProvider wraps a Provider with an in-process TTL cache and a
// persistent SQLite cache. Series are keyed by symbol and calendar range, so
// requests made on the same day share entries.
type CachedProvider struct {
	upstream Provider
	hot      *cache.Cache
	cacheDB  *sql.DB
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewCachedProvider creates a cached provider. cacheDB may be nil to keep
// only the in-process cache.
func NewCachedProvider(upstream Provider, cacheDB *sql.DB, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &CachedProvider{
		upstream: upstream,
		hot:      cache.New(ttl, ttl),
		cacheDB:  cacheDB,
		ttl:      ttl,
		now:      time.Now,
		log:      log.With().Str("component", "history_cache").Logger(),
	}
}

func rangeKey(from, to time.Time) string {
	return from.UTC().Format("2006-01-02") + ":" + to.UTC().Format("2006-01-02")
}

// GetHistoricalPrices returns the cached series or fetches it from upstream.
func (p *CachedProvider) GetHistoricalPrices(ctx context.Context, symbol string, from, to time.Time) ([]domain.HistoricalPrice, error) {
	key := rangeKey(from, to)
	hotKey := symbol + "|" + key

	if v, ok := p.hot.Get(hotKey); ok {
		return v.([]domain.HistoricalPrice), nil
	}

	if prices, ok := p.loadPersisted(ctx, symbol, key); ok {
		p.hot.SetDefault(hotKey, prices)
		return prices, nil
	}

	prices, err := p.upstream.GetHistoricalPrices(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	p.hot.SetDefault(hotKey, prices)
	if err := p.persist(ctx, symbol, key, prices); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to persist series")
	}
	return prices, nil
}

func (p *CachedProvider) loadPersisted(ctx context.Context, symbol, key string) ([]domain.HistoricalPrice, bool) {
	if p.cacheDB == nil {
		return nil, false
	}

	var (
		payload   []byte
		fetchedAt int64
	)
	err := p.cacheDB.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM history_cache WHERE symbol = ? AND range_key = ?`,
		symbol, key,
	).Scan(&payload, &fetchedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			p.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to read series cache")
		}
		return nil, false
	}
	if p.now().Sub(time.Unix(fetchedAt, 0)) > p.ttl {
		return nil, false
	}

	var prices []domain.HistoricalPrice
	if err := msgpack.Unmarshal(payload, &prices); err != nil {
		p.log.Warn().Err(err).Str("symbol", symbol).Msg("Corrupt series cache entry")
		return nil, false
	}
	return prices, true
}

func (p *CachedProvider) persist(ctx context.Context, symbol, key string, prices []domain.HistoricalPrice) error {
	if p.cacheDB == nil {
		return nil
	}

	payload, err := msgpack.Marshal(prices)
	if err != nil {
		return fmt.Errorf("failed to encode series: %w", err)
	}

	_, err = p.cacheDB.ExecContext(ctx, `
		INSERT INTO history_cache (symbol, range_key, payload, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, range_key) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at`,
		symbol, key, payload, p.now().Unix(),
	)
	return err
}

// Prune deletes persisted entries older than the TTL and returns how many
// were removed.
func (p *CachedProvider) Prune(ctx context.Context) (int64, error) {
	if p.cacheDB == nil {
		return 0, nil
	}
	cutoff := p.now().Add(-p.ttl).Unix()
	res, err := p.cacheDB.ExecContext(ctx, `DELETE FROM history_cache WHERE fetched_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune series cache: %w", err)
	}
	return res.RowsAffected()
}
