package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"oof-moments/internal/domain"
	"oof-moments/internal/logger"
	"oof-moments/internal/observability"
)

// FeedConfig configures WebSocket feed behavior.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// StaleAfter is how long a cached price stays authoritative.
	StaleAfter time.Duration
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		StaleAfter:        2 * time.Minute,
	}
}

// priceUpdate is one message from the price feed.
type priceUpdate struct {
	Chain        domain.Chain `json:"chain"`
	TokenAddress string       `json:"tokenAddress"`
	Price        float64      `json:"price"`
}

type cachedPrice struct {
	price float64
	seen  time.Time
}

// FeedCache wraps an Oracle with a WebSocket price feed. Fresh feed
// updates answer CurrentPrice without an HTTP round trip; everything else
// delegates to the wrapped oracle.
type FeedCache struct {
	inner    Oracle
	endpoint string
	config   FeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	cache   map[string]cachedPrice
	cacheMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup
}

// NewFeedCache connects to the feed endpoint and starts consuming updates.
func NewFeedCache(ctx context.Context, inner Oracle, endpoint string, config *FeedConfig) (*FeedCache, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &FeedCache{
		inner:    inner,
		endpoint: endpoint,
		config:   cfg,
		cache:    make(map[string]cachedPrice),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(1)
	go f.readLoop()

	f.wg.Add(1)
	go f.pingLoop()

	return f, nil
}

// Compile-time interface check.
var _ Oracle = (*FeedCache)(nil)

func (f *FeedCache) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.conn = conn
	return nil
}

// CurrentPrice returns the cached feed price when fresh, otherwise asks
// the wrapped oracle.
func (f *FeedCache) CurrentPrice(ctx context.Context, chain domain.Chain, tokenAddress string) (float64, error) {
	f.cacheMu.RLock()
	cached, ok := f.cache[cacheKey(chain, tokenAddress)]
	f.cacheMu.RUnlock()

	if ok && time.Since(cached.seen) < f.config.StaleAfter {
		observability.DefaultMetrics.PriceFeedCacheHits.Inc()
		return cached.price, nil
	}
	return f.inner.CurrentPrice(ctx, chain, tokenAddress)
}

// PeakPrice delegates to the wrapped oracle; the feed carries spot prices
// only.
func (f *FeedCache) PeakPrice(ctx context.Context, chain domain.Chain, tokenAddress string) (float64, error) {
	return f.inner.PeakPrice(ctx, chain, tokenAddress)
}

// TokenMetadata delegates to the wrapped oracle.
func (f *FeedCache) TokenMetadata(ctx context.Context, chain domain.Chain, tokenAddress string) (TokenMetadata, error) {
	return f.inner.TokenMetadata(ctx, chain, tokenAddress)
}

// Close closes the feed connection and stops background goroutines.
func (f *FeedCache) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	return nil
}

// readLoop reads price updates and refreshes the cache, reconnecting with
// exponential backoff on connection errors.
func (f *FeedCache) readLoop() {
	defer f.wg.Done()

	reconnectDelay := f.config.ReconnectDelay

	for !f.closed.Load() {
		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()

		if conn == nil {
			if !f.waitOrDone(100 * time.Millisecond) {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(f.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}

			if !f.waitOrDone(reconnectDelay) {
				return
			}
			reconnectDelay *= 2
			if reconnectDelay > f.config.MaxReconnectDelay {
				reconnectDelay = f.config.MaxReconnectDelay
			}
			f.reconnect()
			continue
		}

		// Reset delay on successful read.
		reconnectDelay = f.config.ReconnectDelay

		f.handleMessage(message)
	}
}

func (f *FeedCache) reconnect() {
	f.connMu.Lock()
	if f.conn != nil {
		f.conn.Close()
		f.conn = nil
	}
	f.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := f.connect(ctx); err != nil {
		logger.Warnw("price feed reconnect failed", "error", err)
	}
}

func (f *FeedCache) handleMessage(message []byte) {
	var update priceUpdate
	if err := json.Unmarshal(message, &update); err != nil {
		logger.Warnw("skipping malformed price feed message", "error", err)
		return
	}
	if !update.Chain.Valid() || update.TokenAddress == "" || update.Price < 0 {
		return
	}

	f.cacheMu.Lock()
	f.cache[cacheKey(update.Chain, update.TokenAddress)] = cachedPrice{
		price: update.Price,
		seen:  time.Now(),
	}
	f.cacheMu.Unlock()
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (f *FeedCache) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			conn := f.conn
			if conn != nil {
				conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					logger.Debugw("price feed ping failed", "error", err)
				}
			}
			f.connMu.Unlock()
		}
	}
}

// waitOrDone sleeps for d, returning false if the feed was closed first.
func (f *FeedCache) waitOrDone(d time.Duration) bool {
	select {
	case <-f.done:
		return false
	case <-time.After(d):
		return true
	}
}

func cacheKey(chain domain.Chain, token string) string {
	return string(chain) + "|" + token
}
