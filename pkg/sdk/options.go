package civiccompass

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	root    string
	dataDir string

	redisAddrs []string
	password   string
	cacheTTL   time.Duration
	keyPrefix  string

	workers   int
	renderCap int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRoot sets the site directory that chunk paths resolve against. Default: ".".
func WithRoot(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.root = dir
	})
}

// WithDataDir sets the directory of the index documents inside the root. Default: "data".
func WithDataDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dataDir = dir
	})
}

// WithRedis shares decoded chunk files through a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddrs = []string{addr}
		c.password = password
	})
}

// WithCacheTTL sets how long chunk files live in the shared store. Default: 1h.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithKeyPrefix namespaces shared store keys. Default: "civiccompass:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithWorkers scores large corpora on n goroutines. Default: 1.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithRenderCap limits how many ranked hits a search returns. Default: 500.
func WithRenderCap(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.renderCap = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
