// Package yaml loads pagegraph configuration files using gopkg.in/yaml.v3.
package yaml

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/fwojciec/pagegraph"
	yamlv3 "gopkg.in/yaml.v3"
)

// Defaults applied to zero values.
const (
	DefaultMaxDepth     = 200
	DefaultMaxObjects   = 50000
	DefaultFetchTimeout = 10 * time.Second
	DefaultRateLimit    = 2.0
	DefaultRetries      = 3
	DefaultConcurrency  = 4
	DefaultRecycleAfter = 75
	DefaultServerAddr   = ":8080"
	DefaultMaxBodySize  = 10 * 1024 * 1024
)

// Config is the top-level pagegraph configuration.
type Config struct {
	Analyzer pagegraph.AnalyzerOptions `yaml:"analyzer"`
	Fetch    FetchConfig               `yaml:"fetch"`
	Database DatabaseConfig            `yaml:"database"`
	Server   ServerConfig              `yaml:"server"`
}

// FetchConfig controls how remote sources are retrieved.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	Browser      bool          `yaml:"browser"`
	Stealth      bool          `yaml:"stealth"`       // browser only
	RecycleAfter int           `yaml:"recycle_after"` // browser only, pages per browser process
	RateLimit    float64       `yaml:"rate_limit"`    // requests per second per host
	Retries      int           `yaml:"retries"`
	Concurrency  int           `yaml:"concurrency"`
	UserAgent    string        `yaml:"user_agent"`
}

// DatabaseConfig locates the graph store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxBodySize int64  `yaml:"max_body_size"` // bytes
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file. A missing file yields ENOTFOUND.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pagegraph.Errorf(pagegraph.ENOTFOUND, "config file not found: %s", path)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Load decodes configuration from r. Unknown keys are rejected.
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yamlv3.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, pagegraph.Errorf(pagegraph.EINVALID, "invalid config: %v", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Analyzer.MaxDepth < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "analyzer.max_depth must not be negative")
	case c.Analyzer.MaxObjects < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "analyzer.max_objects must not be negative")
	case c.Fetch.Timeout < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "fetch.timeout must not be negative")
	case c.Fetch.RateLimit < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "fetch.rate_limit must not be negative")
	case c.Fetch.Retries < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "fetch.retries must not be negative")
	case c.Fetch.RecycleAfter < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "fetch.recycle_after must not be negative")
	case c.Server.MaxBodySize < 0:
		return pagegraph.Errorf(pagegraph.EINVALID, "server.max_body_size must not be negative")
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Analyzer.MaxDepth == 0 {
		c.Analyzer.MaxDepth = DefaultMaxDepth
	}
	if c.Analyzer.MaxObjects == 0 {
		c.Analyzer.MaxObjects = DefaultMaxObjects
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.RateLimit == 0 {
		c.Fetch.RateLimit = DefaultRateLimit
	}
	if c.Fetch.Retries == 0 {
		c.Fetch.Retries = DefaultRetries
	}
	if c.Fetch.Concurrency <= 0 {
		c.Fetch.Concurrency = DefaultConcurrency
	}
	if c.Fetch.RecycleAfter == 0 {
		c.Fetch.RecycleAfter = DefaultRecycleAfter
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.MaxBodySize == 0 {
		c.Server.MaxBodySize = DefaultMaxBodySize
	}
}

// RetryDelays returns exponential backoff delays (1s, 2s, 4s, ...) for the
// configured number of retries.
func (c *Config) RetryDelays() []time.Duration {
	delays := make([]time.Duration, c.Fetch.Retries)
	d := time.Second
	for i := range delays {
		delays[i] = d
		d *= 2
	}
	return delays
}
