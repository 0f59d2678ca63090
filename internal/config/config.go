package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the civiccompass configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Auth    AuthConfig    `yaml:"auth"`
	Data    DataConfig    `yaml:"data"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DataConfig locates the corpus documents. Root is the site directory chunk paths resolve
// against; Dir is the directory of the index documents inside Root.
type DataConfig struct {
	Root       string `yaml:"root"`
	Dir        string `yaml:"dir"`
	Index      string `yaml:"index"`
	Concepts   string `yaml:"concepts"`
	Categories string `yaml:"categories"`
	Profile    string `yaml:"profile"`
	Terms      string `yaml:"terms"`
	Drawings   string `yaml:"drawings"`
}

// SearchConfig holds result sizes and scoring parallelism.
type SearchConfig struct {
	RenderCap         int    `yaml:"render_cap"`
	TopMatches        int    `yaml:"top_matches"`
	BrowsePerCategory int    `yaml:"browse_per_category"`
	ReaderPageSize    int    `yaml:"reader_page_size"`
	Workers           int    `yaml:"workers"`
	LocatesCategory   string `yaml:"locates_category"`
}

// CacheConfig holds the shared chunk cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, when present, seeds the environment first.
func Load(env string) (Config, error) {
	loadDotEnv(".env")
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Data.Root == "" {
		c.Data.Root = "."
	}
	if c.Data.Dir == "" {
		c.Data.Dir = "data"
	}
	if c.Data.Index == "" {
		c.Data.Index = "cross_corpus_index.json"
	}
	if c.Data.Concepts == "" {
		c.Data.Concepts = "concepts.json"
	}
	if c.Data.Categories == "" {
		c.Data.Categories = "categories.json"
	}
	if c.Data.Profile == "" {
		c.Data.Profile = "inspector_profile.json"
	}
	if c.Data.Terms == "" {
		c.Data.Terms = "inspector_terms.json"
	}
	if c.Data.Drawings == "" {
		c.Data.Drawings = "technical_drawings.json"
	}
	if c.Search.RenderCap <= 0 {
		c.Search.RenderCap = 500
	}
	if c.Search.TopMatches <= 0 {
		c.Search.TopMatches = 10
	}
	if c.Search.BrowsePerCategory <= 0 {
		c.Search.BrowsePerCategory = 25
	}
	if c.Search.ReaderPageSize <= 0 {
		c.Search.ReaderPageSize = 30
	}
	if c.Search.Workers <= 0 {
		c.Search.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Search.LocatesCategory == "" {
		c.Search.LocatesCategory = "cat-02"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "civiccompass:"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Cache.Driver {
	case "none":
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"none\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.Search.RenderCap < c.Search.TopMatches {
		return fmt.Errorf("search.render_cap (%d) must not be below search.top_matches (%d)",
			c.Search.RenderCap, c.Search.TopMatches)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

// loadDotEnv loads path into the environment without overriding variables already set.
func loadDotEnv(path string) {
	if fileExists(path) {
		_ = godotenv.Load(path)
	}
}
