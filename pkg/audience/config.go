package audience

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	core "github.com/goliatone/go-audience/components/audience"
)

// Config is the on-disk configuration of an audience server.
type Config struct {
	Address    string          `yaml:"address"`
	BasePath   string          `yaml:"base_path"`
	Locale     string          `yaml:"locale"`
	SessionTTL time.Duration   `yaml:"session_ttl"`
	Estimator  EstimatorConfig `yaml:"estimator"`
	Catalog    string          `yaml:"catalog"`
}

// EstimatorConfig bounds the mock estimator.
type EstimatorConfig struct {
	Min      int           `yaml:"min"`
	Span     int           `yaml:"span"`
	Seed     uint64        `yaml:"seed"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Address:    ":9876",
		BasePath:   "/api",
		Locale:     core.DefaultLocale,
		SessionTTL: 30 * time.Minute,
		Estimator: EstimatorConfig{
			Min:      10000,
			Span:     500000,
			CacheTTL: time.Minute,
		},
	}
}

// LoadConfig reads a YAML config file over DefaultConfig. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("audience: open config %s: %w", path, err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig reads YAML from r over DefaultConfig.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("audience: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New("audience: config address is required")
	}
	if c.SessionTTL < 0 {
		return errors.New("audience: config session_ttl must not be negative")
	}
	if c.Estimator.Min < 0 || c.Estimator.Span < 0 {
		return errors.New("audience: config estimator bounds must not be negative")
	}
	return nil
}

// Options builds service options from the config, loading the event catalog
// when one is configured.
func (c Config) Options(telemetry core.Telemetry) (Options, error) {
	var estimator core.Estimator = core.NewRandomEstimator(c.Estimator.Min, c.Estimator.Span, c.Estimator.Seed)
	if c.Estimator.CacheTTL > 0 {
		estimator = core.NewCachedEstimator(estimator, c.Estimator.CacheTTL)
	}
	opts := Options{
		Sessions:  core.NewCacheSessionStore(c.SessionTTL, 0),
		Estimator: estimator,
		Telemetry: telemetry,
		Locale:    c.Locale,
	}
	if c.Catalog != "" {
		catalog, err := core.ReadEventCatalog(c.Catalog)
		if err != nil {
			return Options{}, err
		}
		opts.Catalog = catalog
	}
	return opts, nil
}
