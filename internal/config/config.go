// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backends accepted in SKILLUPX_BACKEND.
const (
	BackendDocker = "docker"
	BackendJudge0 = "judge0"
	BackendWasm   = "wasm"
	BackendNone   = "none"
)

type Config struct {
	Addr     string
	LogLevel slog.Level

	Backend        string
	Judge0URL      string
	Judge0Token    string
	DockerPull     bool
	WasmPython     string
	WasmJavaScript string

	RedisAddr string
	CacheTTL  time.Duration

	DatabaseURL string
	Catalog     string

	RateLimit float64
	RateBurst int

	TimeLimit      time.Duration
	MemoryLimitKB  int
	MaxSourceBytes int
	Concurrency    int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:           ":8080",
		LogLevel:       slog.LevelInfo,
		Backend:        BackendDocker,
		CacheTTL:       24 * time.Hour,
		RateLimit:      5,
		RateBurst:      10,
		TimeLimit:      5 * time.Second,
		MemoryLimitKB:  256 * 1024,
		MaxSourceBytes: 64 * 1024,
		Concurrency:    4,
	}
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. Variables already set in the environment win over the files.
// A missing file is not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Every invalid value is reported.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()
	p := parser{getenv: getenv}

	p.str("SKILLUPX_ADDR", &cfg.Addr)
	p.level("SKILLUPX_LOG_LEVEL", &cfg.LogLevel)
	p.str("SKILLUPX_BACKEND", &cfg.Backend)
	p.str("SKILLUPX_JUDGE0_URL", &cfg.Judge0URL)
	p.str("SKILLUPX_JUDGE0_TOKEN", &cfg.Judge0Token)
	p.boolean("SKILLUPX_DOCKER_PULL", &cfg.DockerPull)
	p.str("SKILLUPX_WASM_PYTHON", &cfg.WasmPython)
	p.str("SKILLUPX_WASM_JAVASCRIPT", &cfg.WasmJavaScript)
	p.str("SKILLUPX_REDIS_ADDR", &cfg.RedisAddr)
	p.duration("SKILLUPX_CACHE_TTL", &cfg.CacheTTL)
	p.str("DATABASE_URL", &cfg.DatabaseURL)
	p.str("SKILLUPX_CATALOG", &cfg.Catalog)
	p.float("SKILLUPX_RATE_LIMIT", &cfg.RateLimit)
	p.integer("SKILLUPX_RATE_BURST", &cfg.RateBurst)
	p.duration("SKILLUPX_TIME_LIMIT", &cfg.TimeLimit)
	p.integer("SKILLUPX_MEMORY_LIMIT_KB", &cfg.MemoryLimitKB)
	p.integer("SKILLUPX_MAX_SOURCE_BYTES", &cfg.MaxSourceBytes)
	p.integer("SKILLUPX_CONCURRENCY", &cfg.Concurrency)

	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	cfg.Backend = strings.ToLower(cfg.Backend)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendDocker, BackendWasm, BackendNone:
	case BackendJudge0:
		if c.Judge0URL == "" {
			errs = append(errs, errors.New("SKILLUPX_JUDGE0_URL is required for the judge0 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.TimeLimit <= 0 {
		errs = append(errs, errors.New("time limit must be positive"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	if c.MaxSourceBytes < 1 {
		errs = append(errs, errors.New("max source bytes must be at least 1"))
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		errs = append(errs, errors.New("rate limit and burst must not be negative"))
	}
	return errors.Join(errs...)
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) lookup(key string) (string, bool) {
	v := strings.TrimSpace(p.getenv(key))
	return v, v != ""
}

func (p *parser) fail(key, value string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, value, err))
}

func (p *parser) str(key string, dst *string) {
	if v, ok := p.lookup(key); ok {
		*dst = v
	}
}

func (p *parser) integer(key string, dst *int) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = n
}

func (p *parser) float(key string, dst *float64) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = f
}

func (p *parser) boolean(key string, dst *bool) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = b
}

func (p *parser) duration(key string, dst *time.Duration) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return
	}
	*dst = d
}

func (p *parser) level(key string, dst *slog.Level) {
	v, ok := p.lookup(key)
	if !ok {
		return
	}
	if err := dst.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, err)
	}
}
