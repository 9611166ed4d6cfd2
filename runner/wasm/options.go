package wasm

// Option configures a Runner at creation time.
type Option func(*config)

type config struct {
	diskCache        bool
	cacheDir         string
	interpreters     map[string]Interpreter
	precompile       bool
	memoryLimitPages uint32 // Max memory pages (each page = 64KB), 0 = wazero default (4GB)
}

// WithInterpreter registers a WASI interpreter module for a language using
// the default command line for that language.
func WithInterpreter(language, path string) Option {
	return func(c *config) {
		c.interpreters[language] = Interpreter{Path: path, Args: DefaultArgs[language]}
	}
}

// WithInterpreterArgs registers a module with a custom command line builder.
func WithInterpreterArgs(language, path string, args func(source string) []string) Option {
	return func(c *config) {
		c.interpreters[language] = Interpreter{Path: path, Args: args}
	}
}

// WithDiskCache enables a persistent compilation cache. Without a directory
// it uses XDG_CACHE_HOME/skillupx or ~/.cache/skillupx.
func WithDiskCache(dir ...string) Option {
	return func(c *config) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithPrecompile compiles every registered interpreter in New instead of on
// first use.
func WithPrecompile() Option {
	return func(c *config) {
		c.precompile = true
	}
}

// WithMemoryLimit caps guest memory. Each page is 64KB:
//   - WithMemoryLimit(MemoryLimit64MB) = 64MB max
//   - WithMemoryLimit(MemoryLimit256MB) = 256MB max
//
// Default is 0 (no limit, up to 4GB).
func WithMemoryLimit(pages uint32) Option {
	return func(c *config) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit16MB  uint32 = 256
	MemoryLimit64MB  uint32 = 1024
	MemoryLimit256MB uint32 = 4096
	MemoryLimit1GB   uint32 = 16384
)

// PagesForKB converts a kilobyte budget to whole 64KB pages, rounding up.
func PagesForKB(kb int) uint32 {
	if kb <= 0 {
		return 0
	}
	return uint32((kb + 63) / 64)
}
