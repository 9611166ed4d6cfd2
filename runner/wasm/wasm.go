// Package wasm runs submissions inside WASI interpreter modules (a Python or
// QuickJS build) using the wazero runtime. Nothing leaves the process: the
// guest sees only stdin, stdout and stderr.
package wasm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/skillupx/skillupx/runner"
)

// Interpreter is a WASI module that runs source passed on its command line.
type Interpreter struct {
	Path string
	Args func(source string) []string
}

// DefaultArgs builds interpreter command lines for the built-in languages.
var DefaultArgs = map[string]func(source string) []string{
	"python": func(source string) []string {
		return []string{"python", "-c", source}
	},
	"javascript": func(source string) []string {
		return []string{"qjs", "--std", "-e", source}
	},
}

// Runner is a runner.Runner that executes interpreter modules in-process.
type Runner struct {
	runtime      wazero.Runtime
	cache        wazero.CompilationCache
	interpreters map[string]Interpreter
	compiled     map[string]wazero.CompiledModule
	mu           sync.RWMutex
	closed       bool
}

var _ runner.Runner = (*Runner)(nil)

// New creates a Runner. Interpreter modules are read from disk on first use
// unless WithPrecompile is given.
func New(opts ...Option) (*Runner, error) {
	cfg := config{interpreters: make(map[string]Interpreter)}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx := context.Background()

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		if cache != nil {
			cache.Close(ctx)
		}
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	r := &Runner{
		runtime:      rt,
		cache:        cache,
		interpreters: cfg.interpreters,
		compiled:     make(map[string]wazero.CompiledModule),
	}

	if cfg.precompile {
		for lang := range cfg.interpreters {
			if _, err := r.getCompiled(ctx, lang); err != nil {
				r.Close()
				return nil, fmt.Errorf("precompile %s: %w", lang, err)
			}
		}
	}

	return r, nil
}

// Name returns "wasm".
func (r *Runner) Name() string {
	return "wasm"
}

// Languages lists the languages with a registered interpreter.
func (r *Runner) Languages() []string {
	out := make([]string, 0, len(r.interpreters))
	for lang := range r.interpreters {
		out = append(out, lang)
	}
	return out
}

// Run executes sub with its language's interpreter under the submission's
// time limit.
func (r *Runner) Run(ctx context.Context, sub runner.Submission) (runner.Result, error) {
	interp, ok := r.interpreters[sub.Language]
	if !ok {
		return runner.Result{}, fmt.Errorf("%w: %q", runner.ErrUnsupportedLanguage, sub.Language)
	}

	limit := sub.Limit()
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	start := time.Now()
	compiled, err := r.getCompiled(ctx, sub.Language)
	if err != nil {
		return runner.Result{}, err
	}

	args := []string{sub.Language, sub.Source}
	if interp.Args != nil {
		args = interp.Args(sub.Source)
	}

	var stdout, stderr bytes.Buffer
	moduleConfig := wazero.NewModuleConfig().
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithStdin(strings.NewReader(sub.Stdin)).
		WithArgs(args...).
		WithSysWalltime().
		WithSysNanotime().
		WithName("")

	mod, err := r.runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if mod != nil {
		mod.Close(context.Background())
	}

	res := runner.Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
		Time:   time.Since(start),
		Status: runner.StatusAccepted,
	}
	if err == nil {
		return res, nil
	}

	var exitErr *sys.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Status = runner.StatusTimeLimitExceeded
		res.Message = fmt.Sprintf("timeout after %v", limit)
	case errors.As(err, &exitErr):
		res.ExitCode = int(exitErr.ExitCode())
		res.Status = runner.StatusFromExitCode(res.ExitCode)
	case ctx.Err() != nil:
		return runner.Result{}, fmt.Errorf("wasm: %w", ctx.Err())
	default:
		res.Status = runner.StatusRuntimeOther
		res.Message = err.Error()
	}
	return res, nil
}

// getCompiled returns a cached compiled module, compiling if necessary.
func (r *Runner) getCompiled(ctx context.Context, lang string) (wazero.CompiledModule, error) {
	r.mu.RLock()
	if compiled, ok := r.compiled[lang]; ok {
		r.mu.RUnlock()
		return compiled, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.New("wasm: runner closed")
	}
	if compiled, ok := r.compiled[lang]; ok {
		return compiled, nil
	}

	bin, err := os.ReadFile(r.interpreters[lang].Path)
	if err != nil {
		return nil, fmt.Errorf("read %s interpreter: %w", lang, err)
	}
	compiled, err := r.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", lang, err)
	}

	r.compiled[lang] = compiled
	return compiled, nil
}

// Close releases all resources held by the Runner.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	ctx := context.Background()

	var errs []error
	if err := r.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if r.cache != nil {
		if err := r.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "skillupx")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "skillupx")
	}
	return filepath.Join(os.TempDir(), "skillupx-cache")
}
