// Package docker runs submissions in throwaway Docker containers.
package docker

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/skillupx/skillupx/runner"
)

// compileFailed is the exit code the container script uses when the compile
// step fails.
const compileFailed = 97

// timedOut is the exit code of coreutils timeout when the run step exceeds
// its limit. BusyBox timeout reports the signal instead (143 or 137).
const timedOut = 124

const sourceEnv = "SKILLUPX_SOURCE"

// Toolchain describes how one language is built and run inside a container.
type Toolchain struct {
	Image   string
	File    string
	Compile string
	Run     string
}

// DefaultToolchains covers every built-in language.
var DefaultToolchains = map[string]Toolchain{
	"python": {
		Image: "python:3.12-alpine",
		File:  "main.py",
		Run:   "python3 main.py",
	},
	"javascript": {
		Image: "node:20-alpine",
		File:  "main.js",
		Run:   "node main.js",
	},
	"java": {
		Image:   "eclipse-temurin:21-jdk-alpine",
		File:    "Main.java",
		Compile: "javac -encoding UTF-8 Main.java",
		Run:     "java -Xss64m -cp . Main",
	},
	"cpp": {
		Image:   "gcc:13",
		File:    "main.cpp",
		Compile: "g++ -O2 -std=gnu++17 -o main main.cpp",
		Run:     "./main",
	},
}

// Runner is a runner.Runner that starts one container per submission.
type Runner struct {
	cli        *client.Client
	toolchains map[string]Toolchain
	pull       bool
	memory     int64
	nanoCPUs   int64
	pids       int64
	grace      time.Duration
	logger     *slog.Logger

	mu     sync.Mutex
	pulled map[string]bool
}

var _ runner.Runner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithPull pulls each image before its first use.
func WithPull(pull bool) Option {
	return func(r *Runner) {
		r.pull = pull
	}
}

// WithToolchain adds or replaces the toolchain for a language.
func WithToolchain(language string, tc Toolchain) Option {
	return func(r *Runner) {
		r.toolchains[language] = tc
	}
}

// WithMemoryLimit sets the default container memory limit in bytes.
func WithMemoryLimit(bytes int64) Option {
	return func(r *Runner) {
		r.memory = bytes
	}
}

// WithCPUs limits each container to the given number of CPUs.
func WithCPUs(cpus float64) Option {
	return func(r *Runner) {
		r.nanoCPUs = int64(cpus * 1e9)
	}
}

// WithCompileGrace sets how long container start-up and compilation may take
// on top of the run limit. The run step itself is bounded inside the
// container by the submission's limit.
func WithCompileGrace(d time.Duration) Option {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New connects to the Docker daemon described by the environment and checks
// that it answers.
func New(ctx context.Context, opts ...Option) (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("docker: create client: %w", err)
	}
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker: ping daemon: %w", err)
	}

	r := &Runner{
		cli:        cli,
		toolchains: make(map[string]Toolchain, len(DefaultToolchains)),
		memory:     256 << 20,
		nanoCPUs:   1e9,
		pids:       64,
		grace:      10 * time.Second,
		logger:     slog.Default(),
		pulled:     make(map[string]bool),
	}
	for lang, tc := range DefaultToolchains {
		r.toolchains[lang] = tc
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name returns "docker".
func (r *Runner) Name() string {
	return "docker"
}

// Close releases the Docker client.
func (r *Runner) Close() error {
	return r.cli.Close()
}

// Run executes sub in a fresh container and removes it afterwards.
func (r *Runner) Run(ctx context.Context, sub runner.Submission) (runner.Result, error) {
	tc, ok := r.toolchains[sub.Language]
	if !ok {
		return runner.Result{}, fmt.Errorf("%w: %q", runner.ErrUnsupportedLanguage, sub.Language)
	}
	if err := r.ensureImage(ctx, tc.Image); err != nil {
		return runner.Result{}, err
	}

	memory := r.memory
	if sub.MemoryLimitKB > 0 {
		memory = int64(sub.MemoryLimitKB) << 10
	}
	pids := r.pids

	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:           tc.Image,
		Cmd:             []string{"sh", "-c", Script(tc, sub.Limit())},
		Env:             []string{sourceEnv + "=" + base64.StdEncoding.EncodeToString([]byte(sub.Source))},
		WorkingDir:      "/tmp",
		AttachStdin:     true,
		AttachStdout:    true,
		AttachStderr:    true,
		OpenStdin:       true,
		StdinOnce:       true,
		Tty:             false,
		NetworkDisabled: true,
	}, &container.HostConfig{
		Resources: container.Resources{
			Memory:    memory,
			NanoCPUs:  r.nanoCPUs,
			PidsLimit: &pids,
		},
	}, nil, nil, "")
	if err != nil {
		return runner.Result{}, fmt.Errorf("docker: create container: %w", err)
	}
	id := resp.ID
	defer func() {
		// The run context may already be done; cleanup gets its own.
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.cli.ContainerRemove(rmCtx, id, container.RemoveOptions{Force: true}); err != nil {
			r.logger.Warn("failed to remove container", "container", id, "err", err)
		}
	}()

	attach, err := r.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return runner.Result{}, fmt.Errorf("docker: attach: %w", err)
	}
	defer attach.Close()

	runCtx, cancel := context.WithTimeout(ctx, sub.Limit()+r.grace)
	defer cancel()

	start := time.Now()
	if err := r.cli.ContainerStart(runCtx, id, container.StartOptions{}); err != nil {
		return runner.Result{}, fmt.Errorf("docker: start: %w", err)
	}

	go func() {
		_, _ = io.WriteString(attach.Conn, sub.Stdin)
		_ = attach.CloseWrite()
	}()

	var stdout, stderr bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader)
		copied <- err
	}()

	statusCh, errCh := r.cli.ContainerWait(runCtx, id, container.WaitConditionNotRunning)
	var exitCode int64
	select {
	case st := <-statusCh:
		exitCode = st.StatusCode
	case err := <-errCh:
		if runCtx.Err() == nil {
			return runner.Result{}, fmt.Errorf("docker: wait: %w", err)
		}
		return r.timeout(ctx, id, start)
	case <-runCtx.Done():
		return r.timeout(ctx, id, start)
	}
	elapsed := time.Since(start)

	select {
	case <-copied:
	case <-time.After(2 * time.Second):
		r.logger.Warn("output stream did not close", "container", id)
		attach.Close()
		<-copied
	}

	res := runner.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: int(exitCode),
		Time:     elapsed,
		Status:   ExitStatus(tc, int(exitCode)),
	}
	if killedAfterLimit(int(exitCode), elapsed, sub.Limit()) {
		res.Status = runner.StatusTimeLimitExceeded
	}
	if res.Status == runner.StatusTimeLimitExceeded {
		res.Message = "time limit exceeded"
	}
	if res.Status == runner.StatusCompilationError {
		res.CompileOutput = res.Stderr + res.Stdout
	}
	if res.Status != runner.StatusAccepted {
		if info, err := r.cli.ContainerInspect(ctx, id); err == nil && info.ContainerJSONBase != nil && info.State != nil && info.State.OOMKilled {
			res.Status = runner.StatusRuntimeOther
			res.Message = "memory limit exceeded"
		}
	}
	return res, nil
}

// timeout kills the container. A cancelled parent context is reported as an
// error rather than a verdict.
func (r *Runner) timeout(ctx context.Context, id string, start time.Time) (runner.Result, error) {
	killCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.cli.ContainerKill(killCtx, id, "KILL"); err != nil {
		r.logger.Debug("kill after timeout", "container", id, "err", err)
	}
	if err := ctx.Err(); err != nil {
		return runner.Result{}, fmt.Errorf("docker: %w", err)
	}
	return runner.Result{
		Status:  runner.StatusTimeLimitExceeded,
		Message: "time limit exceeded",
		Time:    time.Since(start),
	}, nil
}

func (r *Runner) ensureImage(ctx context.Context, ref string) error {
	if !r.pull {
		return nil
	}
	r.mu.Lock()
	done := r.pulled[ref]
	r.mu.Unlock()
	if done {
		return nil
	}

	r.logger.Info("pulling image", "image", ref)
	rc, err := r.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("docker: pull %s: %w", ref, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("docker: pull %s: %w", ref, err)
	}

	r.mu.Lock()
	r.pulled[ref] = true
	r.mu.Unlock()
	return nil
}

// Script builds the shell command run inside the container. The source
// arrives base64-encoded in the environment so no quoting is needed. Only the
// run step is bounded by limit; compilation is not.
func Script(tc Toolchain, limit time.Duration) string {
	s := fmt.Sprintf(`printf '%%s' "$%s" | base64 -d > %s`, sourceEnv, tc.File)
	if tc.Compile != "" {
		s += " && { " + tc.Compile + " || exit " + strconv.Itoa(compileFailed) + "; }"
	}
	return s + " && exec timeout " + seconds(limit) + " " + tc.Run
}

// ExitStatus maps a container exit code to a verdict.
func ExitStatus(tc Toolchain, code int) runner.Status {
	switch {
	case code == compileFailed && tc.Compile != "":
		return runner.StatusCompilationError
	case code == timedOut:
		return runner.StatusTimeLimitExceeded
	}
	return runner.StatusFromExitCode(code)
}

// killedAfterLimit reports a run step terminated by SIGTERM or SIGKILL once
// its limit had passed, which is how BusyBox timeout ends a program.
func killedAfterLimit(code int, elapsed, limit time.Duration) bool {
	return (code == 128+15 || code == 128+9) && elapsed >= limit
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
