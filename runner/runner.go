// Package runner executes wrapped programs on a sandboxed backend and judges
// their output.
//
// Backends live in subpackages: judge0 talks to a Judge0 server, docker runs
// throwaway containers, wasm runs WASI interpreters in-process and cache
// memoises any of them in Redis.
package runner

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrUnsupportedLanguage = errors.New("runner: unsupported language")
	ErrNoTestCases         = errors.New("runner: no test cases")
)

// DefaultTimeLimit applies when a submission sets none.
const DefaultTimeLimit = 5 * time.Second

// Submission is one program execution request.
type Submission struct {
	Language string `json:"language"`
	Source   string `json:"source"`
	Stdin    string `json:"stdin,omitempty"`
	// Expected, when set, turns an Accepted run with different output into
	// WrongAnswer.
	Expected      string        `json:"expected,omitempty"`
	TimeLimit     time.Duration `json:"timeLimit,omitempty"`
	MemoryLimitKB int           `json:"memoryLimitKb,omitempty"`
}

// Limit returns the effective time limit.
func (s Submission) Limit() time.Duration {
	if s.TimeLimit <= 0 {
		return DefaultTimeLimit
	}
	return s.TimeLimit
}

// Result is the outcome of one execution, relayed as reported by the backend.
type Result struct {
	Stdout        string        `json:"stdout"`
	Stderr        string        `json:"stderr,omitempty"`
	CompileOutput string        `json:"compileOutput,omitempty"`
	Message       string        `json:"message,omitempty"`
	ExitCode      int           `json:"exitCode"`
	Status        Status        `json:"status"`
	Time          time.Duration `json:"time"`
	MemoryKB      int           `json:"memoryKb,omitempty"`
}

// Runner executes submissions.
type Runner interface {
	// Name identifies the backend in logs and responses.
	Name() string

	// Run executes sub. A non-nil error means the backend itself failed;
	// compile errors, crashes and timeouts are reported through Result.Status.
	Run(ctx context.Context, sub Submission) (Result, error)
}

// Judge downgrades an Accepted result whose stdout does not match expected.
// An empty expected output accepts anything.
func Judge(res Result, expected string) Result {
	if res.Status == StatusAccepted && expected != "" && !Compare(expected, res.Stdout) {
		res.Status = StatusWrongAnswer
	}
	return res
}

// Compare reports whether two outputs match, ignoring trailing whitespace on
// each line, CRLF line endings and trailing blank lines.
func Compare(expected, actual string) bool {
	return normalize(expected) == normalize(actual)
}

func normalize(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
