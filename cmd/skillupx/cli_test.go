package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skillupx/skillupx/internal/config"
	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/wrapper"
)

// executeCommand runs a fresh root command with an isolated environment.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SKILLUPX_CATALOG", "")
	t.Setenv("SKILLUPX_REDIS_ADDR", "")
	t.Setenv("SKILLUPX_BACKEND", "none")

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	err := root.Execute()
	return buf.String(), err
}

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand(t, "", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedPhrases := []string{
		"skillupx",
		"python",
		"wrap",
		"name",
		"run",
		"serve",
		"repl",
		"problems",
		"--log-level",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("help output should contain %q", phrase)
		}
	}
}

func TestCLISubcommandHelp(t *testing.T) {
	tests := map[string][]string{
		"wrap":     {"--title", "--lang", "--shape", "--signature", "--input", "--name", "--problem", "--output"},
		"run":      {"--stdin", "--expected", "--tests", "--time-limit", "--problem"},
		"serve":    {"--addr", "--origin", "/api/wrap", "/api/ws/run", "/health"},
		"repl":     {"--lang", "--history", "Command history", "Line editing"},
		"problems": {"list", "show", "migrate", "import"},
		"fetch":    {"--output", "--timeout", "SKILLUPX_WASM_PYTHON"},
	}

	for cmd, phrases := range tests {
		output, err := executeCommand(t, "", cmd, "--help")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", cmd, err)
		}
		for _, phrase := range phrases {
			if !strings.Contains(output, phrase) {
				t.Errorf("%s help output should contain %q", cmd, phrase)
			}
		}
	}
}

func TestCLIName(t *testing.T) {
	output, err := executeCommand(t, "", "name", "Two Sum", "Valid Parentheses")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "twoSum\nvalidParentheses\n") {
		t.Errorf("unexpected output %q", output)
	}

	if _, err := executeCommand(t, "", "name", "3Sum"); err == nil {
		t.Error("expected error for a title that is not an identifier")
	}
}

func TestCLIWrapInline(t *testing.T) {
	code := "def twoSum(nums, target):\n    return [0, 1]"
	output, err := executeCommand(t, "", "wrap", "-l", "py", "-t", "Two Sum", "-c", code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, code) {
		t.Errorf("output should contain the user code:\n%s", output)
	}
	if !strings.Contains(output, "_result = twoSum(nums, target)") {
		t.Errorf("output should call twoSum:\n%s", output)
	}
}

func TestCLIWrapFileAndOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "solution.js")
	code := "function climbingStairs(n) { return n; }"
	if err := os.WriteFile(src, []byte(code), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "wrapped.js")

	if _, err := executeCommand(t, "", "wrap", src, "-p", "climbing-stairs", "-o", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(data), code) || !strings.Contains(string(data), "climbingStairs(n)") {
		t.Errorf("unexpected program:\n%s", data)
	}
}

func TestCLIWrapStdin(t *testing.T) {
	code := "class Solution {\npublic:\n    bool palindromeNumber(int x) { return x >= 0; }\n};"
	output, err := executeCommand(t, code, "wrap", "-l", "cpp", "--shape", "class", "-t", "Palindrome Number")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, code) {
		t.Errorf("output should contain the user code:\n%s", output)
	}
}

func TestCLIWrapErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"no language", []string{"wrap", "-t", "Two Sum", "-c", "x"}, errLanguageRequired},
		{"unsupported", []string{"wrap", "-l", "cobol", "-t", "Two Sum", "-c", "x"}, wrapper.ErrUnsupportedLanguage},
		{"no signature", []string{"wrap", "-l", "python", "-t", "Unknown Thing", "-c", "x"}, wrapper.ErrMissingSignature},
		{"unknown problem", []string{"wrap", "-l", "python", "-p", "nope", "-c", "x"}, problem.ErrNotFound},
	}
	for _, tt := range tests {
		_, err := executeCommand(t, "", tt.args...)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestCLIRunWithoutBackend(t *testing.T) {
	_, err := executeCommand(t, "", "run", "-l", "python", "-p", "two-sum", "-c", "def twoSum(a, b): pass", "--tests")
	if !errors.Is(err, errNoBackend) {
		t.Errorf("expected errNoBackend, got %v", err)
	}
}

func TestCLIRunTestsNeedsProblem(t *testing.T) {
	_, err := executeCommand(t, "", "run", "-l", "python", "-t", "Two Sum", "-c", "x", "--tests")
	if err == nil || !strings.Contains(err.Error(), "--problem") {
		t.Errorf("expected --problem error, got %v", err)
	}
}

func TestCLIProblems(t *testing.T) {
	output, err := executeCommand(t, "", "problems", "list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, phrase := range []string{"ID", "two-sum", "twoSum", "powx-n", "myPow"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("list output should contain %q:\n%s", phrase, output)
		}
	}

	output, err = executeCommand(t, "", "problems", "show", "two-sum")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "signature:") || !strings.Contains(output, "nums: int[], target: int -> int[]") {
		t.Errorf("show output should contain the signature:\n%s", output)
	}

	if _, err := executeCommand(t, "", "problems", "migrate"); !errors.Is(err, errNoDatabase) {
		t.Errorf("expected errNoDatabase, got %v", err)
	}
}

func TestCLICatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	catalog := `problems:
  - id: add
    title: Add Two Numbers
    signature: "a: int, b: int -> int"
    input: "a b"
`
	if err := os.WriteFile(path, []byte(catalog), 0o644); err != nil {
		t.Fatal(err)
	}

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SKILLUPX_CATALOG", path)
	root.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "wrap", "-l", "java", "-t", "Add Two Numbers", "-c", "int addTwoNumbers(int a, int b) { return a + b; }"})
	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "addTwoNumbers(a, b)") {
		t.Errorf("expected call with catalog signature:\n%s", buf.String())
	}
}

func TestCLIFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\x00asm"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "python.wasm")
	output, err := executeCommand(t, "", "fetch", "python", srv.URL, "-o", dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, dest) {
		t.Errorf("expected destination in output, got %q", output)
	}
	if data, _ := os.ReadFile(dest); string(data) != "\x00asm" {
		t.Errorf("unexpected module contents %q", data)
	}

	if _, err := executeCommand(t, "", "fetch", "java", srv.URL); !errors.Is(err, runner.ErrUnsupportedLanguage) {
		t.Errorf("expected ErrUnsupportedLanguage, got %v", err)
	}
}

func TestCLIInvalidLogLevel(t *testing.T) {
	if _, err := executeCommand(t, "", "--log-level", "loud", "name", "x"); err == nil {
		t.Error("expected error for invalid log level")
	}
}

func TestBuildServerWithoutBackend(t *testing.T) {
	a := &app{cfg: config.Default(), logger: newLogger(new(bytes.Buffer), 0)}
	a.cfg.Backend = config.BackendNone

	handler, cleanup, err := a.buildServer(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cleanup()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	body := strings.NewReader(`{"userCode": "x", "problemId": "two-sum", "language": "python"}`)
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/run", body))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a backend, got %d", w.Code)
	}
}

func TestReplSession(t *testing.T) {
	store, err := problem.Default()
	if err != nil {
		t.Fatal(err)
	}
	s := &replSession{wrapper: newWrapper(store), store: store, lang: "python"}
	var out bytes.Buffer

	for _, line := range []string{
		"def twoSum(nums, target):",
		"    return [0, 1]",
		":title Two Sum",
		":lang javascript",
		":lang python",
	} {
		if s.handle(line, &out) {
			t.Fatalf("%q should not end the session", line)
		}
	}
	if !strings.Contains(out.String(), "function name: twoSum") {
		t.Errorf("expected derived name, got %q", out.String())
	}

	out.Reset()
	s.handle(":wrap", &out)
	if !strings.Contains(out.String(), "def twoSum(nums, target):\n    return [0, 1]") {
		t.Errorf("expected wrapped program, got:\n%s", out.String())
	}

	out.Reset()
	s.handle(":lang cobol", &out)
	if !strings.Contains(out.String(), "unsupported language") || s.lang != "python" {
		t.Errorf("expected rejected language, got %q (lang %s)", out.String(), s.lang)
	}

	out.Reset()
	s.handle(":sig nope", &out)
	if !strings.Contains(out.String(), "error:") {
		t.Errorf("expected signature error, got %q", out.String())
	}

	out.Reset()
	s.handle(":problem powx-n", &out)
	if s.name != "myPow" || s.sig != "x: float, n: int -> float" {
		t.Errorf("expected catalog entry to load, got name %q sig %q", s.name, s.sig)
	}

	s.handle(":reset", &out)
	if len(s.code) != 0 {
		t.Errorf("expected empty buffer, got %v", s.code)
	}

	out.Reset()
	s.handle(":bogus", &out)
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("expected unknown command, got %q", out.String())
	}

	if !s.handle(":quit", &out) {
		t.Error("expected :quit to end the session")
	}
}
