package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/skillupx/skillupx/language"
	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/wrapper"
)

// scriptedRunner answers by stdin and records what it ran.
type scriptedRunner struct {
	mu      sync.Mutex
	answers map[string]string
	sources []string
	err     error
}

func (s *scriptedRunner) Name() string { return "scripted" }

func (s *scriptedRunner) Run(ctx context.Context, sub runner.Submission) (runner.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, sub.Source)
	if s.err != nil {
		return runner.Result{}, s.err
	}
	out, ok := s.answers[sub.Stdin]
	if !ok {
		return runner.Result{Status: runner.StatusRuntimeNZEC, ExitCode: 1, Stderr: "no answer"}, nil
	}
	return runner.Result{Stdout: out, Status: runner.StatusAccepted, Time: time.Millisecond}, nil
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	store, err := problem.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	w := wrapper.New(wrapper.WithLanguages(language.All()...), wrapper.WithResolver(store))
	return New(w, append([]Option{WithStore(store)}, opts...)...)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env Envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func decodeData(t *testing.T, env Envelope, dst any) {
	t.Helper()
	raw, err := json.Marshal(env.Data)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	w, _ := do(t, newTestServer(t).Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "ok" {
		t.Errorf("expected 'ok', got %q", w.Body.String())
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t).Handler()

	w, _ := do(t, h, http.MethodGet, "/health", "")
	if _, err := uuid.Parse(w.Header().Get("X-Request-ID")); err != nil {
		t.Errorf("expected generated uuid, got %q", w.Header().Get("X-Request-ID"))
	}

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != id {
		t.Errorf("expected client id to be kept, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestLanguagesEndpoint(t *testing.T) {
	w, env := do(t, newTestServer(t).Handler(), http.MethodGet, "/api/languages", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var langs []languageInfo
	decodeData(t, env, &langs)

	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = l.Name
	}
	if got := strings.Join(names, ","); got != "cpp,java,javascript,python" {
		t.Errorf("unexpected languages %q", got)
	}
}

func TestNamesEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()

	_, env := do(t, h, http.MethodPost, "/api/names", `{"title": "Valid Parentheses"}`)
	var resp nameResponse
	decodeData(t, env, &resp)
	if resp.FunctionName != "validParentheses" || !resp.Valid {
		t.Errorf("unexpected response %+v", resp)
	}

	_, env = do(t, h, http.MethodPost, "/api/names", `{"title": "3Sum"}`)
	decodeData(t, env, &resp)
	if resp.Valid {
		t.Errorf("expected 3Sum to be flagged invalid, got %+v", resp)
	}
}

func TestWrapEndpoint(t *testing.T) {
	srv := newTestServer(t)
	h := srv.Handler()

	body := `{"userCode": "def twoSum(nums, target):\n    return [0, 1]", "problemTitle": "Two Sum", "language": "py"}`
	w, env := do(t, h, http.MethodPost, "/api/wrap", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, env.Message)
	}
	var res wrapper.Result
	decodeData(t, env, &res)

	if res.Language != "python" || res.FunctionName != "twoSum" {
		t.Errorf("unexpected result %+v", res)
	}
	if !strings.Contains(res.WrappedCode, "def twoSum(nums, target):\n    return [0, 1]") {
		t.Errorf("wrapped code should contain user code:\n%s", res.WrappedCode)
	}
	if srv.Metrics().Wraps.Load() != 1 {
		t.Errorf("expected 1 wrap, got %d", srv.Metrics().Wraps.Load())
	}
}

func TestWrapEndpointProblemID(t *testing.T) {
	body := `{"userCode": "class Solution {}", "language": "java", "shape": "class", "problemId": "powx-n"}`
	w, env := do(t, newTestServer(t).Handler(), http.MethodPost, "/api/wrap", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, env.Message)
	}
	var res wrapper.Result
	decodeData(t, env, &res)
	if res.FunctionName != "myPow" {
		t.Errorf("expected catalog function name, got %q", res.FunctionName)
	}
	if !strings.Contains(res.WrappedCode, "new Solution().myPow(") {
		t.Errorf("expected class-shape call:\n%s", res.WrappedCode)
	}
}

func TestWrapEndpointErrors(t *testing.T) {
	h := newTestServer(t, WithMaxSourceBytes(16)).Handler()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unsupported language", `{"userCode": "x", "problemTitle": "Two Sum", "language": "cobol"}`, http.StatusBadRequest},
		{"empty title", `{"userCode": "x", "problemTitle": "?!", "language": "python"}`, http.StatusBadRequest},
		{"no signature", `{"userCode": "x", "problemTitle": "Unknown Problem", "language": "python"}`, http.StatusBadRequest},
		{"bad signature", `{"userCode": "x", "problemTitle": "Foo", "language": "python", "signature": "a ->"}`, http.StatusBadRequest},
		{"bad json", `{"userCode": `, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"unknown problem", `{"userCode": "x", "language": "python", "problemId": "nope"}`, http.StatusNotFound},
		{"too large", `{"userCode": "01234567890123456789", "problemTitle": "Two Sum", "language": "python"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		w, env := do(t, h, http.MethodPost, "/api/wrap", tt.body)
		if w.Code != tt.status {
			t.Errorf("%s: expected %d, got %d (%s)", tt.name, tt.status, w.Code, env.Message)
		}
		if !env.Error || env.Message == "" {
			t.Errorf("%s: expected error envelope, got %+v", tt.name, env)
		}
	}
}

func TestProblemsEndpoints(t *testing.T) {
	h := newTestServer(t).Handler()

	w, env := do(t, h, http.MethodGet, "/api/problems", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []problem.Summary
	decodeData(t, env, &list)
	if len(list) == 0 || list[0].ID == "" {
		t.Fatalf("expected summaries, got %+v", list)
	}

	w, env = do(t, h, http.MethodGet, "/api/problems/two-sum", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var p problem.Problem
	decodeData(t, env, &p)
	if p.Title != "Two Sum" || len(p.Tests) == 0 {
		t.Errorf("unexpected problem %+v", p)
	}

	w, _ = do(t, h, http.MethodGet, "/api/problems/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRunWithoutRunner(t *testing.T) {
	body := `{"userCode": "x", "problemTitle": "Two Sum", "language": "python", "stdin": ""}`
	w, _ := do(t, newTestServer(t).Handler(), http.MethodPost, "/api/run", body)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestRunStdin(t *testing.T) {
	r := &scriptedRunner{answers: map[string]string{"2 7 11 15\n9\n": "0 1\n"}}
	h := newTestServer(t, WithRunner(r)).Handler()

	body := `{"userCode": "def twoSum(nums, target): pass", "problemTitle": "Two Sum", "language": "python",
		"stdin": "2 7 11 15\n9\n", "expected": "0 1"}`
	w, env := do(t, h, http.MethodPost, "/api/run", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, env.Message)
	}
	var resp runResponse
	decodeData(t, env, &resp)

	if resp.Result == nil || resp.Result.Status != runner.StatusAccepted {
		t.Fatalf("expected accepted result, got %+v", resp.Result)
	}
	if resp.RunID != w.Header().Get("X-Request-ID") {
		t.Errorf("expected run id %q, got %q", w.Header().Get("X-Request-ID"), resp.RunID)
	}
	if len(r.sources) != 1 || !strings.Contains(r.sources[0], "def twoSum(nums, target): pass") {
		t.Errorf("runner should receive the wrapped program, got %v", r.sources)
	}
}

func TestRunWrongAnswer(t *testing.T) {
	r := &scriptedRunner{answers: map[string]string{"1\n": "2\n"}}
	h := newTestServer(t, WithRunner(r)).Handler()

	body := `{"userCode": "x", "problemTitle": "Climbing Stairs", "language": "python", "stdin": "1\n", "expected": "1"}`
	_, env := do(t, h, http.MethodPost, "/api/run", body)
	var resp runResponse
	decodeData(t, env, &resp)
	if resp.Result == nil || resp.Result.Status != runner.StatusWrongAnswer {
		t.Errorf("expected wrong answer, got %+v", resp.Result)
	}
}

func TestRunProblemTests(t *testing.T) {
	r := &scriptedRunner{answers: map[string]string{
		"2 7 11 15\n9\n": "0 1\n",
		"3 2 4\n6\n":     "1 2\n",
		"3 3\n6\n":       "1 0\n",
	}}
	srv := newTestServer(t, WithRunner(r))

	body := `{"userCode": "x", "language": "javascript", "problemId": "two-sum"}`
	w, env := do(t, srv.Handler(), http.MethodPost, "/api/run", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, env.Message)
	}
	var resp runResponse
	decodeData(t, env, &resp)

	if resp.Report == nil {
		t.Fatal("expected a report")
	}
	if resp.Report.Total != 3 || resp.Report.Passed != 2 {
		t.Errorf("expected 2/3 passed, got %d/%d", resp.Report.Passed, resp.Report.Total)
	}
	if resp.Report.Status != runner.StatusWrongAnswer {
		t.Errorf("expected wrong answer, got %s", resp.Report.Status)
	}
	if srv.Metrics().Cases.Load() != 3 {
		t.Errorf("expected 3 cases counted, got %d", srv.Metrics().Cases.Load())
	}
}

func TestRunErrors(t *testing.T) {
	r := &scriptedRunner{err: errors.New("backend down")}
	h := newTestServer(t, WithRunner(r)).Handler()

	w, _ := do(t, h, http.MethodPost, "/api/run", `{"userCode": "x", "problemTitle": "Two Sum", "language": "python", "stdin": ""}`)
	if w.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", w.Code)
	}

	w, _ = do(t, h, http.MethodPost, "/api/run", `{"userCode": "x", "problemTitle": "Two Sum", "language": "python"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without stdin or tests, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, WithRateLimit(0.001, 2))
	h := srv.Handler()

	for i := 0; i < 2; i++ {
		if w, _ := do(t, h, http.MethodGet, "/api/languages", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	w, env := do(t, h, http.MethodGet, "/api/languages", "")
	if w.Code != http.StatusTooManyRequests || !env.Error {
		t.Errorf("expected 429, got %d", w.Code)
	}
	// Health checks are not limited.
	if w, _ := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("expected health to bypass the limiter, got %d", w.Code)
	}
	if srv.Metrics().RateLimited.Load() != 1 {
		t.Errorf("expected 1 rate limited request, got %d", srv.Metrics().RateLimited.Load())
	}
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	now := time.Now()
	l := newIPRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(visitorTimeout + cleanupInterval + time.Second)
	l.allow("b")

	if _, ok := l.visitors["a"]; ok {
		t.Error("expected idle visitor to be removed")
	}
	if _, ok := l.visitors["b"]; !ok {
		t.Error("expected active visitor to remain")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := clientIP(req); got != "10.0.0.1" {
		t.Errorf("expected 10.0.0.1, got %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("expected 203.0.113.7, got %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t).Handler()
	do(t, h, http.MethodGet, "/api/languages", "")

	_, env := do(t, h, http.MethodGet, "/metrics", "")
	var m MetricsSnapshot
	decodeData(t, env, &m)
	if m.Requests < 2 {
		t.Errorf("expected at least 2 requests, got %d", m.Requests)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, WithAllowedOrigins("https://skillupx.dev")).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/wrap", nil)
	req.Header.Set("Origin", "https://skillupx.dev")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://skillupx.dev" {
		t.Errorf("expected allowed origin, got %q", got)
	}
}

func TestRunWebSocket(t *testing.T) {
	r := &scriptedRunner{answers: map[string]string{
		"()\n":     "true\n",
		"()[]{}\n": "true\n",
		"(]\n":     "false\n",
		"([)]\n":   "true\n",
	}}
	srv := httptest.NewServer(newTestServer(t, WithRunner(r)).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/run"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := map[string]any{"userCode": "x", "language": "cpp", "problemId": "valid-parentheses"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("write: %v", err)
	}

	var cases int
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.RunID == "" {
			t.Errorf("expected run id on %s frame", msg.Type)
		}
		switch msg.Type {
		case "case":
			cases++
		case "report":
			if cases != 4 {
				t.Errorf("expected 4 case frames, got %d", cases)
			}
			if msg.Run == nil || msg.Run.Report == nil || msg.Run.Report.Passed != 3 {
				t.Errorf("expected 3 passed, got %+v", msg.Run)
			}
			return
		default:
			t.Fatalf("unexpected frame %+v", msg)
		}
	}
}

func TestRunWebSocketError(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t, WithRunner(&scriptedRunner{})).Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/run"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]any{"userCode": "x", "problemTitle": "Two Sum", "language": "cobol"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || !strings.Contains(msg.Message, "unsupported language") {
		t.Errorf("expected unsupported language error, got %+v", msg)
	}
}
