// Package judge0 runs submissions on a Judge0 server.
package judge0

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skillupx/skillupx/runner"
)

// DefaultLanguageIDs maps canonical language names to Judge0 CE language ids.
var DefaultLanguageIDs = map[string]int{
	"python":     71, // Python 3.8.1
	"javascript": 63, // Node.js 12.14.0
	"java":       62, // OpenJDK 13.0.1
	"cpp":        54, // GCC 9.2.0
}

// Client is a runner.Runner backed by the Judge0 HTTP API.
type Client struct {
	baseURL   string
	token     string
	http      *http.Client
	languages map[string]int
}

var _ runner.Runner = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithAuthToken sets the X-Auth-Token header.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLanguageID overrides the Judge0 id used for a language.
func WithLanguageID(language string, id int) Option {
	return func(c *Client) {
		c.languages[language] = id
	}
}

// New creates a client for the Judge0 server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 60 * time.Second},
		languages: make(map[string]int, len(DefaultLanguageIDs)),
	}
	for lang, id := range DefaultLanguageIDs {
		c.languages[lang] = id
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "judge0".
func (c *Client) Name() string {
	return "judge0"
}

type submissionRequest struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          string  `json:"stdin,omitempty"`
	ExpectedOutput string  `json:"expected_output,omitempty"`
	CPUTimeLimit   float64 `json:"cpu_time_limit,omitempty"`
	MemoryLimit    int     `json:"memory_limit,omitempty"`
}

type submissionResponse struct {
	Token         string  `json:"token"`
	Stdout        *string `json:"stdout"`
	Stderr        *string `json:"stderr"`
	CompileOutput *string `json:"compile_output"`
	Message       *string `json:"message"`
	ExitCode      *int    `json:"exit_code"`
	Time          *string `json:"time"`
	Memory        *int    `json:"memory"`
	Status        struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
}

// Run submits sub and waits for the verdict.
func (c *Client) Run(ctx context.Context, sub runner.Submission) (runner.Result, error) {
	id, ok := c.languages[sub.Language]
	if !ok {
		return runner.Result{}, fmt.Errorf("%w: %q", runner.ErrUnsupportedLanguage, sub.Language)
	}

	body, err := json.Marshal(submissionRequest{
		SourceCode:     encode(sub.Source),
		LanguageID:     id,
		Stdin:          encode(sub.Stdin),
		ExpectedOutput: encode(sub.Expected),
		CPUTimeLimit:   sub.Limit().Seconds(),
		MemoryLimit:    sub.MemoryLimitKB,
	})
	if err != nil {
		return runner.Result{}, fmt.Errorf("judge0: encode request: %w", err)
	}

	url := c.baseURL + "/submissions?base64_encoded=true&wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return runner.Result{}, fmt.Errorf("judge0: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return runner.Result{}, fmt.Errorf("judge0: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return runner.Result{}, fmt.Errorf("judge0: read response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return runner.Result{}, fmt.Errorf("judge0: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var out submissionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return runner.Result{}, fmt.Errorf("judge0: decode response: %w", err)
	}
	return out.result()
}

func (r submissionResponse) result() (runner.Result, error) {
	res := runner.Result{Status: runner.Status(r.Status.ID)}

	var err error
	if res.Stdout, err = decode(r.Stdout); err != nil {
		return runner.Result{}, fmt.Errorf("judge0: stdout: %w", err)
	}
	if res.Stderr, err = decode(r.Stderr); err != nil {
		return runner.Result{}, fmt.Errorf("judge0: stderr: %w", err)
	}
	if res.CompileOutput, err = decode(r.CompileOutput); err != nil {
		return runner.Result{}, fmt.Errorf("judge0: compile output: %w", err)
	}
	if res.Message, err = decode(r.Message); err != nil {
		return runner.Result{}, fmt.Errorf("judge0: message: %w", err)
	}
	if r.ExitCode != nil {
		res.ExitCode = *r.ExitCode
	}
	if r.Memory != nil {
		res.MemoryKB = *r.Memory
	}
	if r.Time != nil {
		if secs, perr := strconv.ParseFloat(*r.Time, 64); perr == nil {
			res.Time = time.Duration(math.Round(secs*1e6)) * time.Microsecond
		}
	}
	return res, nil
}

func encode(s string) string {
	if s == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// decode reads a base64 field. Judge0 wraps long values across lines, which
// the standard decoder skips.
func decode(s *string) (string, error) {
	if s == nil || *s == "" {
		return "", nil
	}
	b, err := base64.StdEncoding.DecodeString(*s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
