package runner

import (
	"context"
	"sync"
)

// TestCase is one stdin/expected-stdout pair.
type TestCase struct {
	Input    string `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}

// CaseResult is the verdict for one test case.
type CaseResult struct {
	Index  int    `json:"index"`
	Passed bool   `json:"passed"`
	Result Result `json:"result"`
	Error  string `json:"error,omitempty"`
}

// Report summarises a multi-case run.
type Report struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Total  int          `json:"total"`
	// Status is Accepted when every case passed, otherwise the status of the
	// first failing case.
	Status Status `json:"status"`
}

type runConfig struct {
	concurrency int
	onCase      func(CaseResult)
}

// Option configures RunCases.
type Option func(*runConfig)

// WithConcurrency bounds the number of cases executed at once.
func WithConcurrency(n int) Option {
	return func(c *runConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithCaseCallback is invoked as each case finishes, possibly from several
// goroutines at once and not in case order.
func WithCaseCallback(fn func(CaseResult)) Option {
	return func(c *runConfig) {
		c.onCase = fn
	}
}

// RunCases executes sub once per test case on a fixed pool of workers and
// returns the results in case order. Backend errors are recorded on the case
// as InternalError. The returned error is non-nil only when ctx ends first.
func RunCases(ctx context.Context, r Runner, sub Submission, cases []TestCase, opts ...Option) (Report, error) {
	if len(cases) == 0 {
		return Report{}, ErrNoTestCases
	}

	cfg := &runConfig{concurrency: 4}
	for _, opt := range opts {
		opt(cfg)
	}
	workers := min(cfg.concurrency, len(cases))

	results := make([]CaseResult, len(cases))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runCase(ctx, r, sub, i, cases[i])
				if cfg.onCase != nil {
					cfg.onCase(results[i])
				}
			}
		}()
	}

feed:
	for i := range cases {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	report := Report{Total: len(cases), Status: StatusAccepted}
	for i := range results {
		if results[i].Result.Status == 0 {
			results[i] = CaseResult{Index: i, Error: "not run", Result: Result{Status: StatusInternalError}}
		}
		if results[i].Passed {
			report.Passed++
		} else if report.Status == StatusAccepted {
			report.Status = results[i].Result.Status
		}
	}
	report.Cases = results
	return report, ctx.Err()
}

func runCase(ctx context.Context, r Runner, sub Submission, index int, tc TestCase) CaseResult {
	sub.Stdin = tc.Input
	sub.Expected = tc.Expected

	res, err := r.Run(ctx, sub)
	if err != nil {
		return CaseResult{
			Index:  index,
			Result: Result{Status: StatusInternalError, Message: err.Error()},
			Error:  err.Error(),
		}
	}
	res = Judge(res, tc.Expected)
	return CaseResult{
		Index:  index,
		Passed: res.Status == StatusAccepted,
		Result: res,
	}
}
