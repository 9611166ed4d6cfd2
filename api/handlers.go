package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/wrapper"
)

type languageInfo struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases"`
	Extension string   `json:"extension"`
}

type nameRequest struct {
	Title string `json:"title"`
}

type nameResponse struct {
	Title        string `json:"title"`
	FunctionName string `json:"functionName"`
	Valid        bool   `json:"valid"`
}

// wrapRequest carries the wrapper inputs. ProblemID pulls title, signature
// and input layout from the catalog; explicit fields override them.
type wrapRequest struct {
	UserCode     string        `json:"userCode"`
	ProblemTitle string        `json:"problemTitle"`
	Language     string        `json:"language"`
	Shape        wrapper.Shape `json:"shape"`
	FunctionName string        `json:"functionName,omitempty"`
	Signature    string        `json:"signature,omitempty"`
	InputFormat  string        `json:"inputFormat,omitempty"`
	ProblemID    string        `json:"problemId,omitempty"`
}

type runRequest struct {
	wrapRequest
	// Stdin runs the program once. Without it the given tests run, or the
	// catalog tests of ProblemID.
	Stdin       *string           `json:"stdin,omitempty"`
	Expected    string            `json:"expected,omitempty"`
	Tests       []runner.TestCase `json:"tests,omitempty"`
	TimeLimitMS int               `json:"timeLimitMs,omitempty"`
}

type runResponse struct {
	RunID        string         `json:"runId"`
	Language     string         `json:"language"`
	FunctionName string         `json:"functionName"`
	Result       *runner.Result `json:"result,omitempty"`
	Report       *runner.Report `json:"report,omitempty"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, int64(s.maxSourceBytes)+1<<20)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body over %d bytes", errSourceTooLarge, tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid json: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	names := s.wrapper.Languages()
	out := make([]languageInfo, 0, len(names))
	for _, name := range names {
		lang, err := s.wrapper.Lookup(name)
		if err != nil {
			continue
		}
		aliases := lang.Aliases()
		if aliases == nil {
			aliases = []string{}
		}
		out = append(out, languageInfo{Name: lang.Name(), Aliases: aliases, Extension: lang.Extension()})
	}
	writeJSON(w, http.StatusOK, out, "")
}

func (s *Server) handleNames(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	name := wrapper.DeriveFunctionName(req.Title)
	writeJSON(w, http.StatusOK, nameResponse{
		Title:        req.Title,
		FunctionName: name,
		Valid:        wrapper.IsIdentifier(name),
	}, "")
}

// buildRequest resolves the catalog entry named by req and returns the
// wrapper request along with that entry when there is one.
func (s *Server) buildRequest(ctx context.Context, req wrapRequest) (wrapper.Request, *problem.Problem, error) {
	if len(req.UserCode) > s.maxSourceBytes {
		return wrapper.Request{}, nil, fmt.Errorf("%w: %d bytes, limit %d", errSourceTooLarge, len(req.UserCode), s.maxSourceBytes)
	}

	out := wrapper.Request{
		Code:         req.UserCode,
		Problem:      wrapper.ProblemSpec{Title: req.ProblemTitle},
		Language:     req.Language,
		Shape:        req.Shape,
		FunctionName: req.FunctionName,
	}

	var p *problem.Problem
	if req.ProblemID != "" {
		if s.store == nil {
			return wrapper.Request{}, nil, fmt.Errorf("%w: %q", problem.ErrNotFound, req.ProblemID)
		}
		found, err := s.store.Get(ctx, req.ProblemID)
		if err != nil {
			return wrapper.Request{}, nil, err
		}
		p = &found
		out.Problem = found.Spec()
		if out.FunctionName == "" {
			out.FunctionName = found.Function
		}
	}
	if req.Signature != "" {
		out.Problem.SignatureHint = req.Signature
	}
	if req.InputFormat != "" {
		out.Problem.InputFormat = req.InputFormat
	}
	return out, p, nil
}

func (s *Server) handleWrap(w http.ResponseWriter, r *http.Request) {
	var req wrapRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	wreq, _, err := s.buildRequest(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.wrapper.WrapRequest(wreq)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.Wraps.Add(1)
	writeJSON(w, http.StatusOK, res, "")
}

func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []problem.Summary{}, "")
		return
	}
	problems, err := s.store.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]problem.Summary, len(problems))
	for i, p := range problems {
		out[i] = p.Summarize()
	}
	writeJSON(w, http.StatusOK, out, "")
}

func (s *Server) handleGetProblem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.store == nil {
		s.fail(w, r, fmt.Errorf("%w: %q", problem.ErrNotFound, id))
		return
	}
	p, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p, "")
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := s.decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	resp, err := s.execute(r.Context(), req, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp, "")
}

// execute wraps req and runs it. onCase, when set, sees each test case as it
// finishes.
func (s *Server) execute(ctx context.Context, req runRequest, onCase func(runner.CaseResult)) (runResponse, error) {
	if s.runner == nil {
		return runResponse{}, errNoRunner
	}

	wreq, p, err := s.buildRequest(ctx, req.wrapRequest)
	if err != nil {
		return runResponse{}, err
	}
	wrapped, err := s.wrapper.WrapRequest(wreq)
	if err != nil {
		return runResponse{}, err
	}
	s.metrics.Wraps.Add(1)

	limit := s.timeLimit
	if req.TimeLimitMS > 0 {
		limit = min(limit, time.Duration(req.TimeLimitMS)*time.Millisecond)
	}
	sub := runner.Submission{
		Language:      wrapped.Language,
		Source:        wrapped.WrappedCode,
		TimeLimit:     limit,
		MemoryLimitKB: s.memoryLimitKB,
	}
	resp := runResponse{
		RunID:        RequestID(ctx),
		Language:     wrapped.Language,
		FunctionName: wrapped.FunctionName,
	}
	log := s.logger.With("request_id", resp.RunID, "language", sub.Language, "backend", s.runner.Name())
	s.metrics.Runs.Add(1)

	if req.Stdin != nil {
		sub.Stdin = *req.Stdin
		sub.Expected = req.Expected
		res, err := s.runner.Run(ctx, sub)
		if err != nil {
			return runResponse{}, fmt.Errorf("run: %w", err)
		}
		if req.Expected != "" {
			res = runner.Judge(res, req.Expected)
		}
		log.Info("run finished", "status", res.Status, "time", res.Time)
		resp.Result = &res
		return resp, nil
	}

	cases := req.Tests
	if len(cases) == 0 && p != nil {
		cases = p.Tests
	}
	if len(cases) == 0 {
		return runResponse{}, fmt.Errorf("%w: give stdin, tests or a problem with tests", runner.ErrNoTestCases)
	}

	opts := []runner.Option{runner.WithConcurrency(s.concurrency)}
	opts = append(opts, runner.WithCaseCallback(func(c runner.CaseResult) {
		s.metrics.Cases.Add(1)
		if onCase != nil {
			onCase(c)
		}
	}))
	report, err := runner.RunCases(ctx, s.runner, sub, cases, opts...)
	if err != nil {
		return runResponse{}, fmt.Errorf("run cases: %w", err)
	}
	log.Info("cases finished", "status", report.Status, "passed", report.Passed, "total", report.Total)
	resp.Report = &report
	return resp, nil
}
