package wrapper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptyFunctionName   = errors.New("empty function name")
	ErrInvalidFunctionName = errors.New("invalid function name")
	ErrMissingSignature    = errors.New("missing signature")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrInvalidInputFormat  = errors.New("invalid input format")
)

// ProblemSpec is the problem-side input to wrapping.
type ProblemSpec struct {
	Title         string `json:"title"`
	SignatureHint string `json:"signature,omitempty"`
	InputFormat   string `json:"inputFormat,omitempty"`
}

// Request is a full wrapping request.
type Request struct {
	Code     string
	Problem  ProblemSpec
	Language string
	Shape    Shape
	// FunctionName overrides the name derived from Problem.Title.
	FunctionName string
}

// Result is the generated program.
type Result struct {
	WrappedCode  string `json:"wrappedCode"`
	Language     string `json:"language"`
	FunctionName string `json:"functionName"`
}

// Wrapper dispatches requests to registered languages. It holds no mutable
// state after construction and is safe for concurrent use.
type Wrapper struct {
	languages map[string]Language
	names     []string
	resolver  Resolver
}

// New creates a Wrapper.
func New(opts ...Option) *Wrapper {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	w := &Wrapper{
		languages: make(map[string]Language),
		resolver:  cfg.resolver,
	}
	seen := make(map[string]bool)
	for _, lang := range cfg.languages {
		w.languages[strings.ToLower(lang.Name())] = lang
		for _, alias := range lang.Aliases() {
			w.languages[strings.ToLower(alias)] = lang
		}
		if !seen[lang.Name()] {
			seen[lang.Name()] = true
			w.names = append(w.names, lang.Name())
		}
	}
	sort.Strings(w.names)
	return w
}

// Languages returns the canonical names of all registered languages.
func (w *Wrapper) Languages() []string {
	out := make([]string, len(w.names))
	copy(out, w.names)
	return out
}

// Lookup resolves a language name or alias, ignoring case and surrounding
// whitespace.
func (w *Wrapper) Lookup(name string) (Language, error) {
	lang, ok := w.languages[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
	}
	return lang, nil
}

// Wrap wraps a free function for the problem with the given title. The
// signature is taken from the configured resolver.
func (w *Wrapper) Wrap(userCode, problemTitle, language string) (Result, error) {
	return w.WrapRequest(Request{
		Code:     userCode,
		Problem:  ProblemSpec{Title: problemTitle},
		Language: language,
	})
}

// WrapRequest generates the program for req.
func (w *Wrapper) WrapRequest(req Request) (Result, error) {
	lang, ctx, err := w.Prepare(req)
	if err != nil {
		return Result{}, err
	}
	code, err := lang.Wrap(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("wrap %s: %w", lang.Name(), err)
	}
	return Result{
		WrappedCode:  code,
		Language:     lang.Name(),
		FunctionName: ctx.FunctionName,
	}, nil
}

// Prepare validates req and builds the template context without rendering.
func (w *Wrapper) Prepare(req Request) (Language, Context, error) {
	lang, err := w.Lookup(req.Language)
	if err != nil {
		return nil, Context{}, err
	}

	name := strings.TrimSpace(req.FunctionName)
	if name == "" {
		name = DeriveFunctionName(req.Problem.Title)
	}
	if name == "" {
		return nil, Context{}, fmt.Errorf("%w: title %q", ErrEmptyFunctionName, req.Problem.Title)
	}
	if !IsIdentifier(name) || lang.Keyword(name) {
		return nil, Context{}, fmt.Errorf("%w: %q in %s", ErrInvalidFunctionName, name, lang.Name())
	}

	problem := req.Problem
	if problem.SignatureHint == "" && w.resolver != nil {
		if resolved, ok := w.resolver.Resolve(name); ok {
			problem.SignatureHint = resolved.SignatureHint
			if problem.InputFormat == "" {
				problem.InputFormat = resolved.InputFormat
			}
		}
	}
	if strings.TrimSpace(problem.SignatureHint) == "" {
		return nil, Context{}, fmt.Errorf("%w: %s", ErrMissingSignature, name)
	}

	sig, err := ParseSignature(problem.SignatureHint)
	if err != nil {
		return nil, Context{}, err
	}
	for _, p := range sig.Params {
		if p.Name == name || lang.Keyword(p.Name) {
			return nil, Context{}, fmt.Errorf("%w: parameter name %q not usable in %s", ErrInvalidSignature, p.Name, lang.Name())
		}
	}

	input := DefaultInputFormat(sig)
	if strings.TrimSpace(problem.InputFormat) != "" {
		input, err = ParseInputFormat(problem.InputFormat)
		if err != nil {
			return nil, Context{}, err
		}
	}
	if err := input.Validate(sig); err != nil {
		return nil, Context{}, err
	}

	return lang, Context{
		Code:         req.Code,
		FunctionName: name,
		Shape:        req.Shape,
		Signature:    sig,
		Input:        input,
	}, nil
}
