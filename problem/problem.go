// Package problem holds the catalog of practice problems: their titles,
// signatures, stdin layouts and test cases.
//
// A catalog can live in memory (loaded from YAML) or in Postgres. The
// in-memory store also resolves problem details by function name for the
// wrapper.
package problem

import (
	"context"
	"errors"
	"fmt"

	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/wrapper"
)

var (
	ErrNotFound       = errors.New("problem not found")
	ErrInvalidProblem = errors.New("invalid problem")
)

// Problem is one catalog entry.
type Problem struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	// Function overrides the name derived from Title, for titles that do not
	// derive to an identifier ("3Sum", "Pow(x, n)").
	Function   string            `json:"function,omitempty" yaml:"function,omitempty"`
	Difficulty string            `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Signature  string            `json:"signature" yaml:"signature"`
	Input      string            `json:"input,omitempty" yaml:"input,omitempty"`
	Tests      []runner.TestCase `json:"tests,omitempty" yaml:"tests,omitempty"`
}

// FunctionName is the entry point name submissions must define.
func (p Problem) FunctionName() string {
	if p.Function != "" {
		return p.Function
	}
	return wrapper.DeriveFunctionName(p.Title)
}

// Spec returns the wrapper-facing part of the problem.
func (p Problem) Spec() wrapper.ProblemSpec {
	return wrapper.ProblemSpec{
		Title:         p.Title,
		SignatureHint: p.Signature,
		InputFormat:   p.Input,
	}
}

// Validate checks that the problem can be wrapped.
func (p Problem) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProblem)
	}
	if p.Title == "" {
		return fmt.Errorf("%w %s: missing title", ErrInvalidProblem, p.ID)
	}
	if name := p.FunctionName(); !wrapper.IsIdentifier(name) {
		return fmt.Errorf("%w %s: function name %q is not an identifier", ErrInvalidProblem, p.ID, name)
	}
	sig, err := wrapper.ParseSignature(p.Signature)
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidProblem, p.ID, err)
	}
	format := wrapper.DefaultInputFormat(sig)
	if p.Input != "" {
		if format, err = wrapper.ParseInputFormat(p.Input); err != nil {
			return fmt.Errorf("%w %s: %w", ErrInvalidProblem, p.ID, err)
		}
	}
	if err := format.Validate(sig); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidProblem, p.ID, err)
	}
	return nil
}

// Summary is the listing view of a problem.
type Summary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	FunctionName string `json:"functionName"`
	Difficulty   string `json:"difficulty,omitempty"`
	Tests        int    `json:"tests"`
}

// Summarize returns the listing view of p.
func (p Problem) Summarize() Summary {
	return Summary{
		ID:           p.ID,
		Title:        p.Title,
		FunctionName: p.FunctionName(),
		Difficulty:   p.Difficulty,
		Tests:        len(p.Tests),
	}
}

// Store persists problems.
type Store interface {
	Get(ctx context.Context, id string) (Problem, error)
	// List returns every problem ordered by id.
	List(ctx context.Context) ([]Problem, error)
	Put(ctx context.Context, p Problem) error
}
