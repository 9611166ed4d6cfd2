package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/skillupx/skillupx/language"
	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/wrapper"
)

var errLanguageRequired = errors.New("language required: use --lang or a file with a known extension")

// wrapFlags are the inputs shared by wrap and run.
type wrapFlags struct {
	code      string
	lang      string
	title     string
	shape     string
	signature string
	input     string
	name      string
	problemID string
}

func (f *wrapFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.code, "code", "c", "", "Code to wrap (default: file argument or stdin)")
	fs.StringVarP(&f.lang, "lang", "l", "", "Language: python, javascript, java, cpp (default: from file extension)")
	fs.StringVarP(&f.title, "title", "t", "", "Problem title the function name is derived from")
	fs.StringVar(&f.shape, "shape", "function", "Submission shape: function or class")
	fs.StringVar(&f.signature, "signature", "", `Signature, e.g. "nums: int[], target: int -> int[]"`)
	fs.StringVar(&f.input, "input", "", `Stdin layout, one line per ';', e.g. "n target; nums"`)
	fs.StringVar(&f.name, "name", "", "Function name (overrides the derived one)")
	fs.StringVarP(&f.problemID, "problem", "p", "", "Catalog problem id supplying title, signature and tests")
}

// readSource returns the code from --code, the file argument or stdin, and
// the file name when there is one.
func readSource(cmd *cobra.Command, code string, args []string) (string, string, error) {
	switch {
	case code != "":
		return code, "", nil
	case len(args) > 0 && args[0] != "-":
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", err
		}
		return string(data), args[0], nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "", nil
	}
}

// request builds the wrapper request. The returned problem is non-nil when
// --problem named a catalog entry.
func (f *wrapFlags) request(ctx context.Context, cmd *cobra.Command, store problem.Store, args []string) (wrapper.Request, *problem.Problem, error) {
	source, filename, err := readSource(cmd, f.code, args)
	if err != nil {
		return wrapper.Request{}, nil, err
	}

	lang := f.lang
	if lang == "" {
		lang = language.FromFilename(filename)
	}
	if lang == "" {
		return wrapper.Request{}, nil, errLanguageRequired
	}

	shape, err := wrapper.ParseShape(f.shape)
	if err != nil {
		return wrapper.Request{}, nil, err
	}

	req := wrapper.Request{
		Code:         source,
		Problem:      wrapper.ProblemSpec{Title: f.title},
		Language:     lang,
		Shape:        shape,
		FunctionName: f.name,
	}

	var p *problem.Problem
	if f.problemID != "" {
		found, err := store.Get(ctx, f.problemID)
		if err != nil {
			return wrapper.Request{}, nil, err
		}
		p = &found
		req.Problem = found.Spec()
		if req.FunctionName == "" {
			req.FunctionName = found.Function
		}
		if f.title != "" {
			req.Problem.Title = f.title
		}
	}
	if f.signature != "" {
		req.Problem.SignatureHint = f.signature
	}
	if f.input != "" {
		req.Problem.InputFormat = f.input
	}
	return req, p, nil
}

func newWrapper(resolver wrapper.Resolver) *wrapper.Wrapper {
	return wrapper.New(
		wrapper.WithLanguages(language.All()...),
		wrapper.WithResolver(resolver),
	)
}
