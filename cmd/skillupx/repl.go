package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/skillupx/skillupx/problem"
	"github.com/skillupx/skillupx/wrapper"
)

const replHelp = `Lines without a leading ':' are added to the code buffer.

  :lang NAME      target language (python, javascript, java, cpp)
  :title TITLE    problem title; the function name is derived from it
  :name NAME      explicit function name
  :shape SHAPE    function or class
  :sig SIGNATURE  e.g. nums: int[], target: int -> int[]
  :input LAYOUT   stdin layout, lines separated by ';'
  :problem ID     load title, signature and layout from the catalog
  :show           print the current settings and code
  :wrap           print the wrapped program
  :reset          clear the code buffer
  :help           this text
  :quit           leave`

func newReplCmd(a *app) *cobra.Command {
	var (
		lang        string
		historyFile string
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive wrapping session",
		Long: `Start an interactive session: paste a solution, set the problem and
language with ':' commands and print the wrapped program with :wrap.

Features:
  - Command history (up/down arrows)
  - Line editing (left/right, backspace, delete)
  - History search (Ctrl+R)

Type :quit or press Ctrl+D to end the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if historyFile == "" {
				home, _ := os.UserHomeDir()
				historyFile = filepath.Join(home, ".skillupx_history")
			}

			store, closeStore, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()
			resolver, err := resolverFor(cmd.Context(), store)
			if err != nil {
				return err
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:            "> ",
				HistoryFile:       historyFile,
				HistoryLimit:      1000,
				InterruptPrompt:   "^C",
				EOFPrompt:         ":quit",
				HistorySearchFold: true,
				Stdin:             io.NopCloser(cmd.InOrStdin()),
				Stdout:            cmd.OutOrStdout(),
				Stderr:            cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("initialize readline: %w", err)
			}
			defer rl.Close()

			s := &replSession{
				wrapper: newWrapper(resolver),
				store:   resolver,
				lang:    lang,
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "skillupx repl (:help for commands, Ctrl+D to exit)")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("read input: %w", err)
				}
				if s.handle(line, cmd.OutOrStdout()) {
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "python", "Initial language")
	cmd.Flags().StringVar(&historyFile, "history", "", "History file path (default: ~/.skillupx_history)")
	return cmd
}

// replSession holds the state edited by repl commands.
type replSession struct {
	wrapper *wrapper.Wrapper
	store   problem.Store

	lang  string
	title string
	name  string
	shape wrapper.Shape
	sig   string
	input string
	code  []string
}

// handle runs one input line and reports whether the session should end.
func (s *replSession) handle(line string, out io.Writer) bool {
	if !strings.HasPrefix(line, ":") {
		s.code = append(s.code, line)
		return false
	}

	command, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "quit", "exit", "q":
		return true
	case "help", "h":
		fmt.Fprintln(out, replHelp)
	case "lang":
		if _, err := s.wrapper.Lookup(arg); err != nil {
			fmt.Fprintf(out, "error: %v (have %s)\n", err, strings.Join(s.wrapper.Languages(), ", "))
			return false
		}
		s.lang = arg
	case "title":
		s.title = arg
		fmt.Fprintf(out, "function name: %s\n", wrapper.DeriveFunctionName(arg))
	case "name":
		s.name = arg
	case "shape":
		shape, err := wrapper.ParseShape(arg)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		s.shape = shape
	case "sig":
		if _, err := wrapper.ParseSignature(arg); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		s.sig = arg
	case "input":
		if _, err := wrapper.ParseInputFormat(arg); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		s.input = arg
	case "problem":
		s.loadProblem(arg, out)
	case "show":
		s.show(out)
	case "wrap":
		res, err := s.wrapper.WrapRequest(s.request())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			return false
		}
		fmt.Fprint(out, res.WrappedCode)
	case "reset":
		s.code = nil
	default:
		fmt.Fprintf(out, "unknown command :%s (try :help)\n", command)
	}
	return false
}

func (s *replSession) request() wrapper.Request {
	return wrapper.Request{
		Code: strings.Join(s.code, "\n"),
		Problem: wrapper.ProblemSpec{
			Title:         s.title,
			SignatureHint: s.sig,
			InputFormat:   s.input,
		},
		Language:     s.lang,
		Shape:        s.shape,
		FunctionName: s.name,
	}
}

func (s *replSession) loadProblem(id string, out io.Writer) {
	p, err := s.store.Get(context.Background(), id)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	s.title = p.Title
	s.name = p.Function
	s.sig = p.Signature
	s.input = p.Input
	fmt.Fprintf(out, "loaded %s: %s(%s)\n", id, p.FunctionName(), p.Signature)
}

func (s *replSession) show(out io.Writer) {
	name := s.name
	if name == "" {
		name = wrapper.DeriveFunctionName(s.title)
	}
	fmt.Fprintf(out, "lang:  %s\ntitle: %s\nname:  %s\nshape: %s\nsig:   %s\ninput: %s\n",
		s.lang, s.title, name, s.shape, s.sig, s.input)
	fmt.Fprintf(out, "code (%d lines):\n%s\n", len(s.code), strings.Join(s.code, "\n"))
}
