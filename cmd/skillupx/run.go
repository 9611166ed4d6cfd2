package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillupx/skillupx/runner"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		flags     wrapFlags
		stdinFile string
		expected  string
		tests     bool
		timeLimit time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Wrap a submission and execute it",
		Long: `Wrap a submission and execute it on the configured backend
(SKILLUPX_BACKEND: docker, judge0 or wasm).

With --stdin the program runs once and its output is printed. With --tests
it runs against every test case of the --problem catalog entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, closeStore, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore()
			resolver, err := resolverFor(ctx, store)
			if err != nil {
				return err
			}

			req, p, err := flags.request(ctx, cmd, store, args)
			if err != nil {
				return err
			}
			if tests && p == nil {
				return fmt.Errorf("--tests needs --problem")
			}
			wrapped, err := newWrapper(resolver).WrapRequest(req)
			if err != nil {
				return err
			}

			r, closeRunner, err := a.newRunner(ctx)
			if err != nil {
				return err
			}
			defer closeRunner()

			limit := a.cfg.TimeLimit
			if timeLimit > 0 {
				limit = timeLimit
			}
			sub := runner.Submission{
				Language:      wrapped.Language,
				Source:        wrapped.WrappedCode,
				TimeLimit:     limit,
				MemoryLimitKB: a.cfg.MemoryLimitKB,
			}
			out := cmd.OutOrStdout()

			if tests {
				report, err := runner.RunCases(ctx, r, sub, p.Tests, runner.WithConcurrency(a.cfg.Concurrency))
				if err != nil {
					return err
				}
				printReport(out, report)
				if report.Status != runner.StatusAccepted {
					return fmt.Errorf("%d/%d cases passed", report.Passed, report.Total)
				}
				return nil
			}

			if stdinFile != "" {
				data, err := os.ReadFile(stdinFile)
				if err != nil {
					return err
				}
				sub.Stdin = string(data)
			}
			res, err := r.Run(ctx, sub)
			if err != nil {
				return err
			}
			if expected != "" {
				want, err := os.ReadFile(expected)
				if err != nil {
					return err
				}
				res = runner.Judge(res, string(want))
			}

			fmt.Fprint(out, res.Stdout)
			if res.CompileOutput != "" {
				fmt.Fprint(cmd.ErrOrStderr(), res.CompileOutput)
			}
			if res.Stderr != "" {
				fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
			}
			a.logger.Info("run finished", "backend", r.Name(), "status", res.Status, "time", res.Time)
			if res.Status != runner.StatusAccepted {
				return fmt.Errorf("%s%s", res.Status, suffix(res.Message))
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&stdinFile, "stdin", "", "File fed to the program's stdin")
	cmd.Flags().StringVar(&expected, "expected", "", "File with the expected output; a mismatch is a wrong answer")
	cmd.Flags().BoolVar(&tests, "tests", false, "Run the catalog test cases of --problem")
	cmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "Per-run time limit (default from SKILLUPX_TIME_LIMIT)")
	return cmd
}

func printReport(w io.Writer, report runner.Report) {
	for _, c := range report.Cases {
		mark := "FAIL"
		if c.Passed {
			mark = "ok"
		}
		fmt.Fprintf(w, "%-4s case %d: %s (%v)%s\n", mark, c.Index+1, c.Result.Status, c.Result.Time.Round(time.Millisecond), suffix(c.Error))
	}
	fmt.Fprintf(w, "%d/%d passed: %s\n", report.Passed, report.Total, report.Status)
}

func suffix(msg string) string {
	if msg == "" {
		return ""
	}
	return ": " + msg
}
