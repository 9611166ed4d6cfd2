package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillupx/skillupx/wrapper"
)

func newWrapCmd(a *app) *cobra.Command {
	var (
		flags  wrapFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "wrap [file]",
		Short: "Print the runnable program for a submission",
		Long: `Wrap a submission into a complete program that reads the problem's
input from stdin and prints the function's result.

Code can be provided via:
  - File argument: skillupx wrap solution.py -t "Two Sum"
  - Inline flag:   skillupx wrap -l js -t "Two Sum" -c 'function twoSum(a, t) {...}'
  - Stdin:         cat Solution.java | skillupx wrap -l java -p two-sum --shape class

The signature comes from --signature or from the catalog entry matching
--problem or the derived function name.`,
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

			req, _, err := flags.request(ctx, cmd, store, args)
			if err != nil {
				return err
			}
			res, err := newWrapper(resolver).WrapRequest(req)
			if err != nil {
				return err
			}
			a.logger.Debug("wrapped", "language", res.Language, "function", res.FunctionName)

			if output != "" {
				return os.WriteFile(output, []byte(res.WrappedCode), 0o644)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), res.WrappedCode)
			return err
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the program to this file instead of stdout")
	return cmd
}

func newNameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "name TITLE...",
		Short: "Print the function name derived from a problem title",
		Example: `  skillupx name "Two Sum"            # twoSum
  skillupx name "Valid Parentheses"  # validParentheses`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var bad int
			for _, title := range args {
				name := wrapper.DeriveFunctionName(title)
				fmt.Fprintln(cmd.OutOrStdout(), name)
				if !wrapper.IsIdentifier(name) {
					a.logger.Warn("title does not derive to an identifier", "title", title, "name", name)
					bad++
				}
			}
			if bad > 0 {
				return fmt.Errorf("%d title(s) need an explicit --name", bad)
			}
			return nil
		},
	}
}
