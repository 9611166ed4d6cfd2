package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillupx/skillupx/runner"
	"github.com/skillupx/skillupx/runner/wasm"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "fetch LANGUAGE URL",
		Short: "Download a WASI interpreter for the wasm backend",
		Long: `Download a WASI interpreter module used by the wasm backend.

The module is saved to --output, or to the path configured for the language
(SKILLUPX_WASM_PYTHON or SKILLUPX_WASM_JAVASCRIPT). An existing file is kept.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, url := args[0], args[1]
			dest := output
			if dest == "" {
				switch lang {
				case "python":
					dest = a.cfg.WasmPython
				case "javascript":
					dest = a.cfg.WasmJavaScript
				default:
					return fmt.Errorf("%w: %s (the wasm backend runs python and javascript)", runner.ErrUnsupportedLanguage, lang)
				}
			}
			if dest == "" {
				return fmt.Errorf("no destination for %s: pass --output", lang)
			}

			fetched, err := wasm.Fetch(cmd.Context(), &http.Client{Timeout: timeout}, url, dest)
			if err != nil {
				return err
			}
			if !fetched {
				a.logger.Info("interpreter already present", "language", lang, "path", dest)
				return nil
			}
			a.logger.Info("interpreter downloaded", "language", lang, "path", dest)
			fmt.Fprintln(cmd.OutOrStdout(), dest)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Download timeout")
	return cmd
}
