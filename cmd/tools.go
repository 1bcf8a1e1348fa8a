package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/stayscout/internal/toolerr"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and invoke tools without starting a server",
	}
	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsCallCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every tool descriptor as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"tools": appInstance.Dispatcher().ListTools()})
		},
	}
}

func newToolsCallCmd() *cobra.Command {
	var rawArgs string
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Invoke one tool and print its result envelope",
		Example: `  stayscout tools call search --args '{"location":"Paris","adults":2}'
  stayscout tools call detail --args '{"listing_id":"12345"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := appFrom(cmd)
			if err != nil {
				return err
			}
			callArgs, err := parseArgs(rawArgs)
			if err != nil {
				return err
			}

			res, err := appInstance.Dispatcher().CallTool(cmd.Context(), args[0], callArgs)
			if err != nil {
				te := toolerr.As(err)
				appInstance.Logger().Debug("tool call failed", zap.String("tool", args[0]), zap.Error(err))
				if perr := printJSON(cmd.OutOrStdout(), map[string]any{"error": te.Body()}); perr != nil {
					return perr
				}
				return te
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&rawArgs, "args", "{}", "tool arguments as a JSON object")
	return cmd
}

// parseArgs decodes a JSON object, keeping numbers as json.Number the way the
// REST surface does.
func parseArgs(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

func printJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
