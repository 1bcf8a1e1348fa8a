package cmd

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP and the REST API",
		Long: `serve runs until interrupted. With --transport=stdio it speaks MCP over
stdin/stdout and logs to stderr; with --transport=http it serves /mcp, /v1,
health and metrics routes on --port.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := appFrom(cmd)
			if err != nil {
				return err
			}
			return appInstance.Run(cmd.Context())
		},
	}

	cmd.Flags().String("transport", "", "override server.transport (http or stdio)")
	cmd.Flags().Int("port", 0, "override server.port for the http transport")
	cmd.Flags().Bool("ignore-robots", false, "skip robots.txt enforcement")
	return cmd
}
