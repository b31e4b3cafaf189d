package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibekit/rulehub/pkg/mcp"
)

type ServeArgs struct {
	Address string
}

func NewServeCmd(ra *RootArgs) *cobra.Command {
	args := &ServeArgs{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP server",
		Long: `Expose the rule catalog and package generation as MCP tools. Without an
address the server speaks MCP over stdio; with one it serves streamable
HTTP on that address.`,
		Example: `  rulehub serve
  rulehub serve --address localhost:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, ra, func(a *app) error {
				addr := args.Address
				if addr == "" && !cmd.Flags().Changed("address") {
					addr = a.cfg.MCP.Address
				}

				srv, err := mcp.NewServer(addr, a.store, a.generator, a.store)
				if err != nil {
					return fmt.Errorf("create MCP server: %w", err)
				}

				err = srv.Serve(cmd.Context())
				if err != nil {
					return fmt.Errorf("serve MCP: %w", err)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&args.Address, "address", "", "HTTP address to listen on (default: stdio, or mcp.address from the config)")

	return cmd
}
