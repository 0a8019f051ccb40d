package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/salesonboard/internal/app"
	handler "github.com/utafrali/salesonboard/internal/handler/http"
)

func newDebugCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect the client's network activity",
	}
	cmd.AddCommand(newDebugServeCmd(e))
	return cmd
}

func newDebugServeCmd(e *env) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics, pprof and the network log on loopback",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := e.app
			if !cmd.Flags().Changed("port") {
				port = a.Config.DebugHTTPPort
			}
			router := handler.NewRouter(a.NetLog, a.Health, a.Logger)
			return handler.NewServer(port, router, a.Logger).Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from ONBOARD_DEBUG_HTTP_PORT)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the CLI version",
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", app.ServiceName, app.Version)
			return nil
		},
	}
}
