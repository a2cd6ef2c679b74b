package commands

import (
	"github.com/spf13/cobra"

	"github.com/openstackops/cinder-csi-operator/cmd/cinder-csi-operator/handlers"
)

// Serve returns the command running the long-lived event endpoint.
//
// Optional flags:
//
//	--config, -c: Path to operator configuration YAML file
//	--listen:     Address the HTTP endpoint binds to (default :8080)
func Serve() *cobra.Command {
	var (
		configPath string
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP event endpoint",
		Long: `Run the HTTP event endpoint.

Lifecycle events are delivered as POST /hooks/{event} where event is one of
install, upgrade, config-changed, credentials-changed or stop. The endpoint
also serves GET /healthz and GET /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath, listenAddr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cinder-csi-operator.yaml)")
	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "Address the HTTP endpoint binds to")

	return cmd
}
