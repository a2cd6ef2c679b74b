package commands

import (
	"github.com/spf13/cobra"

	"github.com/openstackops/cinder-csi-operator/cmd/cinder-csi-operator/handlers"
)

// Apply returns the command for installing or updating the CSI driver.
//
// Optional flags:
//
//	--config, -c: Path to operator configuration YAML file (default: cinder-csi-operator.yaml)
//	--upgrade:    Dispatch an upgrade event instead of install
func Apply() *cobra.Command {
	var (
		configPath string
		upgrade    bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Install or update the Cinder CSI driver",
		Long: `Install or update the Cinder CSI driver.

This command merges the OpenStack credential exchange, the cluster-context
exchange and local configuration, renders the full manifest set and applies
it with server-side apply.

Examples:
  # Install using cinder-csi-operator.yaml in the current directory
  cinder-csi-operator apply

  # Install using a specific config file
  cinder-csi-operator apply -c production.yaml

  # Re-render and apply after changing the pinned release
  cinder-csi-operator apply --upgrade`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath, upgrade)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cinder-csi-operator.yaml)")
	cmd.Flags().BoolVar(&upgrade, "upgrade", false, "Dispatch an upgrade event instead of install")

	return cmd
}
