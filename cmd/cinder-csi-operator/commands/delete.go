package commands

import (
	"github.com/spf13/cobra"

	"github.com/openstackops/cinder-csi-operator/cmd/cinder-csi-operator/handlers"
)

// Delete returns the command for removing the CSI driver from the cluster.
func Delete() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the Cinder CSI driver from the cluster",
		Long: `Remove the Cinder CSI driver from the cluster.

This dispatches a stop event: the rendered resource set is deleted in
reverse apply order. Resources that are already gone are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Delete(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cinder-csi-operator.yaml)")

	return cmd
}
