package commands

import (
	"github.com/spf13/cobra"

	"github.com/openstackops/cinder-csi-operator/cmd/cinder-csi-operator/handlers"
)

// Render returns the command printing the rendered manifest set.
func Render() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the rendered manifest set without applying it",
		Long: `Print the rendered manifest set without applying it.

The output is multi-document YAML: the cloud configuration Secret (when the
credential exchange is ready), the patched upstream documents of the
selected release, and the StorageClass.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Render(configPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cinder-csi-operator.yaml)")

	return cmd
}
