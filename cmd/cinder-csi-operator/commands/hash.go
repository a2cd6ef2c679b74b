package commands

import (
	"github.com/spf13/cobra"

	"github.com/openstackops/cinder-csi-operator/cmd/cinder-csi-operator/handlers"
)

// Hash returns the command for printing the merged configuration hash.
func Hash() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Print the digest of the merged configuration",
		Long: `Print the digest of the merged configuration.

The digest is stable across runs for identical inputs; comparing it against
the hash of the last applied configuration tells whether a re-apply would
change anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Hash(configPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: cinder-csi-operator.yaml)")

	return cmd
}
