// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated to
// handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the cinder-csi-operator CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cinder-csi-operator",
		Short: "Manage the OpenStack Cinder CSI driver on a Kubernetes cluster",
	}

	cmd.AddCommand(Apply())
	cmd.AddCommand(Delete())
	cmd.AddCommand(Status())
	cmd.AddCommand(Render())
	cmd.AddCommand(Hash())
	cmd.AddCommand(Serve())
	cmd.AddCommand(Version())

	return cmd
}
