// Package main is the entry point for the cinder-csi-operator CLI.
//
// cinder-csi-operator installs and manages the OpenStack Cinder CSI driver
// on a Kubernetes cluster. It merges OpenStack credentials, cluster context
// and local configuration into one rendered resource set and keeps the
// cluster in sync with it.
//
// Commands: apply, delete, status, hash, serve, version.
//
// For detailed usage information, run:
//
//	cinder-csi-operator --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/openstackops/cinder-csi-operator/cmd/cinder-csi-operator/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
