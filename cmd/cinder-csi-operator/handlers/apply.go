package handlers

import (
	"context"
	"fmt"

	"github.com/openstackops/cinder-csi-operator/internal/lifecycle"
)

// Apply installs or updates the Cinder CSI driver by dispatching an install
// or upgrade event against the lifecycle manager.
func Apply(ctx context.Context, configPath string, upgrade bool) error {
	s, err := newSession(configPath, true)
	if err != nil {
		return err
	}

	event := lifecycle.EventInstall
	if upgrade {
		event = lifecycle.EventUpgrade
	}

	if err := s.manager.Dispatch(ctx, event); err != nil {
		return err
	}

	state, reason := s.manager.State()
	if state != lifecycle.StateActive {
		return fmt.Errorf("%s", reason)
	}
	s.log.Info("Apply complete", "hash", s.manager.AppliedHash(), "release", s.driver.Release())
	return nil
}
