package handlers

import (
	"context"

	"github.com/openstackops/cinder-csi-operator/internal/lifecycle"
)

// Delete removes the Cinder CSI driver by dispatching a stop event.
func Delete(ctx context.Context, configPath string) error {
	s, err := newSession(configPath, true)
	if err != nil {
		return err
	}
	return s.manager.Dispatch(ctx, lifecycle.EventStop)
}
