package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/openstackops/cinder-csi-operator/internal/lifecycle"
	"github.com/openstackops/cinder-csi-operator/internal/ui"
)

// Status evaluates the exchanges and workloads and writes a report to out.
// It never mutates the cluster.
func Status(ctx context.Context, configPath string, out io.Writer) error {
	s, err := newSession(configPath, true)
	if err != nil {
		return err
	}
	s.refresh()

	ready, err := s.driver.IsReady(ctx)
	if err != nil {
		s.log.Error(err, "failed to check workload readiness")
		ready = false
	}

	state, reason := evaluateState(s, ready)

	status := ui.Status{
		State:   state,
		Reason:  reason,
		Release: s.driver.Release(),
		Ready:   ready,
	}
	if state != lifecycle.StateBlocked && state != lifecycle.StateWaiting {
		status.Hash = s.driver.Hash()
	}

	_, err = fmt.Fprint(out, ui.RenderStatus(status))
	return err
}

// evaluateState derives the operator state without dispatching an event.
func evaluateState(s *session, ready bool) (lifecycle.State, string) {
	if reason := s.evaluateRelations(); reason != "" {
		if strings.HasPrefix(reason, "Missing") {
			return lifecycle.StateBlocked, reason
		}
		return lifecycle.StateWaiting, reason
	}
	if reason := s.driver.Evaluate(); reason != "" {
		return lifecycle.StateWaiting, reason
	}
	if !ready {
		return lifecycle.StateApplying, "Waiting for workloads to become ready"
	}
	return lifecycle.StateActive, "Storage manifests applied"
}
