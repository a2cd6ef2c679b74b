// Package lifecycle turns externally driven events into reconciliation
// actions and tracks the resulting operator state.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// State is the externally visible condition of the operator.
type State string

const (
	// StateBlocked means a required input is missing and operator action
	// cannot proceed until it is provided.
	StateBlocked State = "blocked"
	// StateWaiting means a required input exists but has not delivered its
	// data yet.
	StateWaiting State = "waiting"
	// StateApplying means a reconciliation pass is in flight.
	StateApplying State = "applying"
	// StateActive means the resource set matching the current configuration
	// has been applied.
	StateActive State = "active"
	// StateShuttingDown means teardown has started.
	StateShuttingDown State = "shutting-down"
)

// Event is an externally driven lifecycle trigger.
type Event string

const (
	EventInstall            Event = "install"
	EventUpgrade            Event = "upgrade"
	EventConfigChanged      Event = "config-changed"
	EventCredentialsChanged Event = "credentials-changed"
	EventStop               Event = "stop"
)

// Reconciler is the reconciliation surface the manager drives.
type Reconciler interface {
	// Refresh re-reads the external data exchanges.
	Refresh() error
	// EvaluateRelations reports a missing or unready exchange, or "".
	EvaluateRelations() string
	// Evaluate reports missing merged configuration, or "".
	Evaluate() string
	// Hash digests the current merged configuration.
	Hash() string
	// Apply installs the rendered resource set.
	Apply(ctx context.Context) error
	// Delete removes the rendered resource set.
	Delete(ctx context.Context) error
}

// Manager dispatches lifecycle events against a Reconciler. Install and
// upgrade always apply; change events skip the apply when the configuration
// hash matches what is already active.
type Manager struct {
	rec Reconciler
	log logr.Logger

	mu          sync.Mutex
	state       State
	reason      string
	appliedHash string
}

// NewManager creates a manager in the waiting state.
func NewManager(rec Reconciler, log logr.Logger) *Manager {
	m := &Manager{
		rec:    rec,
		log:    log,
		state:  StateWaiting,
		reason: "Waiting for first event",
	}
	recordState(m.state)
	return m
}

// State returns the current state and its human-readable reason.
func (m *Manager) State() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.reason
}

// AppliedHash returns the configuration hash of the last successful apply,
// or "" when nothing has been applied.
func (m *Manager) AppliedHash() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appliedHash
}

// Dispatch runs one lifecycle event to completion.
func (m *Manager) Dispatch(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Info("Dispatching event", "event", event, "state", m.state)
	recordEvent(event)

	switch event {
	case EventInstall, EventUpgrade:
		return m.reconcile(ctx, false)
	case EventConfigChanged, EventCredentialsChanged:
		return m.reconcile(ctx, true)
	case EventStop:
		return m.shutdown(ctx)
	default:
		return fmt.Errorf("unknown event %q", event)
	}
}

// reconcile runs one reconciliation pass. skipUnchanged suppresses the
// apply when the operator is active and the configuration hash matches the
// last applied one.
func (m *Manager) reconcile(ctx context.Context, skipUnchanged bool) error {
	if err := m.rec.Refresh(); err != nil {
		m.transition(StateBlocked, err.Error())
		return fmt.Errorf("failed to refresh exchanges: %w", err)
	}

	if reason := m.rec.EvaluateRelations(); reason != "" {
		if strings.HasPrefix(reason, "Missing") {
			m.transition(StateBlocked, reason)
		} else {
			m.transition(StateWaiting, reason)
		}
		return nil
	}

	if reason := m.rec.Evaluate(); reason != "" {
		m.transition(StateWaiting, reason)
		return nil
	}

	hash := m.rec.Hash()
	if skipUnchanged && m.state == StateActive && hash == m.appliedHash {
		m.log.V(1).Info("Configuration unchanged, skipping apply", "hash", hash)
		recordApply("skipped")
		return nil
	}

	m.transition(StateApplying, "Applying storage manifests")
	if err := m.rec.Apply(ctx); err != nil {
		m.transition(StateBlocked, err.Error())
		recordApply("error")
		return fmt.Errorf("failed to apply: %w", err)
	}

	m.appliedHash = hash
	m.transition(StateActive, "Storage manifests applied")
	recordApply("applied")
	return nil
}

func (m *Manager) shutdown(ctx context.Context) error {
	// Refresh so the rendered set matches what was applied, including the
	// credential-derived Secret.
	if err := m.rec.Refresh(); err != nil {
		m.transition(StateBlocked, err.Error())
		return fmt.Errorf("failed to refresh exchanges: %w", err)
	}

	m.transition(StateShuttingDown, "Removing storage manifests")
	if err := m.rec.Delete(ctx); err != nil {
		m.transition(StateBlocked, err.Error())
		return fmt.Errorf("failed to delete: %w", err)
	}
	m.appliedHash = ""
	m.transition(StateShuttingDown, "Storage manifests removed")
	return nil
}

// transition records a state change. Callers hold m.mu.
func (m *Manager) transition(state State, reason string) {
	if m.state != state {
		m.log.Info("State transition", "from", m.state, "to", state, "reason", reason)
	}
	m.state = state
	m.reason = reason
	recordState(state)
}
