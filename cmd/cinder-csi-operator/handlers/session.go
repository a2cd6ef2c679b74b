// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic and
// can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"

	"github.com/openstackops/cinder-csi-operator/internal/config"
	"github.com/openstackops/cinder-csi-operator/internal/integrator"
	"github.com/openstackops/cinder-csi-operator/internal/k8sclient"
	"github.com/openstackops/cinder-csi-operator/internal/kubecontrol"
	"github.com/openstackops/cinder-csi-operator/internal/lifecycle"
	"github.com/openstackops/cinder-csi-operator/internal/manifests"
)

const defaultConfigPath = "cinder-csi-operator.yaml"

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newClient creates the cluster client from kubeconfig bytes.
	newClient = k8sclient.NewFromKubeconfig

	// readFile reads a file (for testing injection).
	readFile = os.ReadFile
)

// newLogger builds the zap-backed logger handlers run with. DEBUG=true
// switches to the development configuration.
func newLogger() (logr.Logger, error) {
	var (
		zl  *zap.Logger
		err error
	)
	if os.Getenv("DEBUG") == "true" {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Logger{}, fmt.Errorf("failed to build logger: %w", err)
	}
	return zapr.NewLogger(zl), nil
}

// session wires the exchanges, the reconciliation driver and the lifecycle
// manager for one command invocation.
type session struct {
	cfg     *config.Config
	creds   *integrator.Requirer
	cluster *kubecontrol.Requirer
	driver  *manifests.Driver
	manager *lifecycle.Manager
	log     logr.Logger
}

// newSession loads configuration and wires the operator components.
// withCluster controls whether a cluster client is built; evaluate-only
// commands run without one.
func newSession(configPath string, withCluster bool) (*session, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	var client k8sclient.Client
	if withCluster {
		if cfg.Kubeconfig == "" {
			return nil, fmt.Errorf("kubeconfig is required")
		}
		kubeconfig, err := readFile(cfg.Kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to read kubeconfig: %w", err)
		}
		if client, err = newClient(kubeconfig); err != nil {
			return nil, err
		}
	}

	s := &session{
		cfg:     cfg,
		creds:   integrator.NewRequirer(cfg.CredentialsFile, log),
		cluster: kubecontrol.NewRequirer(cfg.ClusterContextFile, log),
		log:     log,
	}
	s.driver = manifests.NewDriver(client, s.creds, s.cluster, cfg.AvailableData, log)
	s.manager = lifecycle.NewManager(&reconciler{s: s}, log)
	return s, nil
}

// refresh re-reads both exchanges.
func (s *session) refresh() {
	s.creds.Refresh()
	s.cluster.Refresh()
}

// evaluateRelations reports the first unready exchange, or "".
func (s *session) evaluateRelations() string {
	if reason := s.creds.EvaluateRelation(); reason != "" {
		return reason
	}
	return s.cluster.EvaluateRelation()
}

// reconciler adapts a session to the lifecycle manager's surface.
type reconciler struct {
	s *session
}

func (r *reconciler) Refresh() error {
	r.s.refresh()
	return nil
}

func (r *reconciler) EvaluateRelations() string { return r.s.evaluateRelations() }

func (r *reconciler) Evaluate() string { return r.s.driver.Evaluate() }

func (r *reconciler) Hash() string { return r.s.driver.Hash() }

func (r *reconciler) Apply(ctx context.Context) error { return r.s.driver.Apply(ctx) }

func (r *reconciler) Delete(ctx context.Context) error { return r.s.driver.Delete(ctx) }
