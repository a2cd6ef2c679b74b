// Package kubecontrol consumes the cluster-context exchange: the target
// image registry, the cluster tag, and the labels that pin control-plane
// workloads.
package kubecontrol

import (
	"fmt"
	"sort"

	"github.com/go-logr/logr"

	"github.com/openstackops/cinder-csi-operator/internal/databag"
)

const endpoint = "kube-control"

// DefaultNodeSelector pins workloads to control-plane nodes when the
// exchange supplies no explicit labels.
var DefaultNodeSelector = map[string]string{
	"node-role.kubernetes.io/control-plane": "",
}

// ClusterContext is a snapshot of the cluster-context exchange.
type ClusterContext struct {
	Registry   string
	ClusterTag string
	Labels     map[string]string
}

// Requirer is the consuming side of the cluster-context exchange.
type Requirer struct {
	path string
	log  logr.Logger

	joined bool
	ctx    *ClusterContext
}

// NewRequirer creates a Requirer reading the exchange from path.
func NewRequirer(path string, log logr.Logger) *Requirer {
	return &Requirer{path: path, log: log.WithName(endpoint)}
}

// Refresh re-reads the exchange file.
func (r *Requirer) Refresh() {
	r.joined = false
	r.ctx = nil

	bag, err := databag.Load(r.path)
	if err != nil {
		if err != databag.ErrNotFound {
			r.joined = true
			r.log.Error(err, "cluster-context exchange data not yet valid")
		}
		return
	}
	r.joined = true

	ctx, err := parseContext(bag)
	if err != nil {
		r.log.Error(err, "cluster-context exchange data not yet valid")
		return
	}
	r.ctx = ctx
}

func parseContext(bag databag.Bag) (*ClusterContext, error) {
	registry, err := bag.String("image-registry")
	if err != nil {
		return nil, err
	}
	tag, err := bag.String("cluster-tag")
	if err != nil {
		return nil, err
	}
	labels, err := bag.StringMap("labels")
	if err != nil {
		return nil, err
	}

	ctx := &ClusterContext{Labels: labels}
	if registry != nil {
		ctx.Registry = *registry
	}
	if tag != nil {
		ctx.ClusterTag = *tag
	}
	return ctx, nil
}

// Joined reports whether the exchange exists at all.
func (r *Requirer) Joined() bool { return r.joined }

// Ready reports whether the registry and cluster tag have been supplied.
func (r *Requirer) Ready() bool {
	return r.ctx != nil && r.ctx.Registry != "" && r.ctx.ClusterTag != ""
}

// EvaluateRelation returns a human-readable reason why the exchange cannot
// be used yet, or "" when it is ready.
func (r *Requirer) EvaluateRelation() string {
	if r.Ready() {
		return ""
	}
	if !r.joined {
		return fmt.Sprintf("Missing required %s", endpoint)
	}
	return fmt.Sprintf("Waiting for %s", endpoint)
}

// Registry returns the configured registry location, or "" when unready.
func (r *Requirer) Registry() string {
	if !r.Ready() {
		return ""
	}
	return r.ctx.Registry
}

// ClusterTag returns the cluster identifier, or "" when unready.
func (r *Requirer) ClusterTag() string {
	if !r.Ready() {
		return ""
	}
	return r.ctx.ClusterTag
}

// NodeSelector returns the control-plane selector labels, falling back to
// DefaultNodeSelector when the exchange supplies none.
func (r *Requirer) NodeSelector() map[string]string {
	if r.ctx == nil || len(r.ctx.Labels) == 0 {
		return DefaultNodeSelector
	}
	return r.ctx.Labels
}

// SortedSelectorKeys returns the selector keys in deterministic order.
func SortedSelectorKeys(selector map[string]string) []string {
	keys := make([]string, 0, len(selector))
	for k := range selector {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
