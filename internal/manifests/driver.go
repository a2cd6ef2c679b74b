package manifests

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/openstackops/cinder-csi-operator/internal/k8sclient"
)

const (
	// Namespace is where every namespaced resource of the set lives.
	Namespace = "kube-system"

	// FieldManager identifies this operator to Server-Side Apply.
	FieldManager = "cinder-csi-operator"
)

// Driver renders the full Cinder CSI resource set from the merged
// configuration and drives it against the cluster.
type Driver struct {
	client  k8sclient.Client
	creds   CredentialSource
	cluster ClusterSource
	local   func() map[string]any
	log     logr.Logger
}

// NewDriver wires a reconciliation driver. local supplies the user
// configuration overlay and is re-read on every pass.
func NewDriver(client k8sclient.Client, creds CredentialSource, cluster ClusterSource, local func() map[string]any, log logr.Logger) *Driver {
	return &Driver{
		client:  client,
		creds:   creds,
		cluster: cluster,
		local:   local,
		log:     log,
	}
}

// Config synthesizes the merged configuration for the current pass.
func (d *Driver) Config() Config {
	var overlay map[string]any
	if d.local != nil {
		overlay = d.local()
	}
	return Synthesize(d.creds, d.cluster, overlay)
}

// Hash returns the digest of the current merged configuration.
func (d *Driver) Hash() string {
	return d.Config().Hash()
}

// Evaluate returns a reason the resource set cannot be applied yet, or ""
// when all required configuration is present.
func (d *Driver) Evaluate() string {
	return d.Config().Evaluate()
}

// Release returns the upstream release selected by configuration, falling
// back to the newest bundled release.
func (d *Driver) Release() string {
	if release := d.Config().str("release"); release != "" {
		return release
	}
	return DefaultRelease()
}

// Render produces the complete, patched resource list: the cloud
// configuration Secret, the upstream documents of the selected release, and
// the StorageClass. Templates are deep-copied so the bundle stays pristine.
func (d *Driver) Render() ([]*unstructured.Unstructured, error) {
	cfg := d.Config()

	release := cfg.str("release")
	if release == "" {
		release = DefaultRelease()
	}

	templates, err := LoadRelease(release)
	if err != nil {
		return nil, err
	}

	var resources []*unstructured.Unstructured

	secret, err := buildSecret(cfg, Namespace)
	if err != nil {
		return nil, err
	}
	if secret != nil {
		resources = append(resources, secret)
	}

	for _, template := range templates {
		resources = append(resources, template.DeepCopy())
	}

	class, err := buildStorageClass(cfg)
	if err != nil {
		return nil, err
	}
	resources = append(resources, class)

	for _, obj := range resources {
		for _, patch := range patchers {
			if err := patch(cfg, obj); err != nil {
				return nil, fmt.Errorf("failed to patch %s/%s: %w", obj.GetKind(), obj.GetName(), err)
			}
		}
	}

	return resources, nil
}

// Apply renders the resource set and applies it with Server-Side Apply.
// It refuses to apply while required configuration is missing.
func (d *Driver) Apply(ctx context.Context) error {
	if reason := d.Evaluate(); reason != "" {
		return fmt.Errorf("cannot apply: %s", reason)
	}

	resources, err := d.Render()
	if err != nil {
		return fmt.Errorf("failed to render resources: %w", err)
	}

	d.log.Info("Applying resource set", "release", d.Release(), "resources", len(resources))
	for _, obj := range resources {
		if err := d.client.ApplyObject(ctx, obj, FieldManager); err != nil {
			d.logDiagnostics(ctx, obj.GetKind(), obj.GetName())
			return fmt.Errorf("failed to apply %s/%s: %w", obj.GetKind(), obj.GetName(), err)
		}
		d.log.V(1).Info("Applied", "kind", obj.GetKind(), "name", obj.GetName())
	}
	return nil
}

// Delete removes the rendered resource set from the cluster in reverse
// apply order. Missing objects are not an error.
func (d *Driver) Delete(ctx context.Context) error {
	resources, err := d.Render()
	if err != nil {
		return fmt.Errorf("failed to render resources: %w", err)
	}

	d.log.Info("Deleting resource set", "resources", len(resources))
	for i := len(resources) - 1; i >= 0; i-- {
		obj := resources[i]
		if err := d.client.DeleteObject(ctx, obj); err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", obj.GetKind(), obj.GetName(), err)
		}
		d.log.V(1).Info("Deleted", "kind", obj.GetKind(), "name", obj.GetName())
	}
	return nil
}

// IsReady reports whether both plugin workloads have reached their desired
// state. A workload that is not ready has its recent cluster events logged.
func (d *Driver) IsReady(ctx context.Context) (bool, error) {
	controllerReady, err := d.client.WorkloadReady(ctx, "Deployment", Namespace, ControllerName)
	if err != nil {
		return false, fmt.Errorf("failed to check controller readiness: %w", err)
	}
	if !controllerReady {
		d.logDiagnostics(ctx, "Deployment", ControllerName)
	}
	nodeReady, err := d.client.WorkloadReady(ctx, "DaemonSet", Namespace, NodePluginName)
	if err != nil {
		return false, fmt.Errorf("failed to check node plugin readiness: %w", err)
	}
	if !nodeReady {
		d.logDiagnostics(ctx, "DaemonSet", NodePluginName)
	}
	return controllerReady && nodeReady, nil
}
