package manifests

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

const (
	// ControllerName is the controller plugin Deployment shipped upstream.
	ControllerName = "csi-cinder-controllerplugin"
	// NodePluginName is the node plugin DaemonSet shipped upstream.
	NodePluginName = "csi-cinder-nodeplugin"

	managedByLabel = "app.kubernetes.io/managed-by"
	managedByValue = "cinder-csi-operator"

	pluginContainer      = "cinder-csi-plugin"
	provisionerContainer = "csi-provisioner"
)

// noProxyDefaults are always excluded from proxying so in-cluster and
// metadata traffic never leaves the node.
var noProxyDefaults = []string{
	"127.0.0.1",
	"169.254.169.254",
	"localhost",
	"::1",
	"svc",
	"svc.cluster",
	"svc.cluster.local",
}

// patcher mutates one manifest document in place. Documents that do not
// match the patcher's kind+name predicate pass through untouched.
type patcher func(cfg Config, obj *unstructured.Unstructured) error

// patchers is the fixed patch order applied to every rendered document.
var patchers = []patcher{
	patchLabels,
	patchRegistry,
	patchSecretName,
	patchNodeSelector,
	patchTopology,
	patchPluginEnv,
}

// patchLabels stamps the operator identity onto every managed resource.
func patchLabels(_ Config, obj *unstructured.Unstructured) error {
	labels := obj.GetLabels()
	if labels == nil {
		labels = map[string]string{}
	}
	labels[managedByLabel] = managedByValue
	obj.SetLabels(labels)
	return nil
}

// patchRegistry rewrites container images to pull from the configured
// registry by replacing the first path segment of each image reference.
func patchRegistry(cfg Config, obj *unstructured.Unstructured) error {
	registry := cfg.str("image-registry")
	if registry == "" {
		return nil
	}
	kind := obj.GetKind()
	if kind != "Deployment" && kind != "DaemonSet" {
		return nil
	}

	return eachContainer(obj, func(container map[string]interface{}) error {
		image, _ := container["image"].(string)
		if image == "" {
			return nil
		}
		if parts := strings.SplitN(image, "/", 2); len(parts) == 2 {
			container["image"] = registry + "/" + parts[1]
		} else {
			container["image"] = registry + "/" + image
		}
		return nil
	})
}

// patchSecretName points every secret volume of the two plugin workloads at
// the Secret rendered by this operator.
func patchSecretName(_ Config, obj *unstructured.Unstructured) error {
	kind := obj.GetKind()
	name := obj.GetName()
	controller := kind == "Deployment" && name == ControllerName
	nodePlugin := kind == "DaemonSet" && name == NodePluginName
	if !controller && !nodePlugin {
		return nil
	}

	volumes, found, err := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "volumes")
	if err != nil || !found {
		return err
	}

	for i, v := range volumes {
		volume, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		secret, ok := volume["secret"].(map[string]interface{})
		if !ok {
			continue
		}
		secret["secretName"] = SecretName
		volumes[i] = volume
	}

	if err := unstructured.SetNestedSlice(obj.Object, volumes, "spec", "template", "spec", "volumes"); err != nil {
		return fmt.Errorf("failed to set volumes on %s/%s: %w", kind, name, err)
	}
	return nil
}

// patchNodeSelector pins the controller Deployment onto the resolved
// control-plane nodes.
func patchNodeSelector(cfg Config, obj *unstructured.Unstructured) error {
	if obj.GetKind() != "Deployment" || obj.GetName() != ControllerName {
		return nil
	}
	selector := cfg.selector()
	if selector == nil {
		return nil
	}

	converted := make(map[string]interface{}, len(selector))
	for key, value := range selector {
		converted[key] = value
	}
	if err := unstructured.SetNestedMap(obj.Object, converted, "spec", "template", "spec", "nodeSelector"); err != nil {
		return fmt.Errorf("failed to set node selector: %w", err)
	}
	return nil
}

// patchTopology rewrites the provisioner's feature-gates argument to match
// the configured topology awareness flag.
func patchTopology(cfg Config, obj *unstructured.Unstructured) error {
	if obj.GetKind() != "Deployment" || obj.GetName() != ControllerName {
		return nil
	}

	return eachContainer(obj, func(container map[string]interface{}) error {
		name, _ := container["name"].(string)
		if name != provisionerContainer {
			return nil
		}
		args, _, err := unstructured.NestedSlice(container, "args")
		if err != nil {
			return err
		}
		for i, a := range args {
			arg, ok := a.(string)
			if !ok {
				continue
			}
			// The matched argument is replaced wholesale, flag prefix
			// included.
			if strings.Contains(strings.ToLower(arg), "feature-gates") {
				args[i] = "feature-gates=Topology=" + strconv.FormatBool(cfg.flag("topology"))
			}
		}
		container["args"] = args
		return nil
	})
}

// patchPluginEnv injects CLUSTER_NAME and, when proxying is enabled, the
// ambient proxy settings into the controller's cinder-csi-plugin container.
func patchPluginEnv(cfg Config, obj *unstructured.Unstructured) error {
	if obj.GetKind() != "Deployment" || obj.GetName() != ControllerName {
		return nil
	}

	return eachContainer(obj, func(container map[string]interface{}) error {
		name, _ := container["name"].(string)
		if name != pluginContainer {
			return nil
		}

		if clusterName := cfg.str("cluster-name"); clusterName != "" {
			setEnv(container, "CLUSTER_NAME", clusterName)
		}

		if cfg.flag("web-proxy-enable") {
			if httpProxy := ambientEnv("HTTP_PROXY"); httpProxy != "" {
				setEnv(container, "HTTP_PROXY", httpProxy)
				setEnv(container, "http_proxy", httpProxy)
			}
			if httpsProxy := ambientEnv("HTTPS_PROXY"); httpsProxy != "" {
				setEnv(container, "HTTPS_PROXY", httpsProxy)
				setEnv(container, "https_proxy", httpsProxy)
			}
			noProxy := mergeNoProxy(ambientEnv("NO_PROXY"))
			setEnv(container, "NO_PROXY", noProxy)
			setEnv(container, "no_proxy", noProxy)
		}
		return nil
	})
}

// eachContainer invokes fn for every container of a workload's pod template.
func eachContainer(obj *unstructured.Unstructured, fn func(container map[string]interface{}) error) error {
	containers, found, err := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "containers")
	if err != nil || !found {
		return err
	}

	for i, c := range containers {
		container, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		if err := fn(container); err != nil {
			return err
		}
		containers[i] = container
	}

	if err := unstructured.SetNestedSlice(obj.Object, containers, "spec", "template", "spec", "containers"); err != nil {
		return fmt.Errorf("failed to set containers on %s/%s: %w", obj.GetKind(), obj.GetName(), err)
	}
	return nil
}

// setEnv replaces or appends one env entry on a container.
func setEnv(container map[string]interface{}, name, value string) {
	env, _, _ := unstructured.NestedSlice(container, "env")
	for i, e := range env {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		if entry["name"] == name {
			entry["value"] = value
			env[i] = entry
			container["env"] = env
			return
		}
	}
	env = append(env, map[string]interface{}{"name": name, "value": value})
	container["env"] = env
}

// ambientEnv reads a proxy variable, accepting either casing.
func ambientEnv(name string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return os.Getenv(strings.ToLower(name))
}

// mergeNoProxy joins the built-in exclusions with the ambient NO_PROXY
// list, keeping the first occurrence of each entry.
func mergeNoProxy(ambient string) string {
	seen := make(map[string]bool, len(noProxyDefaults))
	merged := make([]string, 0, len(noProxyDefaults))
	for _, entry := range noProxyDefaults {
		if !seen[entry] {
			seen[entry] = true
			merged = append(merged, entry)
		}
	}
	for _, entry := range strings.Split(ambient, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		merged = append(merged, entry)
	}
	return strings.Join(merged, ",")
}
