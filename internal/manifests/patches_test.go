package manifests

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// loadDoc fetches one document of the newest bundled release by kind+name.
func loadDoc(t *testing.T, kind, name string) *unstructured.Unstructured {
	t.Helper()

	docs, err := LoadRelease(DefaultRelease())
	require.NoError(t, err)

	for _, doc := range docs {
		if doc.GetKind() == kind && doc.GetName() == name {
			return doc.DeepCopy()
		}
	}
	t.Fatalf("document %s/%s not found in release %s", kind, name, DefaultRelease())
	return nil
}

// container returns a named container of a workload's pod template.
func container(t *testing.T, obj *unstructured.Unstructured, name string) map[string]interface{} {
	t.Helper()

	containers, found, err := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "containers")
	require.NoError(t, err)
	require.True(t, found)

	for _, c := range containers {
		container, ok := c.(map[string]interface{})
		require.True(t, ok)
		if container["name"] == name {
			return container
		}
	}
	t.Fatalf("container %q not found in %s/%s", name, obj.GetKind(), obj.GetName())
	return nil
}

// envOf flattens a container's value-typed env entries into a map.
func envOf(container map[string]interface{}) map[string]string {
	env, _, _ := unstructured.NestedSlice(container, "env")
	result := make(map[string]string, len(env))
	for _, e := range env {
		entry, ok := e.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := entry["name"].(string)
		value, _ := entry["value"].(string)
		result[name] = value
	}
	return result
}

func TestPatchLabelsStampsEveryDocument(t *testing.T) {
	docs, err := LoadRelease(DefaultRelease())
	require.NoError(t, err)

	for _, doc := range docs {
		doc = doc.DeepCopy()
		require.NoError(t, patchLabels(Config{}, doc))
		assert.Equal(t, managedByValue, doc.GetLabels()[managedByLabel], doc.GetName())
	}
}

func TestPatchRegistryRewritesImages(t *testing.T) {
	obj := loadDoc(t, "Deployment", ControllerName)

	require.NoError(t, patchRegistry(Config{"image-registry": "mirror.internal:5000"}, obj))

	containers, _, err := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "containers")
	require.NoError(t, err)
	for _, c := range containers {
		image := c.(map[string]interface{})["image"].(string)
		assert.True(t, strings.HasPrefix(image, "mirror.internal:5000/"), image)
		assert.NotContains(t, image, "registry.k8s.io")
	}
}

func TestPatchRegistryNoRegistryConfigured(t *testing.T) {
	obj := loadDoc(t, "DaemonSet", NodePluginName)
	before := obj.DeepCopy()

	require.NoError(t, patchRegistry(Config{}, obj))

	assert.Equal(t, before.Object, obj.Object)
}

func TestPatchRegistrySkipsOtherKinds(t *testing.T) {
	obj := loadDoc(t, "CSIDriver", "cinder.csi.openstack.org")
	before := obj.DeepCopy()

	require.NoError(t, patchRegistry(Config{"image-registry": "mirror.internal"}, obj))

	assert.Equal(t, before.Object, obj.Object)
}

func TestPatchSecretNameRewritesVolumes(t *testing.T) {
	tests := []struct {
		kind string
		name string
	}{
		{kind: "Deployment", name: ControllerName},
		{kind: "DaemonSet", name: NodePluginName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := loadDoc(t, tt.kind, tt.name)

			require.NoError(t, patchSecretName(Config{}, obj))

			volumes, found, err := unstructured.NestedSlice(obj.Object, "spec", "template", "spec", "volumes")
			require.NoError(t, err)
			require.True(t, found)

			rewritten := 0
			for _, v := range volumes {
				volume := v.(map[string]interface{})
				secret, ok := volume["secret"].(map[string]interface{})
				if !ok {
					continue
				}
				assert.Equal(t, SecretName, secret["secretName"])
				rewritten++
			}
			assert.Positive(t, rewritten)
		})
	}
}

func TestPatchNodeSelectorControllerOnly(t *testing.T) {
	cfg := Config{"control-node-selector": map[string]string{"node-role.kubernetes.io/control-plane": ""}}

	controller := loadDoc(t, "Deployment", ControllerName)
	require.NoError(t, patchNodeSelector(cfg, controller))

	selector, found, err := unstructured.NestedStringMap(controller.Object, "spec", "template", "spec", "nodeSelector")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, map[string]string{"node-role.kubernetes.io/control-plane": ""}, selector)

	node := loadDoc(t, "DaemonSet", NodePluginName)
	before := node.DeepCopy()
	require.NoError(t, patchNodeSelector(cfg, node))
	assert.Equal(t, before.Object, node.Object)
}

func TestPatchNodeSelectorAbsent(t *testing.T) {
	obj := loadDoc(t, "Deployment", ControllerName)
	before := obj.DeepCopy()

	require.NoError(t, patchNodeSelector(Config{}, obj))

	assert.Equal(t, before.Object, obj.Object)
}

func TestPatchTopology(t *testing.T) {
	tests := []struct {
		name     string
		topology bool
		expected string
	}{
		{name: "enabled", topology: true, expected: "feature-gates=Topology=true"},
		{name: "disabled", topology: false, expected: "feature-gates=Topology=false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj := loadDoc(t, "Deployment", ControllerName)

			require.NoError(t, patchTopology(Config{"topology": tt.topology}, obj))

			provisioner := container(t, obj, provisionerContainer)
			args, _, err := unstructured.NestedSlice(provisioner, "args")
			require.NoError(t, err)
			assert.Contains(t, args, tt.expected)
			for _, a := range args {
				arg := a.(string)
				if strings.Contains(strings.ToLower(arg), "feature-gates") {
					assert.Equal(t, tt.expected, arg)
				}
			}
		})
	}
}

func TestPatchTopologyDropsFlagPrefix(t *testing.T) {
	obj := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "apps/v1",
		"kind":       "Deployment",
		"metadata":   map[string]interface{}{"name": ControllerName},
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"spec": map[string]interface{}{
					"containers": []interface{}{
						map[string]interface{}{
							"name": provisionerContainer,
							"args": []interface{}{"--feature-gates=Topology=false", "--timeout=3m"},
						},
					},
				},
			},
		},
	}}

	require.NoError(t, patchTopology(Config{"topology": true}, obj))

	provisioner := container(t, obj, provisionerContainer)
	args, _, err := unstructured.NestedSlice(provisioner, "args")
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"feature-gates=Topology=true", "--timeout=3m"}, args)
}

func TestPatchPluginEnvClusterName(t *testing.T) {
	obj := loadDoc(t, "Deployment", ControllerName)

	require.NoError(t, patchPluginEnv(Config{"cluster-name": "kubernetes-abc123"}, obj))

	env := envOf(container(t, obj, pluginContainer))
	assert.Equal(t, "kubernetes-abc123", env["CLUSTER_NAME"])
}

func TestPatchPluginEnvProxyDisabled(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://proxy.example.com:3128")

	obj := loadDoc(t, "Deployment", ControllerName)
	require.NoError(t, patchPluginEnv(Config{"cluster-name": "k8s"}, obj))

	env := envOf(container(t, obj, pluginContainer))
	assert.NotContains(t, env, "HTTP_PROXY")
	assert.NotContains(t, env, "NO_PROXY")
}

func TestPatchPluginEnvProxyEnabled(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://proxy.example.com:3128")
	t.Setenv("HTTPS_PROXY", "https://proxy.example.com:3128")
	t.Setenv("NO_PROXY", "10.0.0.0/8,localhost")

	obj := loadDoc(t, "Deployment", ControllerName)
	require.NoError(t, patchPluginEnv(Config{"web-proxy-enable": true}, obj))

	env := envOf(container(t, obj, pluginContainer))
	assert.Equal(t, "http://proxy.example.com:3128", env["HTTP_PROXY"])
	assert.Equal(t, "http://proxy.example.com:3128", env["http_proxy"])
	assert.Equal(t, "https://proxy.example.com:3128", env["HTTPS_PROXY"])
	assert.Equal(t, "https://proxy.example.com:3128", env["https_proxy"])

	noProxy := "127.0.0.1,169.254.169.254,localhost,::1,svc,svc.cluster,svc.cluster.local,10.0.0.0/8"
	assert.Equal(t, noProxy, env["NO_PROXY"])
	assert.Equal(t, noProxy, env["no_proxy"])
}

func TestPatchPluginEnvProxyLowercaseAmbient(t *testing.T) {
	t.Setenv("HTTP_PROXY", "")
	t.Setenv("http_proxy", "http://proxy.example.com:3128")
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("https_proxy", "")
	t.Setenv("NO_PROXY", "")
	t.Setenv("no_proxy", "")

	obj := loadDoc(t, "Deployment", ControllerName)
	require.NoError(t, patchPluginEnv(Config{"web-proxy-enable": true}, obj))

	env := envOf(container(t, obj, pluginContainer))
	assert.Equal(t, "http://proxy.example.com:3128", env["HTTP_PROXY"])
	assert.NotContains(t, env, "HTTPS_PROXY")
	assert.Equal(t, strings.Join(noProxyDefaults, ","), env["NO_PROXY"])
}

func TestPatchPluginEnvSkipsNodePlugin(t *testing.T) {
	obj := loadDoc(t, "DaemonSet", NodePluginName)
	before := obj.DeepCopy()

	require.NoError(t, patchPluginEnv(Config{"cluster-name": "k8s", "web-proxy-enable": true}, obj))

	assert.Equal(t, before.Object, obj.Object)
}

func TestMergeNoProxyDeduplicates(t *testing.T) {
	merged := mergeNoProxy("localhost, 10.0.0.0/8 ,127.0.0.1,10.0.0.0/8")

	assert.Equal(t, "127.0.0.1,169.254.169.254,localhost,::1,svc,svc.cluster,svc.cluster.local,10.0.0.0/8", merged)
}
