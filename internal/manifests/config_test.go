package manifests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreds struct {
	ready bool
	conf  []byte
	ca    []byte
}

func (f *fakeCreds) Ready() bool          { return f.ready }
func (f *fakeCreds) CloudConfB64() []byte { return f.conf }
func (f *fakeCreds) EndpointCA() []byte   { return f.ca }

type fakeCluster struct {
	ready    bool
	registry string
	tag      string
	selector map[string]string
}

func (f *fakeCluster) Ready() bool                    { return f.ready }
func (f *fakeCluster) Registry() string               { return f.registry }
func (f *fakeCluster) ClusterTag() string             { return f.tag }
func (f *fakeCluster) NodeSelector() map[string]string { return f.selector }

func readyCreds() *fakeCreds {
	return &fakeCreds{ready: true, conf: []byte("W0dsb2JhbF0K"), ca: []byte("Y2VydA==")}
}

func readyCluster() *fakeCluster {
	return &fakeCluster{
		ready:    true,
		registry: "registry.example.com",
		tag:      "kubernetes-abc123",
		selector: map[string]string{"node-role.kubernetes.io/control-plane": ""},
	}
}

func TestSynthesizeMergesAllSources(t *testing.T) {
	cfg := Synthesize(readyCreds(), readyCluster(), map[string]any{
		"topology": true,
	})

	assert.Equal(t, "registry.example.com", cfg["image-registry"])
	assert.Equal(t, "kubernetes-abc123", cfg["cluster-name"])
	assert.Equal(t, map[string]string{"node-role.kubernetes.io/control-plane": ""}, cfg["control-node-selector"])
	assert.Equal(t, []byte("W0dsb2JhbF0K"), cfg["cloud-conf"])
	assert.Equal(t, []byte("Y2VydA=="), cfg["endpoint-ca-cert"])
	assert.Equal(t, true, cfg["topology"])
}

func TestSynthesizeSkipsUnreadySources(t *testing.T) {
	cfg := Synthesize(&fakeCreds{}, &fakeCluster{}, nil)

	assert.NotContains(t, cfg, "cloud-conf")
	assert.NotContains(t, cfg, "image-registry")
	assert.NotContains(t, cfg, "control-node-selector")
}

func TestSynthesizeNilSources(t *testing.T) {
	cfg := Synthesize(nil, nil, map[string]any{"topology": false})

	assert.Equal(t, Config{"topology": false}, cfg)
}

func TestSynthesizeLocalOverridesDerived(t *testing.T) {
	cfg := Synthesize(readyCreds(), readyCluster(), map[string]any{
		"image-registry": "mirror.internal",
		"cluster-name":   "renamed",
	})

	assert.Equal(t, "mirror.internal", cfg["image-registry"])
	assert.Equal(t, "renamed", cfg["cluster-name"])
}

func TestSynthesizePrunesEmptyValues(t *testing.T) {
	creds := readyCreds()
	creds.ca = nil

	cfg := Synthesize(creds, readyCluster(), map[string]any{
		"availability-zone": "",
		"reclaim-policy":    "Delete",
		"extra":             nil,
	})

	assert.NotContains(t, cfg, "endpoint-ca-cert")
	assert.NotContains(t, cfg, "availability-zone")
	assert.NotContains(t, cfg, "extra")
	assert.Equal(t, "Delete", cfg["reclaim-policy"])
}

func TestSynthesizeRenamesStorageRelease(t *testing.T) {
	cfg := Synthesize(nil, nil, map[string]any{"storage-release": "v1.27.3"})

	assert.NotContains(t, cfg, "storage-release")
	assert.Equal(t, "v1.27.3", cfg["release"])
}

func TestSynthesizeEmptyStorageReleaseAbsent(t *testing.T) {
	cfg := Synthesize(nil, nil, map[string]any{"storage-release": ""})

	assert.NotContains(t, cfg, "storage-release")
	assert.NotContains(t, cfg, "release")
}

func TestHashDeterministic(t *testing.T) {
	local := map[string]any{"reclaim-policy": "Delete", "topology": true}

	first := Synthesize(readyCreds(), readyCluster(), local).Hash()
	second := Synthesize(readyCreds(), readyCluster(), local).Hash()

	require.Len(t, first, 64)
	assert.Equal(t, first, second)
}

func TestHashChangesWithConfig(t *testing.T) {
	base := Synthesize(readyCreds(), readyCluster(), map[string]any{"topology": true})
	changed := Synthesize(readyCreds(), readyCluster(), map[string]any{"topology": false})

	assert.NotEqual(t, base.Hash(), changed.Hash())
}

func TestEvaluateMissingCloudConf(t *testing.T) {
	cfg := Synthesize(&fakeCreds{}, readyCluster(), nil)

	assert.Equal(t, "Storage manifests waiting for definition of cloud-conf", cfg.Evaluate())
}

func TestEvaluateComplete(t *testing.T) {
	cfg := Synthesize(readyCreds(), readyCluster(), nil)

	assert.Empty(t, cfg.Evaluate())
}
