// Package manifests renders the Cinder CSI manifest set: it merges the
// upstream templates with configuration derived from the credential and
// cluster-context exchanges, and drives apply/delete against the cluster.
package manifests

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CredentialSource supplies validated OpenStack credentials.
type CredentialSource interface {
	Ready() bool
	CloudConfB64() []byte
	EndpointCA() []byte
}

// ClusterSource supplies the target registry, cluster tag and control-plane
// selector labels.
type ClusterSource interface {
	Ready() bool
	Registry() string
	ClusterTag() string
	NodeSelector() map[string]string
}

// Config is the merged configuration for one reconciliation pass. It is
// derived fresh by Synthesize and never mutated afterwards.
type Config map[string]any

// Synthesize merges the three sources into one configuration mapping.
// Local configuration wins on key collision; empty values are pruned; the
// storage-release pin is renamed to release as the final step.
func Synthesize(creds CredentialSource, cluster ClusterSource, local map[string]any) Config {
	cfg := Config{}

	if cluster != nil && cluster.Ready() {
		cfg["image-registry"] = cluster.Registry()
		cfg["cluster-name"] = cluster.ClusterTag()
		cfg["control-node-selector"] = cluster.NodeSelector()
	}

	if creds != nil && creds.Ready() {
		cfg["cloud-conf"] = creds.CloudConfB64()
		cfg["endpoint-ca-cert"] = creds.EndpointCA()
	}

	for key, value := range local {
		cfg[key] = value
	}

	for key, value := range cfg {
		if isEmpty(value) {
			delete(cfg, key)
		}
	}

	if release, ok := cfg["storage-release"]; ok {
		delete(cfg, "storage-release")
		cfg["release"] = release
	}

	return cfg
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	default:
		return false
	}
}

// Hash returns a deterministic digest of the configuration. Equal mappings
// hash equal regardless of insertion order; it carries no guarantee beyond
// equality comparison.
func (c Config) Hash() string {
	// json.Marshal emits map keys sorted, giving a canonical byte form.
	data, err := json.Marshal(c)
	if err != nil {
		// Config values are strings, bools and byte slices; marshalling
		// cannot fail for those.
		panic(fmt.Sprintf("config not marshallable: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Evaluate returns a reason the configuration cannot be applied yet, or ""
// when every required key is present.
func (c Config) Evaluate() string {
	for _, key := range []string{"cloud-conf"} {
		if isEmpty(c[key]) {
			return fmt.Sprintf("Storage manifests waiting for definition of %s", key)
		}
	}
	return ""
}

// str returns the configuration value under key as a string, converting
// byte slices; missing keys return "".
func (c Config) str(key string) string {
	switch v := c[key].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// flag returns the boolean value under key; missing keys return false.
func (c Config) flag(key string) bool {
	v, _ := c[key].(bool)
	return v
}

// selector returns the control-node-selector mapping, or nil.
func (c Config) selector() map[string]string {
	v, _ := c["control-node-selector"].(map[string]string)
	return v
}
