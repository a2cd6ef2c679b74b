// Package config loads and validates the local operator configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the operator configuration supplied by the user.
type Config struct {
	// Kubeconfig is the path to the kubeconfig used to reach the cluster.
	Kubeconfig string `yaml:"kubeconfig"`
	// CredentialsFile is the path to the openstack-credentials exchange.
	CredentialsFile string `yaml:"credentials-file"`
	// ClusterContextFile is the path to the kube-control exchange.
	ClusterContextFile string `yaml:"cluster-context-file"`

	// WebProxyEnable injects ambient proxy settings into the plugin container.
	WebProxyEnable bool `yaml:"web-proxy-enable"`
	// StorageClassDefault marks the created StorageClass as the cluster default.
	StorageClassDefault bool `yaml:"storage-class-default"`
	// ReclaimPolicy is the reclaim policy for created storage classes.
	ReclaimPolicy string `yaml:"reclaim-policy"`
	// AvailabilityZone constrains volumes to one availability zone.
	AvailabilityZone string `yaml:"availability-zone"`
	// Topology toggles topology awareness in the csi-provisioner.
	Topology *bool `yaml:"topology"`
	// StorageRelease pins the bundled manifest release; empty means latest.
	StorageRelease string `yaml:"storage-release"`

	// ImageRegistry and ClusterName override the values derived from the
	// cluster-context exchange.
	ImageRegistry string `yaml:"image-registry"`
	ClusterName   string `yaml:"cluster-name"`
}

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ReclaimPolicy == "" {
		c.ReclaimPolicy = "Delete"
	}
	if c.Topology == nil {
		topology := true
		c.Topology = &topology
	}
}

// Validate checks the configuration for values the cluster would reject.
func (c *Config) Validate() error {
	switch strings.ToLower(c.ReclaimPolicy) {
	case "delete", "retain":
	default:
		return fmt.Errorf("reclaim-policy %q is not a valid reclaim policy", c.ReclaimPolicy)
	}
	if c.CredentialsFile == "" {
		return fmt.Errorf("credentials-file is required")
	}
	return nil
}

// AvailableData returns the flat overlay applied on top of the values
// derived from the exchanges. String keys may be empty here; they are
// pruned during synthesis. Booleans are always carried.
func (c *Config) AvailableData() map[string]any {
	topology := true
	if c.Topology != nil {
		topology = *c.Topology
	}
	return map[string]any{
		"web-proxy-enable":      c.WebProxyEnable,
		"storage-class-default": c.StorageClassDefault,
		"reclaim-policy":        c.ReclaimPolicy,
		"availability-zone":     c.AvailabilityZone,
		"topology":              topology,
		"storage-release":       c.StorageRelease,
		"image-registry":        c.ImageRegistry,
		"cluster-name":          c.ClusterName,
	}
}
