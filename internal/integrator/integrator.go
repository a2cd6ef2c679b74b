// Package integrator consumes OpenStack cloud credentials published by the
// integrator over the keyed exchange and synthesizes the cloud.conf document
// the Cinder CSI plugin reads.
package integrator

import (
	"encoding/base64"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/openstackops/cinder-csi-operator/internal/databag"
)

const endpoint = "openstack-credentials"

// Credentials is a snapshot of the credential exchange. Optional fields are
// pointers so that absent, null and present values stay distinguishable.
type Credentials struct {
	AuthURL              *string
	BSVersion            *string
	EndpointTLSCA        *string
	FloatingNetworkID    *string
	HasOctavia           *bool
	IgnoreVolumeAZ       *bool
	InternalLB           *bool
	LBEnabled            *bool
	LBMethod             *string
	ManageSecurityGroups *bool
	Password             *string
	ProjectDomainName    *string
	ProjectName          *string
	Region               *string
	SubnetID             *string
	TrustDevicePath      *bool
	UserDomainName       *string
	Username             *string
	Version              *int
}

// Ready reports whether all six mandatory fields are present and non-empty.
// Readiness is all-or-nothing; a record never counts as partially ready.
func (c *Credentials) Ready() bool {
	if c == nil {
		return false
	}
	for _, field := range []*string{
		c.AuthURL,
		c.Username,
		c.Password,
		c.UserDomainName,
		c.ProjectDomainName,
		c.ProjectName,
	} {
		if field == nil || *field == "" {
			return false
		}
	}
	return true
}

func parseCredentials(bag databag.Bag) (*Credentials, error) {
	creds := &Credentials{}
	var err error

	strs := map[string]**string{
		"auth_url":            &creds.AuthURL,
		"bs_version":          &creds.BSVersion,
		"endpoint_tls_ca":     &creds.EndpointTLSCA,
		"floating_network_id": &creds.FloatingNetworkID,
		"lb_method":           &creds.LBMethod,
		"password":            &creds.Password,
		"project_domain_name": &creds.ProjectDomainName,
		"project_name":        &creds.ProjectName,
		"region":              &creds.Region,
		"subnet_id":           &creds.SubnetID,
		"user_domain_name":    &creds.UserDomainName,
		"username":            &creds.Username,
	}
	for key, dst := range strs {
		if *dst, err = bag.String(key); err != nil {
			return nil, err
		}
	}

	bools := map[string]**bool{
		"has_octavia":            &creds.HasOctavia,
		"ignore_volume_az":       &creds.IgnoreVolumeAZ,
		"internal_lb":            &creds.InternalLB,
		"lb_enabled":             &creds.LBEnabled,
		"manage_security_groups": &creds.ManageSecurityGroups,
		"trust_device_path":      &creds.TrustDevicePath,
	}
	for key, dst := range bools {
		if *dst, err = bag.Bool(key); err != nil {
			return nil, err
		}
	}

	if creds.Version, err = bag.Int("version"); err != nil {
		return nil, err
	}

	if creds.EndpointTLSCA != nil {
		if _, err := base64.StdEncoding.DecodeString(*creds.EndpointTLSCA); err != nil {
			return nil, fmt.Errorf("endpoint_tls_ca is not valid base64: %w", err)
		}
	}

	return creds, nil
}

// Requirer is the consuming side of the credential exchange. It reads the
// exchange file on every Refresh, keeping a per-pass snapshot.
type Requirer struct {
	path string
	log  logr.Logger

	joined bool
	creds  *Credentials
}

// NewRequirer creates a Requirer reading the exchange from path.
func NewRequirer(path string, log logr.Logger) *Requirer {
	return &Requirer{path: path, log: log.WithName(endpoint)}
}

// Refresh re-reads the exchange file. A missing file means the relation is
// not established; malformed payloads are logged at error level and leave
// the requirer unready, matching the not-ready taxonomy.
func (r *Requirer) Refresh() {
	r.joined = false
	r.creds = nil

	bag, err := databag.Load(r.path)
	if err != nil {
		if err != databag.ErrNotFound {
			r.joined = true
			r.log.Error(err, "credential exchange data not yet valid")
		}
		return
	}
	r.joined = true

	creds, err := parseCredentials(bag)
	if err != nil {
		r.log.Error(err, "credential exchange data not yet valid")
		return
	}
	r.creds = creds
}

// Joined reports whether the exchange exists at all.
func (r *Requirer) Joined() bool { return r.joined }

// Ready reports whether a validated, complete credential record is available.
func (r *Requirer) Ready() bool { return r.creds.Ready() }

// Credentials returns the current snapshot, or nil when unready.
func (r *Requirer) Credentials() *Credentials {
	if !r.Ready() {
		return nil
	}
	return r.creds
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

// CloudConfB64 returns the base64-encoded cloud.conf built from the current
// credentials, or nil when the requirer is unready.
func (r *Requirer) CloudConfB64() []byte {
	creds := r.Credentials()
	if creds == nil {
		return nil
	}
	return buildCloudConf(creds)
}

// EndpointCA returns the base64 CA blob supplied over the exchange, or nil
// when the requirer is unready or no CA was supplied.
func (r *Requirer) EndpointCA() []byte {
	creds := r.Credentials()
	if creds == nil || creds.EndpointTLSCA == nil || *creds.EndpointTLSCA == "" {
		return nil
	}
	return []byte(*creds.EndpointTLSCA)
}
