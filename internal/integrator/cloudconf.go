package integrator

import (
	"bytes"
	"encoding/base64"

	"gopkg.in/ini.v1"
)

// CAFilePath is where the controller and node plugins mount the endpoint CA.
const CAFilePath = "/etc/config/endpoint-ca.cert"

func init() {
	// Match the layout the plugin has always consumed: "key = value" lines
	// without column alignment.
	ini.PrettyFormat = false
	ini.PrettyEqual = true
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func boolVal(p *bool) bool {
	return p != nil && *p
}

// buildCloudConf renders the three-section cloud.conf document and returns
// it base64-encoded. The caller guarantees creds.Ready().
func buildCloudConf(creds *Credentials) []byte {
	f := ini.Empty()

	global, _ := f.NewSection("Global")
	global.NewKey("auth-url", strVal(creds.AuthURL))            //nolint:errcheck
	global.NewKey("region", strVal(creds.Region))               //nolint:errcheck
	global.NewKey("username", strVal(creds.Username))           //nolint:errcheck
	global.NewKey("password", strVal(creds.Password))           //nolint:errcheck
	global.NewKey("tenant-name", strVal(creds.ProjectName))     //nolint:errcheck
	global.NewKey("domain-name", strVal(creds.UserDomainName))  //nolint:errcheck
	global.NewKey("tenant-domain-name", strVal(creds.ProjectDomainName)) //nolint:errcheck
	if strVal(creds.EndpointTLSCA) != "" {
		global.NewKey("ca-file", CAFilePath) //nolint:errcheck
	}

	lb, _ := f.NewSection("LoadBalancer")
	if creds.LBEnabled != nil && !*creds.LBEnabled {
		lb.NewKey("enabled", "false") //nolint:errcheck
	}
	// Octavia predates every supported cloud; only an explicit false opts out.
	if creds.HasOctavia == nil || *creds.HasOctavia {
		lb.NewKey("use-octavia", "true") //nolint:errcheck
	} else {
		lb.NewKey("use-octavia", "false") //nolint:errcheck
		lb.NewKey("lb-provider", "true")  //nolint:errcheck
	}
	if v := strVal(creds.SubnetID); v != "" {
		lb.NewKey("subnet-id", v) //nolint:errcheck
	}
	if v := strVal(creds.FloatingNetworkID); v != "" {
		lb.NewKey("floating-network-id", v) //nolint:errcheck
	}
	if v := strVal(creds.LBMethod); v != "" {
		lb.NewKey("lb-method", v) //nolint:errcheck
	}
	if boolVal(creds.InternalLB) {
		lb.NewKey("internal-lb", "true") //nolint:errcheck
	}
	if boolVal(creds.ManageSecurityGroups) {
		lb.NewKey("manage-security-groups", "true") //nolint:errcheck
	}

	bs, _ := f.NewSection("BlockStorage")
	if v := strVal(creds.BSVersion); v != "" {
		bs.NewKey("bs-version", v) //nolint:errcheck
	}
	if boolVal(creds.TrustDevicePath) {
		bs.NewKey("trust-device-path", "true") //nolint:errcheck
	}
	if boolVal(creds.IgnoreVolumeAZ) {
		bs.NewKey("ignore-volume-az", "true") //nolint:errcheck
	}

	var buf bytes.Buffer
	f.WriteTo(&buf) //nolint:errcheck // writes to a bytes.Buffer cannot fail

	encoded := make([]byte, base64.StdEncoding.EncodedLen(buf.Len()))
	base64.StdEncoding.Encode(encoded, buf.Bytes())
	return encoded
}
