package manifests

import (
	"encoding/base64"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const (
	// SecretName is the name of the cloud configuration Secret mounted by
	// both CSI plugin workloads.
	SecretName = "csi-cinder-cloud-config"

	cloudConfKey  = "cloud.conf"
	endpointCAKey = "endpoint-ca.cert"
)

// buildSecret renders the cloud configuration Secret from the merged
// configuration. It returns nil when cloud-conf is not yet available; the
// CA certificate entry is only added when configured.
func buildSecret(cfg Config, namespace string) (*unstructured.Unstructured, error) {
	cloudConf := cfg.str("cloud-conf")
	if cloudConf == "" {
		return nil, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(cloudConf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cloud-conf: %w", err)
	}

	secret := &corev1.Secret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Secret",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      SecretName,
			Namespace: namespace,
		},
		Data: map[string][]byte{
			cloudConfKey: decoded,
		},
	}

	if ca := cfg.str("endpoint-ca-cert"); ca != "" {
		decodedCA, err := base64.StdEncoding.DecodeString(ca)
		if err != nil {
			return nil, fmt.Errorf("failed to decode endpoint-ca-cert: %w", err)
		}
		secret.Data[endpointCAKey] = decodedCA
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to convert secret: %w", err)
	}
	return &unstructured.Unstructured{Object: content}, nil
}
