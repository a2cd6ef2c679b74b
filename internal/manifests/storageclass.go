package manifests

import (
	"fmt"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	storagev1 "k8s.io/api/storage/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

const (
	// ProvisionerName is the CSI driver name served by the Cinder plugin.
	ProvisionerName = "cinder.csi.openstack.org"

	defaultClassAnnotation = "storageclass.kubernetes.io/is-default-class"
)

// buildStorageClass renders the csi-cinder-default StorageClass. The reclaim
// policy is normalised to the capitalised form the API server expects.
func buildStorageClass(cfg Config) (*unstructured.Unstructured, error) {
	reclaim := corev1.PersistentVolumeReclaimPolicy(titleCase(cfg.str("reclaim-policy")))
	binding := storagev1.VolumeBindingWaitForFirstConsumer

	class := &storagev1.StorageClass{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "storage.k8s.io/v1",
			Kind:       "StorageClass",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: "csi-cinder-default",
			Annotations: map[string]string{
				defaultClassAnnotation: strconv.FormatBool(cfg.flag("storage-class-default")),
			},
		},
		Provisioner:       ProvisionerName,
		ReclaimPolicy:     &reclaim,
		VolumeBindingMode: &binding,
	}

	if zone := cfg.str("availability-zone"); zone != "" {
		class.Parameters = map[string]string{"availability": zone}
	}

	content, err := runtime.DefaultUnstructuredConverter.ToUnstructured(class)
	if err != nil {
		return nil, fmt.Errorf("failed to convert storage class: %w", err)
	}
	return &unstructured.Unstructured{Object: content}, nil
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
