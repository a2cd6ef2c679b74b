package k8sclient

import (
	"bytes"
	"context"
	"fmt"
	"io"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/apimachinery/pkg/util/yaml"
	"k8s.io/client-go/dynamic"
)

// ApplyManifests applies multi-document YAML using Server-Side Apply.
// Each document in the YAML is parsed and applied separately; empty
// documents are skipped.
func (c *client) ApplyManifests(ctx context.Context, manifests []byte, fieldManager string) error {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(manifests), 4096)

	docIndex := 0
	for {
		var obj unstructured.Unstructured
		if err := decoder.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to decode manifest document %d: %w", docIndex, err)
		}

		if len(obj.Object) == 0 {
			docIndex++
			continue
		}

		if err := c.ApplyObject(ctx, &obj, fieldManager); err != nil {
			return fmt.Errorf("failed to apply %s %s/%s: %w",
				obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
		}

		docIndex++
	}

	return nil
}

// ApplyObject applies a single unstructured object using Server-Side Apply.
func (c *client) ApplyObject(ctx context.Context, obj *unstructured.Unstructured, fieldManager string) error {
	resource, namespaced, err := c.resourceFor(obj)
	if err != nil {
		return err
	}

	data, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal object to JSON: %w", err)
	}

	opts := metav1.PatchOptions{
		FieldManager: fieldManager,
		Force:        boolPtr(true),
	}

	if namespaced {
		namespace := obj.GetNamespace()
		if namespace == "" {
			namespace = "default"
		}
		_, err = resource.Namespace(namespace).Patch(ctx, obj.GetName(), types.ApplyPatchType, data, opts)
	} else {
		_, err = resource.Patch(ctx, obj.GetName(), types.ApplyPatchType, data, opts)
	}

	if err != nil {
		return fmt.Errorf("server-side apply failed: %w", err)
	}

	return nil
}

// DeleteObject deletes a single object, returning nil if not found.
func (c *client) DeleteObject(ctx context.Context, obj *unstructured.Unstructured) error {
	resource, namespaced, err := c.resourceFor(obj)
	if err != nil {
		return err
	}

	if namespaced {
		namespace := obj.GetNamespace()
		if namespace == "" {
			namespace = "default"
		}
		err = resource.Namespace(namespace).Delete(ctx, obj.GetName(), metav1.DeleteOptions{})
	} else {
		err = resource.Delete(ctx, obj.GetName(), metav1.DeleteOptions{})
	}

	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("failed to delete %s %s/%s: %w",
			obj.GetKind(), obj.GetNamespace(), obj.GetName(), err)
	}

	return nil
}

// resourceFor maps the object's GVK to a dynamic resource interface.
func (c *client) resourceFor(obj *unstructured.Unstructured) (dynamic.NamespaceableResourceInterface, bool, error) {
	gvk := obj.GroupVersionKind()
	if gvk.Kind == "" {
		return nil, false, fmt.Errorf("object has no kind set")
	}

	mapping, err := c.mapper.RESTMapping(gvk.GroupKind(), gvk.Version)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get REST mapping for %v: %w", gvk, err)
	}

	namespaced := mapping.Scope.Name() == meta.RESTScopeNameNamespace
	return c.dynamicClient.Resource(mapping.Resource), namespaced, nil
}

func boolPtr(b bool) *bool { return &b }
