package k8sclient

import (
	"context"
	"fmt"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// WorkloadReady reports whether a workload has reached its desired state.
// Deployments are ready when their Available condition is true, DaemonSets
// when every scheduled pod is ready. Every other kind is ready once the
// apply succeeded, so it reports true without a lookup.
func (c *client) WorkloadReady(ctx context.Context, kind, namespace, name string) (bool, error) {
	switch kind {
	case "Deployment":
		deploy, err := c.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to get deployment %s/%s: %w", namespace, name, err)
		}
		return deploymentAvailable(deploy), nil

	case "DaemonSet":
		ds, err := c.clientset.AppsV1().DaemonSets(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}
			return false, fmt.Errorf("failed to get daemonset %s/%s: %w", namespace, name, err)
		}
		return daemonSetReady(ds), nil

	default:
		return true, nil
	}
}

func deploymentAvailable(deploy *appsv1.Deployment) bool {
	for _, cond := range deploy.Status.Conditions {
		if cond.Type == appsv1.DeploymentAvailable {
			return cond.Status == corev1.ConditionTrue
		}
	}
	return false
}

func daemonSetReady(ds *appsv1.DaemonSet) bool {
	status := ds.Status
	return status.DesiredNumberScheduled > 0 &&
		status.NumberReady == status.DesiredNumberScheduled
}

// ListEvents returns the events recorded against one object, matched by
// involved object kind and name.
func (c *client) ListEvents(ctx context.Context, namespace, kind, name string) ([]corev1.Event, error) {
	selector := fmt.Sprintf("involvedObject.kind=%s,involvedObject.name=%s", kind, name)
	events, err := c.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: selector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events for %s/%s: %w", kind, name, err)
	}
	return events.Items, nil
}

// GetPods returns pods matching a label selector in a namespace.
func (c *client) GetPods(ctx context.Context, namespace, labelSelector string) ([]corev1.Pod, error) {
	pods, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %w", err)
	}
	return pods.Items, nil
}
