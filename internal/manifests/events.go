package manifests

import (
	"context"
	"sort"

	corev1 "k8s.io/api/core/v1"
)

// logDiagnostics surfaces recent cluster events for an unhealthy workload:
// the workload's own events plus those of its pods. Diagnostics are best
// effort; lookup errors are ignored.
func (d *Driver) logDiagnostics(ctx context.Context, kind, name string) {
	if kind != "Deployment" && kind != "DaemonSet" {
		return
	}

	events, err := d.client.ListEvents(ctx, Namespace, kind, name)
	if err == nil {
		d.logEvents(kind, name, events)
	}

	pods, err := d.client.GetPods(ctx, Namespace, "app="+name)
	if err != nil {
		return
	}
	for _, pod := range pods {
		events, err := d.client.ListEvents(ctx, Namespace, "Pod", pod.Name)
		if err != nil {
			continue
		}
		d.logEvents("Pod", pod.Name, events)
	}
}

func (d *Driver) logEvents(kind, name string, events []corev1.Event) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].LastTimestamp.Before(&events[j].LastTimestamp)
	})
	for _, event := range events {
		d.log.Info("Cluster event",
			"kind", kind,
			"name", name,
			"type", event.Type,
			"reason", event.Reason,
			"message", event.Message,
		)
	}
}
