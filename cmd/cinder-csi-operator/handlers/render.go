package handlers

import (
	"fmt"
	"io"

	sigsyaml "sigs.k8s.io/yaml"
)

// Render writes the rendered resource set as multi-document YAML without
// touching the cluster.
func Render(configPath string, out io.Writer) error {
	s, err := newSession(configPath, false)
	if err != nil {
		return err
	}
	s.refresh()

	resources, err := s.driver.Render()
	if err != nil {
		return err
	}

	for i, obj := range resources {
		doc, err := sigsyaml.Marshal(obj.Object)
		if err != nil {
			return fmt.Errorf("failed to marshal %s/%s: %w", obj.GetKind(), obj.GetName(), err)
		}
		if i > 0 {
			if _, err := io.WriteString(out, "---\n"); err != nil {
				return err
			}
		}
		if _, err := out.Write(doc); err != nil {
			return err
		}
	}
	return nil
}
