package manifests

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"path"
	"sort"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"
)

//go:embed upstream/*
var upstreamFS embed.FS

// Releases returns the bundled upstream releases in ascending order.
func Releases() []string {
	entries, err := upstreamFS.ReadDir("upstream")
	if err != nil {
		// The bundle is embedded at build time; a missing directory is a
		// packaging bug, not a runtime condition.
		panic(fmt.Sprintf("upstream bundle missing: %v", err))
	}

	releases := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			releases = append(releases, entry.Name())
		}
	}
	sort.Strings(releases)
	return releases
}

// DefaultRelease returns the newest bundled release.
func DefaultRelease() string {
	releases := Releases()
	return releases[len(releases)-1]
}

// LoadRelease parses every manifest document of one bundled release.
// Upstream ships a placeholder Secret with dummy credentials; it is dropped
// here because the Secret builder produces the real one.
func LoadRelease(release string) ([]*unstructured.Unstructured, error) {
	dir := path.Join("upstream", release)
	entries, err := upstreamFS.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unknown release %q (bundled: %v)", release, Releases())
	}

	var docs []*unstructured.Unstructured
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := upstreamFS.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", entry.Name(), err)
		}

		parsed, err := parseDocuments(content)
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest %s: %w", entry.Name(), err)
		}
		docs = append(docs, parsed...)
	}

	return docs, nil
}

func parseDocuments(content []byte) ([]*unstructured.Unstructured, error) {
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(content), 4096)

	var docs []*unstructured.Unstructured
	for {
		var obj unstructured.Unstructured
		if err := decoder.Decode(&obj); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if len(obj.Object) == 0 {
			continue
		}
		if obj.GetKind() == "Secret" {
			continue
		}
		docs = append(docs, &obj)
	}
	return docs, nil
}
