// Package databag decodes the key-value exchange used by the credential and
// cluster-context sources. Every value in a bag is an individually
// JSON-encoded scalar, so "null", "true" and "\"text\"" are all valid
// payloads and each must be decoded before use.
package databag

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Load when the exchange file does not exist,
// which callers treat as "no relation established" rather than a failure.
var ErrNotFound = errors.New("databag not found")

// Bag is a raw exchange snapshot. Values remain JSON-encoded until read
// through one of the typed accessors.
type Bag map[string]string

// Load reads a bag from a YAML (or JSON) file of string keys to
// JSON-encoded string values.
func Load(path string) (Bag, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read databag: %w", err)
	}

	var bag Bag
	if err := yaml.Unmarshal(data, &bag); err != nil {
		return nil, fmt.Errorf("failed to unmarshal databag: %w", err)
	}
	return bag, nil
}

// Has reports whether the key is present, regardless of its value.
func (b Bag) Has(key string) bool {
	_, ok := b[key]
	return ok
}

// String decodes the value under key as a JSON string. It returns nil when
// the key is absent or its value is JSON null.
func (b Bag) String(key string) (*string, error) {
	raw, ok := b[key]
	if !ok {
		return nil, nil
	}
	var v *string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("databag key %q is not a JSON string: %w", key, err)
	}
	return v, nil
}

// Bool decodes the value under key as a JSON boolean. It returns nil when
// the key is absent or its value is JSON null.
func (b Bag) Bool(key string) (*bool, error) {
	raw, ok := b[key]
	if !ok {
		return nil, nil
	}
	var v *bool
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("databag key %q is not a JSON boolean: %w", key, err)
	}
	return v, nil
}

// Int decodes the value under key as a JSON integer. It returns nil when
// the key is absent or its value is JSON null.
func (b Bag) Int(key string) (*int, error) {
	raw, ok := b[key]
	if !ok {
		return nil, nil
	}
	var v *int
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("databag key %q is not a JSON integer: %w", key, err)
	}
	return v, nil
}

// StringMap decodes the value under key as a JSON object of string to
// string. It returns nil when the key is absent or its value is JSON null.
func (b Bag) StringMap(key string) (map[string]string, error) {
	raw, ok := b[key]
	if !ok {
		return nil, nil
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("databag key %q is not a JSON object: %w", key, err)
	}
	return v, nil
}
