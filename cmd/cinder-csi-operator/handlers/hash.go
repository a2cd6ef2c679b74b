package handlers

import (
	"fmt"
	"io"
)

// Hash prints the digest of the merged configuration. It runs without a
// cluster client.
func Hash(configPath string, out io.Writer) error {
	s, err := newSession(configPath, false)
	if err != nil {
		return err
	}
	s.refresh()

	_, err = fmt.Fprintln(out, s.driver.Hash())
	return err
}
