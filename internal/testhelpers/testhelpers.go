// Package testhelpers contains helpers shared by tests across packages.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree materializes a content directory from a map of relative path to
// file body and returns its root. Files with a ".sh" extension are made
// executable.
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

		mode := os.FileMode(0o644)
		if filepath.Ext(name) == ".sh" {
			mode = 0o755
		}
		require.NoError(t, os.WriteFile(path, []byte(body), mode))
	}
	return root
}

// Script wraps a shell command into an executable content source body.
func Script(command string) string {
	return "#!/bin/sh\n" + command + "\n"
}
