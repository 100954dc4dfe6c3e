//go:build !windows

package store

import "github.com/google/renameio/v2"

// writeFile writes through a synced temp file that is renamed over path
func writeFile(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0o644)
}
