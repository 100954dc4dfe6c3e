//go:build windows

package store

import "os"

// renameio has no Windows implementation; rename over an open file is not
// atomic there either
func writeFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
