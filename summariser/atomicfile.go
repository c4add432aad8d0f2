package summariser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFileAtomic replaces dstPath with data. Readers see either the old
// content or the new content, never a partial write.
func WriteFileAtomic(dstPath string, data []byte) error {
	if strings.TrimSpace(dstPath) == "" {
		return fmt.Errorf("dstPath is empty")
	}
	dir := filepath.Dir(dstPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Temp file must live in the same directory so the rename stays on one device.
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dstPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	syncErr := tmp.Sync()
	closeErr := tmp.Close()
	for _, err := range []error{writeErr, syncErr, closeErr} {
		if err != nil {
			_ = os.Remove(tmpPath)
			return err
		}
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
