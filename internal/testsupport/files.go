package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// WriteImage creates a stand-in image artifact at path, padded to size
// bytes. Parent directories are created as needed; a size <= 0 still writes
// a single byte so the file stats as non-empty.
func WriteImage(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, int(size)), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
