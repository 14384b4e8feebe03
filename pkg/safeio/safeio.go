// Package safeio writes output files and anchors configured paths.
package safeio

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolvePath anchors a relative path at base. Absolute paths and "" are
// returned unchanged.
func ResolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// WriteFileAtomic replaces path with data. The bytes go to a temporary file
// in the same directory which is renamed over path, so readers never see a
// partial document. An existing file's mode is kept; new files get 0644.
func WriteFileAtomic(path string, data []byte) (err error) {
	var mode os.FileMode = 0o644
	if st, statErr := os.Stat(path); statErr == nil {
		if st.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		mode = st.Mode() & 0o777
		if mode == 0 {
			mode = 0o644
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
