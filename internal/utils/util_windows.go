//go:build windows

package utils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

func atomicWriteFile(name string, data []byte, perm os.FileMode) error {
	return atomicCopy(bytes.NewReader(data), name, perm)
}

// atomicCopy writes a sibling temp file and renames it over name, which is
// believed to be atomic on NTFS.
func atomicCopy(r io.Reader, name string, perm os.FileMode) (err error) {
	f, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp, perm); err != nil {
		return err
	}
	return os.Rename(tmp, name)
}
