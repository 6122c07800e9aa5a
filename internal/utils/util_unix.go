//go:build !windows

package utils

import (
	"io"
	"os"

	"github.com/google/renameio"
)

func atomicWriteFile(name string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(name, data, perm)
}

func atomicCopy(r io.Reader, name string, perm os.FileMode) error {
	t, err := renameio.TempFile("", name)
	if err != nil {
		return err
	}
	defer t.Cleanup()

	if err := t.Chmod(perm); err != nil {
		return err
	}
	if _, err := io.Copy(t, r); err != nil {
		return err
	}
	return t.CloseAtomicallyReplace()
}
