// Package must turns errors into panics. It is meant for tests and for the
// few places where an error can't happen.
package must

import (
	"io"
	"os"
	"path/filepath"
)

// OK panics if err is not nil.
func OK(err error) {
	if err != nil {
		panic(err)
	}
}

// OK1 returns v, or panics if err is not nil.
func OK1[T any](v T, err error) T {
	OK(err)
	return v
}

// OK2 returns v1 and v2, or panics if err is not nil.
func OK2[T1, T2 any](v1 T1, v2 T2, err error) (T1, T2) {
	OK(err)
	return v1, v2
}

// Pipe returns the two ends of a new pipe.
func Pipe() (r, w *os.File) { return OK2(os.Pipe()) }

// Chdir changes the working directory.
func Chdir(dir string) { OK(os.Chdir(dir)) }

// ReadAllAndClose reads r until EOF and closes it.
func ReadAllAndClose(r io.ReadCloser) []byte {
	defer func() { OK(r.Close()) }()
	return OK1(io.ReadAll(r))
}

// WriteFile writes data to filename, creating missing parent directories.
func WriteFile(filename, data string) {
	OK(os.MkdirAll(filepath.Dir(filename), 0o700))
	OK(os.WriteFile(filename, []byte(data), 0o600))
}
