package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"clientdedup/internal/hmis"
)

const (
	readAccess  = unix.R_OK | unix.X_OK
	writeAccess = unix.R_OK | unix.W_OK | unix.X_OK
)

// CheckDirectoryAccess verifies path is a directory granting mode.
func CheckDirectoryAccess(name, path string, mode uint32) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s ok)", path, accessLabel(mode))}
}

// CheckWritableTarget verifies path is writable, or that the nearest existing
// ancestor is when path has not been created yet.
func CheckWritableTarget(name, path string) Result {
	dir := path
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", path)}
		}
		dir = parent
	}
	r := CheckDirectoryAccess(name, dir, writeAccess)
	if r.Passed && dir != path {
		r.Detail = fmt.Sprintf("%s (will be created under %s)", path, dir)
	}
	return r
}

// CheckReadable verifies path is a readable regular file.
func CheckReadable(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (readable)", path)}
}

// CheckClientFile verifies the client registry exists and that its header
// resolves every required column.
func CheckClientFile(ctx context.Context, path string) Result {
	const name = "Client file"
	if r := CheckReadable(name, path); !r.Passed {
		return r
	}
	if err := ctx.Err(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	src, err := hmis.Open(path)
	if errors.Is(err, io.EOF) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: empty file)", path)}
	}
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer src.Close()
	if _, err := hmis.Resolve(src.Header(), hmis.ClientColumns); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (header ok, %d columns)", path, len(src.Header()))}
}

func accessLabel(mode uint32) string {
	if mode&unix.W_OK != 0 {
		return "read/write"
	}
	return "read"
}
