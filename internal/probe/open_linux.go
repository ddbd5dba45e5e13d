//go:build linux

package probe

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"golang.org/x/sys/unix"
)

type deviceFile struct {
	fd   int
	path string
}

// openDevice opens a usbfs node read-write and takes an exclusive flock so
// two handles can never drive the same probe at once.
func openDevice(path string) (io.Closer, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: path, Err: err}
	}
	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = unix.Close(fd)
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%s: %w", path, ErrBusy)
		}
		return nil, &fs.PathError{Op: "flock", Path: path, Err: err}
	}
	return &deviceFile{fd: fd, path: path}, nil
}

func (d *deviceFile) Close() error {
	_ = unix.Flock(d.fd, unix.LOCK_UN)
	if err := unix.Close(d.fd); err != nil {
		return &fs.PathError{Op: "close", Path: d.path, Err: err}
	}
	return nil
}
