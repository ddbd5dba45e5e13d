//go:build !linux

package probe

import (
	"fmt"
	"io"
)

func openDevice(path string) (io.Closer, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
}
