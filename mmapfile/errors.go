package mmapfile

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrClosed      = errors.New("mmapfile: mapping is closed")
	ErrInvalidSize = errors.New("mmapfile: invalid file size")
)

// MappingError is returned whenever a mapping can not be established (or
// released). Err is the underlying cause, typically a syscall.Errno.
type MappingError struct {
	Op   string
	Path string
	Err  error
}

func (e *MappingError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("mmapfile: %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("mmapfile: %s '%s': %s", e.Op, e.Path, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

func errUnsupportedType(mode os.FileMode) error {
	kind := "irregular file"
	switch {
	case mode.IsDir():
		kind = "directory"
	case mode&os.ModeNamedPipe != 0:
		kind = "pipe"
	case mode&os.ModeSocket != 0:
		kind = "socket"
	case mode&os.ModeCharDevice != 0:
		kind = "character device"
	case mode&os.ModeDevice != 0:
		kind = "device"
	}
	return fmt.Errorf("unsupported file type: %s", kind)
}
