// Package mmapfile establishes a read-only, whole-file memory mapping over an
// already open file handle and exposes it as a fixed-length byte view.
//
// The handle is borrowed: mmapfile never closes it. The mapping is released by
// Close, after which any slice previously obtained from Bytes() must not be
// touched. Modifying the underlying file while it is mapped is outside of what
// this package can guard against.
package mmapfile

import (
	"os"
	"sync/atomic"
)

// AccessPattern is a hint passed on to the kernel via madvise(2)
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	AccessSequential
	AccessRandom
	AccessWillNeed
)

var AvailableAccessPatterns = map[string]AccessPattern{
	"normal":     AccessDefault,
	"sequential": AccessSequential,
	"random":     AccessRandom,
	"willneed":   AccessWillNeed,
}

type File struct {
	data   []byte
	size   int
	name   string
	closed int32
	unmap  func([]byte) error
}

// New maps the entire current length of fh. Zero-length regular files are
// valid and result in a zero-length view without any mapping taking place.
func New(fh *os.File) (*File, error) {
	if fh == nil {
		return nil, &MappingError{Op: "open", Err: os.ErrInvalid}
	}

	stat, err := fh.Stat()
	if err != nil {
		return nil, &MappingError{Op: "stat", Path: fh.Name(), Err: err}
	}

	// a pipe or a tty would stat() as zero-length and silently map to nothing
	if !stat.Mode().IsRegular() {
		return nil, &MappingError{Op: "map", Path: fh.Name(), Err: errUnsupportedType(stat.Mode())}
	}

	size := stat.Size()
	if size < 0 || int64(int(size)) != size {
		return nil, &MappingError{Op: "map", Path: fh.Name(), Err: ErrInvalidSize}
	}

	m := &File{name: fh.Name(), size: int(size)}
	if size == 0 {
		return m, nil
	}

	if m.data, m.unmap, err = osMap(fh, int(size)); err != nil {
		return nil, &MappingError{Op: "map", Path: fh.Name(), Err: err}
	}

	return m, nil
}

// Bytes returns the mapped view, or nil once Close has been called
func (m *File) Bytes() []byte {
	if atomic.LoadInt32(&m.closed) != 0 {
		return nil
	}
	return m.data
}

func (m *File) Len() int     { return m.size }
func (m *File) Name() string { return m.name }
func (m *File) Closed() bool { return atomic.LoadInt32(&m.closed) != 0 }

func (m *File) Advise(pattern AccessPattern) error {
	if atomic.LoadInt32(&m.closed) != 0 {
		return ErrClosed
	}
	if m.size == 0 {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// Close releases the mapping. It is safe to call more than once.
func (m *File) Close() error {
	if !atomic.CompareAndSwapInt32(&m.closed, 0, 1) {
		return nil
	}

	data := m.data
	m.data = nil
	if m.unmap == nil || data == nil {
		return nil
	}
	if err := m.unmap(data); err != nil {
		return &MappingError{Op: "unmap", Path: m.name, Err: err}
	}
	return nil
}
