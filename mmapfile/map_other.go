//go:build !unix

package mmapfile

import (
	"fmt"
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/exp/mmap"
)

// x/exp/mmap only knows how to open by name, and only exposes io.ReaderAt
// The mapped region itself lives in its unexported `data` field
func osMap(fh *os.File, size int) ([]byte, func([]byte) error, error) {
	r, err := mmap.Open(fh.Name())
	if err != nil {
		return nil, nil, err
	}

	f := reflect.ValueOf(r).Elem().FieldByName("data")
	if !f.IsValid() || f.Kind() != reflect.Slice || f.Type().Elem().Kind() != reflect.Uint8 {
		r.Close()
		return nil, nil, fmt.Errorf("unsupported golang.org/x/exp/mmap.ReaderAt layout")
	}
	data := *(*[]byte)(unsafe.Pointer(f.UnsafeAddr()))

	// the file may have changed between our stat() and the mapping
	if len(data) != size {
		r.Close()
		return nil, nil, fmt.Errorf("unexpected mapping size: got %d, want %d", len(data), size)
	}

	return data, func([]byte) error { return r.Close() }, nil
}

func osAdvise([]byte, AccessPattern) error { return nil }
