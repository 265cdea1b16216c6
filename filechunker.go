// Package filechunker reads a file through a single read-only memory mapping
// and divides it into approximately equally sized chunks, optionally aligned
// so that every chunk ends with a delimiter byte (e.g. a newline). Each chunk
// is a zero-copy view into the mapping, suitable to be handed to its own
// goroutine.
//
//	fh, _ := os.Open("/path/to/file.log")
//	defer fh.Close()
//
//	fc, err := filechunker.New(fh)
//	if err != nil { ... }
//	defer fc.Close()
//
//	chunks, err := fc.Chunks(runtime.NumCPU(), chunker.Byte('\n'))
//
// The underlying file must not change while it is mapped, and no chunk may be
// accessed after Close.
package filechunker

import (
	"os"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/mmapfile"
)

type FileChunker struct {
	mm *mmapfile.File
}

// New maps fh in its entirety. The handle is borrowed and must outlive the
// returned FileChunker. Failures are reported as *mmapfile.MappingError.
func New(fh *os.File) (*FileChunker, error) {
	mm, err := mmapfile.New(fh)
	if err != nil {
		return nil, err
	}
	return &FileChunker{mm: mm}, nil
}

func (fc *FileChunker) Len() int      { return fc.mm.Len() }
func (fc *FileChunker) Name() string  { return fc.mm.Name() }
func (fc *FileChunker) Bytes() []byte { return fc.mm.Bytes() }
func (fc *FileChunker) Close() error  { return fc.mm.Close() }

func (fc *FileChunker) Advise(p mmapfile.AccessPattern) error { return fc.mm.Advise(p) }

// Chunks divides the file into exactly count chunks, see chunker.PlanByCount
func (fc *FileChunker) Chunks(count int, delim chunker.Delimiter) ([][]byte, error) {
	_, views, err := fc.Plan(chunker.Request{Count: count, Delimiter: delim})
	return views, err
}

// ChunksOfSize divides the file into chunks of about size bytes, see
// chunker.PlanBySize
func (fc *FileChunker) ChunksOfSize(size int, delim chunker.Delimiter) ([][]byte, error) {
	_, views, err := fc.Plan(chunker.Request{Size: size, Delimiter: delim})
	return views, err
}

// Ranges returns only the boundary set
func (fc *FileChunker) Ranges(p chunker.Planner) ([]chunker.Range, error) {
	if fc.mm.Closed() {
		return nil, mmapfile.ErrClosed
	}
	return p.Plan(fc.mm.Bytes())
}

// Plan returns both the boundary set and the corresponding views
func (fc *FileChunker) Plan(p chunker.Planner) ([]chunker.Range, [][]byte, error) {
	if fc.mm.Closed() {
		return nil, nil, mmapfile.ErrClosed
	}

	data := fc.mm.Bytes()
	ranges, err := p.Plan(data)
	if err != nil {
		return nil, nil, err
	}
	return ranges, chunker.Views(data, ranges), nil
}
