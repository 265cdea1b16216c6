// Package sink persists individual chunks as standalone files, optionally
// compressed, so that each one can be consumed (or shipped) independently
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

const (
	CompressNone = "none"
	CompressZstd = "zstd"
	CompressXz   = "xz"
)

var AvailableCompressors = map[string]string{
	CompressNone: "",
	CompressZstd: ".zst",
	CompressXz:   ".xz",
}

const chunkFilePrefix = "chunk-"
const chunkFileSuffix = ".bin"

type Sink struct {
	dir         string
	compression string
	ext         string
}

// New prepares dir (creating it if necessary) for receiving chunk files
func New(dir string, compression string) (*Sink, error) {
	ext, known := AvailableCompressors[compression]
	if !known {
		return nil, fmt.Errorf(
			"invalid compressor '%s'. Available compressors are %s",
			compression,
			util.AvailableMapKeys(AvailableCompressors),
		)
	}
	if dir == "" {
		return nil, fmt.Errorf("chunk output directory can not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("unable to create chunk output directory: %w", err)
	}

	return &Sink{
		dir:         dir,
		compression: compression,
		ext:         ext,
	}, nil
}

func (s *Sink) Dir() string         { return s.dir }
func (s *Sink) Compression() string { return s.compression }

// Path returns the location chunk number idx is written to. Indices are
// zero-padded to the width of the largest chunk count of a single file.
func (s *Sink) Path(idx int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%08d%s%s", chunkFilePrefix, idx, chunkFileSuffix, s.ext))
}

// WriteChunk stores data as chunk idx, returning the amount of bytes that
// ended up on disk. Safe for concurrent use with distinct idx values.
func (s *Sink) WriteChunk(idx int, data []byte) (onDisk int64, err error) {
	path := s.Path(idx)

	fh, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := fh.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(path)
			return
		}
		if st, statErr := os.Stat(path); statErr == nil {
			onDisk = st.Size()
		}
	}()

	var w io.WriteCloser
	switch s.compression {
	case CompressZstd:
		// the chunk itself is the unit of parallelism, one encoder thread each
		if w, err = zstd.NewWriter(
			fh,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedDefault),
		); err != nil {
			return 0, fmt.Errorf("zstd encoder construction failed: %w", err)
		}
	case CompressXz:
		if w, err = xz.NewWriter(fh); err != nil {
			return 0, fmt.Errorf("xz encoder construction failed: %w", err)
		}
	default:
		_, err = fh.Write(data)
		return
	}

	if _, err = w.Write(data); err != nil {
		w.Close()
		return 0, fmt.Errorf("%s compression of chunk #%d failed: %w", s.compression, idx, err)
	}
	if err = w.Close(); err != nil {
		return 0, fmt.Errorf("%s compression of chunk #%d failed: %w", s.compression, idx, err)
	}
	return
}

type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() (err error) {
	for _, c := range m.closers {
		if cErr := c(); cErr != nil && err == nil {
			err = cErr
		}
	}
	return
}

// OpenChunk opens a file previously written by WriteChunk, transparently
// decompressing based on its extension
func OpenChunk(path string) (io.ReadCloser, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch {
	case strings.HasSuffix(path, AvailableCompressors[CompressZstd]):
		dec, err := zstd.NewReader(fh, zstd.WithDecoderConcurrency(1))
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("zstd decoder construction failed: %w", err)
		}
		return &multiCloser{
			Reader: dec,
			closers: []func() error{
				func() error { dec.Close(); return nil },
				fh.Close,
			},
		}, nil

	case strings.HasSuffix(path, AvailableCompressors[CompressXz]):
		dec, err := xz.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, fmt.Errorf("xz decoder construction failed: %w", err)
		}
		return &multiCloser{Reader: dec, closers: []func() error{fh.Close}}, nil

	default:
		return fh, nil
	}
}

// ListChunks returns every chunk file in dir, in input order
func ListChunks(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, chunkFilePrefix+"[0-9]*"+chunkFileSuffix+"*"))
	if err != nil {
		return nil, err
	}

	// numbering continues across input files and may outgrow the padding
	type indexed struct {
		path string
		idx  uint64
	}
	chunks := make([]indexed, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimPrefix(filepath.Base(m), chunkFilePrefix)
		digits := base[:strings.Index(base, chunkFileSuffix)]
		idx, err := strconv.ParseUint(digits, 10, 64)
		if err != nil {
			continue
		}
		chunks = append(chunks, indexed{path: m, idx: idx})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].idx < chunks[j].idx })

	sorted := make([]string, len(chunks))
	for i := range chunks {
		sorted[i] = chunks[i].path
	}
	return sorted, nil
}
