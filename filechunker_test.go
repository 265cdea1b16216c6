package filechunker

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs-shipyard/filechunker/chunker"
	"github.com/ipfs-shipyard/filechunker/mmapfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openWith(t *testing.T, content []byte) *FileChunker {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	fh, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { fh.Close() })

	fc, err := New(fh)
	require.NoError(t, err)
	t.Cleanup(func() { fc.Close() })

	return fc
}

func accessLog(lines int) []byte {
	var buf bytes.Buffer
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&buf,
			"Nov 23 06:26:%02d ip-10-1-1-1 haproxy[20128]: 10.1.1.%d:%d [23/Nov/2019:06:%02d:%02d.%03d] public myapp/i-%016x 0/0/0/%d/%d 200 %d/%d - - ---- 8/8/5/0/0 0/0 {} {||%d|} \"GET /%040x HTTP/1.1\"\n",
			40+i%20, 10+i%6, 38000+i*97, 26+i%30, 40+i%20, (i*131)%1000, uint64(i)*0x9e3779b97f4a7c15, 20+i%150, 30+i%170, 800+i%200, 1000+i*4099, 1000+i*4091, uint64(i)*0x2545f4914f6cdd1d,
		)
	}
	return buf.Bytes()
}

func TestChunksAlignedOnNewline(t *testing.T) {
	log := accessLog(10)
	fc := openWith(t, log)

	chunks, err := fc.Chunks(4, chunker.Byte('\n'))
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	var total int
	for i, c := range chunks {
		total += len(c)
		if len(c) > 0 {
			assert.Equal(t, byte('\n'), c[len(c)-1], "chunk %d", i)
		}
	}
	assert.Equal(t, len(log), total)
	assert.Equal(t, log, bytes.Join(chunks, nil))
}

func TestChunksWithoutDelimiter(t *testing.T) {
	fc := openWith(t, []byte("0123456789"))

	chunks, err := fc.Chunks(10, chunker.NoDelimiter)
	require.NoError(t, err)
	require.Len(t, chunks, 10)
	for i, c := range chunks {
		assert.Equal(t, fmt.Sprint(i), string(c))
	}
}

func TestChunksSmallDelimited(t *testing.T) {
	fc := openWith(t, []byte("01\n23\n45\n67\n89"))

	chunks, err := fc.Chunks(2, chunker.Byte('\n'))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "01\n23\n45\n", string(chunks[0]))
	assert.Equal(t, "67\n89", string(chunks[1]))
}

func TestChunksOfSize(t *testing.T) {
	log := accessLog(50)
	fc := openWith(t, log)

	chunks, err := fc.ChunksOfSize(1024, chunker.Byte('\n'))
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, log, bytes.Join(chunks, nil))
	for i, c := range chunks[:len(chunks)-1] {
		assert.GreaterOrEqual(t, len(c), 1024, "chunk %d", i)
		assert.Equal(t, byte('\n'), c[len(c)-1], "chunk %d", i)
	}
}

func TestEmptyFile(t *testing.T) {
	fc := openWith(t, nil)
	assert.Zero(t, fc.Len())

	chunks, err := fc.Chunks(3, chunker.Byte('\n'))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.Empty(t, c)
	}
}

func TestPlanAndRangesAgree(t *testing.T) {
	fc := openWith(t, accessLog(20))
	req := chunker.Request{Count: 7, Delimiter: chunker.Byte('\n')}

	ranges, views, err := fc.Plan(req)
	require.NoError(t, err)
	require.Len(t, views, len(ranges))
	require.NoError(t, chunker.Validate(fc.Len(), ranges))

	again, err := fc.Ranges(req)
	require.NoError(t, err)
	assert.Equal(t, ranges, again)

	for i, r := range ranges {
		assert.Equal(t, fc.Bytes()[r.Start:r.End], views[i])
	}
}

func TestInvalidRequestPassesThrough(t *testing.T) {
	fc := openWith(t, []byte("abc"))

	_, err := fc.Chunks(0, chunker.NoDelimiter)
	assert.ErrorIs(t, err, chunker.ErrInvalidRequest)
}

func TestClosed(t *testing.T) {
	fc := openWith(t, []byte("a\nb\n"))
	require.NoError(t, fc.Advise(mmapfile.AccessSequential))
	require.NoError(t, fc.Close())
	require.NoError(t, fc.Close())

	_, err := fc.Chunks(2, chunker.Byte('\n'))
	assert.ErrorIs(t, err, mmapfile.ErrClosed)
	_, err = fc.Ranges(chunker.Request{Count: 1})
	assert.ErrorIs(t, err, mmapfile.ErrClosed)
	assert.ErrorIs(t, fc.Advise(mmapfile.AccessRandom), mmapfile.ErrClosed)
	assert.Equal(t, 4, fc.Len())
}

func TestNewRejectsNonRegular(t *testing.T) {
	fh, err := os.Open(t.TempDir())
	require.NoError(t, err)
	defer fh.Close()

	_, err = New(fh)
	var me *mmapfile.MappingError
	require.ErrorAs(t, err, &me)
}
