package mmapfile

import (
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempFileWith(t *testing.T, content []byte) *os.File {
	t.Helper()

	fh, err := os.CreateTemp(t.TempDir(), "mmapfile")
	require.NoError(t, err)
	t.Cleanup(func() { fh.Close() })

	_, err = fh.Write(content)
	require.NoError(t, err)
	return fh
}

func TestMapWholeFile(t *testing.T) {
	content := []byte("01\n23\n45\n67\n89")
	fh := tempFileWith(t, content)

	m, err := New(fh)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Len())
	assert.Equal(t, content, m.Bytes())
	assert.Equal(t, fh.Name(), m.Name())

	for name, pattern := range AvailableAccessPatterns {
		assert.NoError(t, m.Advise(pattern), name)
	}
}

func TestMapEmptyFile(t *testing.T) {
	m, err := New(tempFileWith(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Bytes())
	assert.NoError(t, m.Advise(AccessSequential))
	assert.NoError(t, m.Close())
}

func TestMapDoesNotCloseSource(t *testing.T) {
	fh := tempFileWith(t, []byte("payload"))

	m, err := New(fh)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	// the borrowed handle is still usable
	_, err = fh.Stat()
	assert.NoError(t, err)
	buf := make([]byte, 7)
	n, err := fh.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(buf[:n]))
}

func TestUseAfterClose(t *testing.T) {
	m, err := New(tempFileWith(t, []byte("data")))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)

	// idempotent
	assert.NoError(t, m.Close())

	// size is retained past Close
	assert.Equal(t, 4, m.Len())
}

func TestLenDuringClose(t *testing.T) {
	m, err := New(tempFileWith(t, []byte("data")))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				assert.Equal(t, 4, m.Len())
			}
		}()
	}
	require.NoError(t, m.Close())
	wg.Wait()
}

func TestMappingErrors(t *testing.T) {

	t.Run("nil handle", func(t *testing.T) {
		_, err := New(nil)
		var me *MappingError
		require.True(t, errors.As(err, &me))
		assert.ErrorIs(t, err, os.ErrInvalid)
	})

	t.Run("pipe", func(t *testing.T) {
		r, w, err := os.Pipe()
		require.NoError(t, err)
		defer r.Close()
		defer w.Close()

		_, err = New(r)
		var me *MappingError
		require.True(t, errors.As(err, &me), "expected a MappingError, got %v", err)
		assert.Equal(t, "map", me.Op)
		assert.Contains(t, err.Error(), "pipe")
	})

	t.Run("directory", func(t *testing.T) {
		dh, err := os.Open(t.TempDir())
		require.NoError(t, err)
		defer dh.Close()

		_, err = New(dh)
		var me *MappingError
		require.True(t, errors.As(err, &me))
		assert.Contains(t, err.Error(), "directory")
	})

	t.Run("closed handle", func(t *testing.T) {
		fh := tempFileWith(t, []byte("data"))
		require.NoError(t, fh.Close())

		_, err := New(fh)
		var me *MappingError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "stat", me.Op)
	})
}
