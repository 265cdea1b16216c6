//go:build unix

package mmapfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestMapWriteOnlyHandle(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "wronly")
	require.NoError(t, os.WriteFile(fn, []byte("not readable through this handle"), 0600))

	fh, err := os.OpenFile(fn, os.O_WRONLY, 0)
	require.NoError(t, err)
	defer fh.Close()

	_, err = New(fh)
	var me *MappingError
	require.True(t, errors.As(err, &me), "expected a MappingError, got %v", err)
	assert.ErrorIs(t, err, unix.EACCES)
}
