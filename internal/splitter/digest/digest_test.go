package digest

import (
	stdsha256 "crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/murmur3"
	xblake2b "golang.org/x/crypto/blake2b"
)

var payload = []byte("abc\ndef\nghi\n")

func TestKnownDigests(t *testing.T) {

	d, err := New("sha2-256")
	require.NoError(t, err)
	stdSum := stdsha256.Sum256(payload)
	assert.Equal(t, stdSum[:], d.Sum(payload))
	assert.Equal(t, 32, d.Size())

	d, err = New("blake2b-256")
	require.NoError(t, err)
	b2Sum := xblake2b.Sum256(payload)
	assert.Equal(t, b2Sum[:], d.Sum(payload))

	d, err = New("sha3-512")
	require.NoError(t, err)
	assert.Equal(t,
		"b751850b1a57168a5693cd924b6b096e08f621827444f70d884f5d0240d2712e10e116e9192af3c91a7ec57647e3934057340b4cf408d5a56592f8274eec53f0",
		hex.EncodeToString(d.Sum([]byte("abc"))),
	)

	d, err = New("murmur3-128")
	require.NoError(t, err)
	h1, h2 := murmur3.Sum128(payload)
	exp := make([]byte, 16)
	binary.BigEndian.PutUint64(exp, h1)
	binary.BigEndian.PutUint64(exp[8:], h2)
	assert.Equal(t, exp, d.Sum(payload))
}

func TestNone(t *testing.T) {
	d, err := New(None)
	require.NoError(t, err)
	assert.False(t, d.Active())
	assert.Zero(t, d.Size())
	assert.Nil(t, d.Sum(payload))
}

func TestUnknown(t *testing.T) {
	_, err := New("md5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'sha2-256'")
}

func TestConcurrentSums(t *testing.T) {
	for name := range AvailableDigests {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			d, err := New(name)
			require.NoError(t, err)
			want := d.Sum(payload)

			var wg sync.WaitGroup
			got := make([][]byte, 16)
			for i := range got {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					got[i] = d.Sum(payload)
				}(i)
			}
			wg.Wait()

			for i := range got {
				assert.Equal(t, want, got[i])
			}
		})
	}
}
