// Package digest provides the per-chunk checksums reported by the splitter
package digest

import (
	"fmt"
	"hash"

	blake2b "github.com/minio/blake2b-simd"
	sha256 "github.com/minio/sha256-simd"
	"github.com/twmb/murmur3"
	"golang.org/x/crypto/sha3"

	"github.com/ipfs-shipyard/filechunker/internal/splitter/util"
)

// None is the name of the no-op digest: Sum always returns nil
const None = "none"

var AvailableDigests = map[string]func() hash.Hash{
	None:          nil,
	"sha2-256":    sha256.New,
	"sha3-512":    sha3.New512,
	"blake2b-256": blake2b.New256,
	"murmur3-128": func() hash.Hash { return murmur3.New128() },
}

type Digester struct {
	name   string
	maker  func() hash.Hash
	length int
}

func New(name string) (*Digester, error) {
	maker, found := AvailableDigests[name]
	if !found {
		return nil, fmt.Errorf(
			"invalid digest function '%s'. Available digest names are %s",
			name,
			util.AvailableMapKeys(AvailableDigests),
		)
	}

	d := &Digester{name: name, maker: maker}
	if maker != nil {
		d.length = maker().Size()
	}
	return d, nil
}

func (d *Digester) Name() string { return d.name }
func (d *Digester) Size() int    { return d.length }
func (d *Digester) Active() bool { return d.maker != nil }

// Sum is safe for concurrent use: every invocation gets its own hasher
func (d *Digester) Sum(data []byte) []byte {
	if d.maker == nil {
		return nil
	}
	h := d.maker()
	h.Write(data)
	return h.Sum(make([]byte, 0, d.length))
}
