package generation

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand/v2"
)

// MaxSeed is the largest seed accepted by the image API.
const MaxSeed int64 = 0x7FFFFFFF

var seedSource io.Reader = rand.Reader

// GenerateSeed returns a uniformly random seed in [0, MaxSeed].
func GenerateSeed() int64 {
	return seedFrom(seedSource)
}

func seedFrom(r io.Reader) int64 {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return mrand.Int64N(MaxSeed + 1)
	}
	return int64(binary.LittleEndian.Uint32(buf[:]) & uint32(MaxSeed))
}
