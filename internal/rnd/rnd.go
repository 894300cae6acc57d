// Package rnd implements the deterministic random stream consumed by the
// state transition. The byte sequence is fully specified: the stream is the
// concatenation of SHA-256 hashes, where the first block is the seed itself
// and each following block is the SHA-256 of the previous block. Every
// consumer on the network draws the exact same bytes for the same seed.
package rnd

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Stream is a deterministic random byte stream. The zero value is not
// usable; construct with NewStream or Seed before drawing.
type Stream struct {
	block  [sha256.Size]byte
	offset int
	seeded bool
}

// NewStream returns a stream seeded from the given 32-byte seed.
func NewStream(seed [sha256.Size]byte) *Stream {
	s := &Stream{}
	s.Seed(seed)
	return s
}

// SeedFromHex seeds the stream from a hex-encoded block hash as delivered
// by the host chain.
func (s *Stream) SeedFromHex(hashHex string) error {
	raw, err := hex.DecodeString(hashHex)
	if err != nil {
		return fmt.Errorf("decode seed %q: %w", hashHex, err)
	}
	if len(raw) != sha256.Size {
		return fmt.Errorf("seed %q: got %d bytes, want %d", hashHex, len(raw), sha256.Size)
	}
	var seed [sha256.Size]byte
	copy(seed[:], raw)
	s.Seed(seed)
	return nil
}

// Seed resets the stream to the beginning of the sequence for seed.
func (s *Stream) Seed(seed [sha256.Size]byte) {
	s.block = seed
	s.offset = 0
	s.seeded = true
}

// Byte returns the next byte of the stream.
func (s *Stream) Byte() byte {
	if !s.seeded {
		panic("rnd: drawing from an unseeded stream")
	}
	if s.offset == sha256.Size {
		s.block = sha256.Sum256(s.block[:])
		s.offset = 0
	}
	b := s.block[s.offset]
	s.offset++
	return b
}

// uint32 draws four bytes big-endian.
func (s *Stream) uint32() uint32 {
	var buf [4]byte
	for i := range buf {
		buf[i] = s.Byte()
	}
	return binary.BigEndian.Uint32(buf[:])
}

// NextInt returns a uniform integer in [0, n). n must be positive and fit
// in 32 bits. Uniformity uses rejection sampling so the distribution is
// exact; the number of draws consumed depends only on the stream contents.
func (s *Stream) NextInt(n int) int {
	if n <= 0 || n > 1<<31 {
		panic(fmt.Sprintf("rnd: NextInt range %d out of bounds", n))
	}
	un := uint32(n)
	// Largest multiple of n representable in 32 bits; values at or above
	// it are rejected to avoid modulo bias.
	limit := (1 << 32 / uint64(un)) * uint64(un)
	for {
		v := s.uint32()
		if uint64(v) < limit {
			return int(v % un)
		}
	}
}

// ProbabilityRoll returns true with probability num/den.
func (s *Stream) ProbabilityRoll(num, den int) bool {
	if den <= 0 || num < 0 || num > den {
		panic(fmt.Sprintf("rnd: invalid probability %d/%d", num, den))
	}
	if num == den {
		return true
	}
	if num == 0 {
		return false
	}
	return s.NextInt(den) < num
}

// UniformInt returns a uniform integer in [lo, hi] inclusive.
func (s *Stream) UniformInt(lo, hi int) int {
	if hi < lo {
		panic(fmt.Sprintf("rnd: invalid range [%d, %d]", lo, hi))
	}
	return lo + s.NextInt(hi-lo+1)
}

// UniformInt64 returns a uniform integer in [lo, hi] inclusive. The span
// must fit in 32 bits, which every configured damage and rate interval
// does.
func (s *Stream) UniformInt64(lo, hi int64) int64 {
	if hi < lo {
		panic(fmt.Sprintf("rnd: invalid range [%d, %d]", lo, hi))
	}
	return lo + int64(s.NextInt(int(hi-lo+1)))
}

// SelectIndex returns a uniform index into a slice of length n.
func (s *Stream) SelectIndex(n int) int {
	return s.NextInt(n)
}

// BranchSeed derives an independent seed from the current stream by drawing
// 32 bytes. Used when a sub-computation needs its own stream without
// coupling its draw count to the parent's phase ordering.
func (s *Stream) BranchSeed() [sha256.Size]byte {
	var seed [sha256.Size]byte
	for i := range seed {
		seed[i] = s.Byte()
	}
	return seed
}
