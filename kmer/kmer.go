// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package kmer implements the bit-packed fixed-width DNA k-mer codec (C1)
// and per-vertex adjacency bitmap (C2) used by the de Bruijn graph engine.
//
// A Kmer stores 2 bits per base in a fixed byte array sized for MaxKmerLen,
// with unused tail bits always zero. Bases are encoded A=0, C=1, G=2, T=3
// (or, in colour-space mode, 0/1/2/3 verbatim with complementation disabled).
package kmer

import (
	farm "github.com/dgryski/go-farm"
	"github.com/pkg/errors"
)

// MaxKmerLen is the largest k this package supports. It must stay a
// multiple of 4 so that every k-mer occupies a whole number of bytes.
const MaxKmerLen = 96

// NumBytes is the fixed storage width of a Kmer, regardless of the
// configured k; unused trailing bases are zero.
const NumBytes = MaxKmerLen / 4

// Direction is the side of a k-mer that an extension applies to.
type Direction uint8

const (
	// Sense extends off the 3' end (append).
	Sense Direction = iota
	// Antisense extends off the 5' end (prepend).
	Antisense
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Sense {
		return Antisense
	}
	return Sense
}

func (d Direction) String() string {
	if d == Sense {
		return "sense"
	}
	return "antisense"
}

// Alphabet selects base-space or colour-space interpretation of the 2-bit
// codes stored in a Kmer. It is latched once per run (see graph.Config) and
// then treated as read-only, per the "implicit global mutable state" design
// note.
type Alphabet struct {
	// ColourSpace disables base complementation: colour values 0-3 are not
	// letter-complemented when a k-mer is reverse-complemented.
	ColourSpace bool
}

const baseChars = "ACGT"
const colourChars = "0123"

// EncodeBase maps an input character to its 2-bit code. It returns an error
// for any character outside {A,C,G,T,0,1,2,3} (case-folded), per spec.
func (a Alphabet) EncodeBase(c byte) (byte, error) {
	switch c {
	case 'A', 'a', '0':
		return 0, nil
	case 'C', 'c', '1':
		return 1, nil
	case 'G', 'g', '2':
		return 2, nil
	case 'T', 't', '3':
		return 3, nil
	}
	return 0, errors.Errorf("kmer: invalid base character %q", c)
}

// DecodeBase maps a 2-bit code back to its ASCII representation.
func (a Alphabet) DecodeBase(code byte) byte {
	if a.ColourSpace {
		return colourChars[code&0x3]
	}
	return baseChars[code&0x3]
}

// ComplementBase returns the complementary 2-bit code. In colour-space this
// is the identity, matching the C++ source's behavior of disabling base
// complementation for colour-space runs.
func (a Alphabet) ComplementBase(code byte) byte {
	if a.ColourSpace {
		return code & 0x3
	}
	return ^code & 0x3
}

// Kmer is a fixed-length DNA (or colour-space) string, 2 bits per base,
// stored most-significant-base-first within each byte. The zero value is
// the empty (length 0) k-mer.
type Kmer struct {
	seq    [NumBytes]byte
	length uint8
}

// New constructs a Kmer from an ASCII sequence of exactly len(s) bases.
// It fails if len(s) > MaxKmerLen or s contains a character outside
// {A,C,G,T,0,1,2,3} (case-insensitive).
func New(s string, a Alphabet) (Kmer, error) {
	if len(s) > MaxKmerLen {
		return Kmer{}, errors.Errorf("kmer: length %d exceeds MaxKmerLen %d", len(s), MaxKmerLen)
	}
	var k Kmer
	k.length = uint8(len(s))
	for i := 0; i < len(s); i++ {
		code, err := a.EncodeBase(s[i])
		if err != nil {
			return Kmer{}, err
		}
		k.setBaseCode(i, code)
	}
	return k, nil
}

// Len returns the number of bases in k.
func (k Kmer) Len() int { return int(k.length) }

// baseByteIndex returns the byte and intra-byte base-slot (0-3, high to low)
// for base index i, matching PackedSeq's seqIndexToByteNumber/BaseIndex.
func baseByteIndex(i int) (byteNum int, slot uint) {
	return i / 4, uint(i % 4)
}

func (k Kmer) baseCode(i int) byte {
	byteNum, slot := baseByteIndex(i)
	shift := (3 - slot) * 2
	return (k.seq[byteNum] >> shift) & 0x3
}

func (k *Kmer) setBaseCode(i int, code byte) {
	byteNum, slot := baseByteIndex(i)
	shift := (3 - slot) * 2
	mask := byte(0x3) << shift
	k.seq[byteNum] = (k.seq[byteNum] &^ mask) | ((code & 0x3) << shift)
}

// Decode renders k back to its ASCII representation under alphabet a.
func (k Kmer) Decode(a Alphabet) string {
	buf := make([]byte, k.length)
	for i := 0; i < int(k.length); i++ {
		buf[i] = a.DecodeBase(k.baseCode(i))
	}
	return string(buf)
}

func (k Kmer) String() string { return k.Decode(Alphabet{}) }

// numCodingBytes returns how many bytes of k.seq carry real bases.
func (k Kmer) numCodingBytes() int {
	return (int(k.length) + 3) / 4
}

// Compare returns -1, 0, or 1 comparing k and other lexicographically over
// their decoded base sequence (equivalently, over their packed bytes, since
// unused tail bits are always zero and bases are stored high-bits-first).
func (k Kmer) Compare(other Kmer) int {
	n := k.numCodingBytes()
	on := other.numCodingBytes()
	m := n
	if on < m {
		m = on
	}
	for i := 0; i < m; i++ {
		if k.seq[i] < other.seq[i] {
			return -1
		}
		if k.seq[i] > other.seq[i] {
			return 1
		}
	}
	if k.length < other.length {
		return -1
	}
	if k.length > other.length {
		return 1
	}
	return 0
}

// Equal reports whether k and other encode the same base sequence.
func (k Kmer) Equal(other Kmer) bool { return k.Compare(other) == 0 }

// ReverseComplement returns the reverse complement of k. In colour-space,
// complementation is the identity, so only the base order is reversed.
func (k Kmer) ReverseComplement(a Alphabet) Kmer {
	var rc Kmer
	rc.length = k.length
	n := int(k.length)
	for i := 0; i < n; i++ {
		rc.setBaseCode(i, a.ComplementBase(k.baseCode(n-1-i)))
	}
	return rc
}

// Canonical returns the lexicographically smaller of k and its reverse
// complement.
func (k Kmer) Canonical(a Alphabet) Kmer {
	rc := k.ReverseComplement(a)
	if k.Compare(rc) <= 0 {
		return k
	}
	return rc
}

// IsCanonical reports whether k is already in canonical form.
func (k Kmer) IsCanonical(a Alphabet) bool {
	return k.Compare(k.ReverseComplement(a)) <= 0
}

// IsPalindrome reports whether k equals its own reverse complement.
func (k Kmer) IsPalindrome(a Alphabet) bool {
	return k.Compare(k.ReverseComplement(a)) == 0
}

// IsHalfPalindrome reports whether the half of k in direction dir, extended
// by one base, could only ever produce a palindrome — i.e. whether k already
// reads as a palindrome when only considering the effect extension in dir
// has on the opposite end. This mirrors Kmer::isPalindrome(extDirection):
// shifting in a base on the dir side and re-testing full palindromy.
func (k Kmer) IsHalfPalindrome(dir Direction, a Alphabet) bool {
	shifted := k
	shifted.Shift(dir, 0, a)
	return shifted.IsPalindrome(a)
}

// LastBaseChar returns the ASCII character of the base at the trailing end
// (Sense: last base; Antisense: first base).
func (k Kmer) LastBaseChar(dir Direction, a Alphabet) byte {
	if dir == Sense {
		return a.DecodeBase(k.baseCode(int(k.length) - 1))
	}
	return a.DecodeBase(k.baseCode(0))
}

// SetLastBase overwrites the trailing base in direction dir without
// shifting the rest of the k-mer.
func (k *Kmer) SetLastBase(dir Direction, code byte, a Alphabet) {
	if dir == Sense {
		k.setBaseCode(int(k.length)-1, code)
	} else {
		k.setBaseCode(0, code)
	}
}

// Shift appends (Sense) or prepends (Antisense) one base and returns the
// base displaced off the opposite end. It preserves the invariant that
// unused tail bits stay zero.
func (k *Kmer) Shift(dir Direction, code byte, a Alphabet) byte {
	if dir == Sense {
		return k.shiftAppend(code)
	}
	return k.shiftPrepend(code)
}

// shiftAppend shifts the whole base sequence one position toward the start
// and writes code into the new trailing slot, returning the base that fell
// off the front.
func (k *Kmer) shiftAppend(code byte) byte {
	n := int(k.length)
	out := k.baseCode(0)
	for i := 0; i < n-1; i++ {
		k.setBaseCode(i, k.baseCode(i+1))
	}
	k.setBaseCode(n-1, code)
	return out
}

// shiftPrepend shifts the whole base sequence one position toward the end
// and writes code into the new leading slot, returning the base that fell
// off the back.
func (k *Kmer) shiftPrepend(code byte) byte {
	n := int(k.length)
	out := k.baseCode(n - 1)
	for i := n - 1; i > 0; i-- {
		k.setBaseCode(i, k.baseCode(i-1))
	}
	k.setBaseCode(0, code)
	return out
}

// bitComplement flips a 2-bit code the way a base's bit pattern complements
// (A<->T, C<->G), independent of Alphabet. Hash has no Alphabet parameter,
// so it always mirrors bases this way; this matches base-space semantics,
// the only case the reverse-complement-symmetry property is required for.
func bitComplement(code byte) byte {
	return ^code & 0x3
}

// hashBytes returns the XOR, byte by byte, of k's packed coding bytes with
// the packed coding bytes of k's bit-complement reversal. Because that
// reversal is an involution, applying it to rc(k) reproduces k itself, so
// the same pair of byte strings (just XOR-commuted) comes out of
// hashBytes(k) and hashBytes(rc(k)) — this is Common/PackedSeq.cpp's
// getCode(), generalized from its fixed 4-byte window to k's actual coding
// width so the symmetry holds for every k, not only k>=16.
func (k Kmer) hashBytes() []byte {
	n := k.numCodingBytes()
	if n == 0 {
		return nil
	}
	length := int(k.length)
	mirror := make([]byte, n)
	for i := 0; i < length; i++ {
		code := bitComplement(k.baseCode(length - 1 - i))
		byteNum, slot := baseByteIndex(i)
		shift := (3 - slot) * 2
		mirror[byteNum] |= code << shift
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = k.seq[i] ^ mirror[i]
	}
	return out
}

// Hash returns a reverse-complement-symmetric hash over k's 2-bit encoding:
// Hash(k) == Hash(rc(k)) always, not merely when they agree outside one
// residual byte (required by the vertex store's canonicalization, spec's
// Testable Property 1).
func (k Kmer) Hash() uint64 {
	return farm.Hash64WithSeed(k.hashBytes(), 131)
}

// AppendBinary appends k's wire representation (a length byte followed by
// its packed coding bytes) to buf and returns the extended slice. Used by
// package wire to serialize ADD/REMOVE/... message bodies.
func (k Kmer) AppendBinary(buf []byte) []byte {
	buf = append(buf, k.length)
	return append(buf, k.seq[:k.numCodingBytes()]...)
}

// DecodeBinary parses a Kmer from the front of buf (as written by
// AppendBinary) and returns it along with the remaining bytes.
func DecodeBinary(buf []byte) (Kmer, []byte, error) {
	if len(buf) < 1 {
		return Kmer{}, nil, errors.New("kmer: short buffer decoding length")
	}
	length := buf[0]
	buf = buf[1:]
	if int(length) > MaxKmerLen {
		return Kmer{}, nil, errors.Errorf("kmer: decoded length %d exceeds MaxKmerLen %d", length, MaxKmerLen)
	}
	var k Kmer
	k.length = length
	n := k.numCodingBytes()
	if len(buf) < n {
		return Kmer{}, nil, errors.New("kmer: short buffer decoding sequence bytes")
	}
	copy(k.seq[:n], buf[:n])
	return k, buf[n:], nil
}
