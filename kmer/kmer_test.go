// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package kmer_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

var baseAlphabet = kmer.Alphabet{}

func mustNew(t *testing.T, s string) kmer.Kmer {
	k, err := kmer.New(s, baseAlphabet)
	require.NoError(t, err)
	return k
}

func TestNewInvalidBase(t *testing.T) {
	_, err := kmer.New("ACGTN", baseAlphabet)
	require.Error(t, err)
}

func TestDecodeRoundTrip(t *testing.T) {
	for _, s := range []string{"A", "ACGT", "ACGTACGTAC", "TTTTGGGGCCCCAAAA"} {
		k := mustNew(t, s)
		require.Equal(t, s, k.Decode(baseAlphabet))
		require.Equal(t, len(s), k.Len())
	}
}

func TestReverseComplement(t *testing.T) {
	k := mustNew(t, "ACGTACGTAC")
	rc := k.ReverseComplement(baseAlphabet)
	require.Equal(t, "GTACGTACGT", rc.Decode(baseAlphabet))
	// RC is an involution.
	require.True(t, k.Equal(rc.ReverseComplement(baseAlphabet)))
}

func TestPalindrome(t *testing.T) {
	require.True(t, mustNew(t, "AATT").IsPalindrome(baseAlphabet))
	require.False(t, mustNew(t, "ACGG").IsPalindrome(baseAlphabet))
	require.True(t, mustNew(t, "ACGCGT").IsPalindrome(baseAlphabet))
}

// Property 1: canonicalization. hash(x) == hash(rc(x)) and the canonical
// form is stable under re-canonicalization.
func TestCanonicalizationProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bases := "ACGT"
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(40)
		buf := make([]byte, n)
		for j := range buf {
			buf[j] = bases[rng.Intn(4)]
		}
		k := mustNew(t, string(buf))
		rc := k.ReverseComplement(baseAlphabet)
		require.Equal(t, k.Hash(), rc.Hash(), "hash must match for %s", buf)
		require.Equal(t, k.Canonical(baseAlphabet), rc.Canonical(baseAlphabet))
	}
}

func TestShiftAppendPrepend(t *testing.T) {
	k := mustNew(t, "ACGT")
	dropped := k.Shift(kmer.Sense, 1 /* C */, baseAlphabet) // append C, drop A
	require.Equal(t, byte('A'), baseAlphabet.DecodeBase(dropped))
	require.Equal(t, "CGTC", k.Decode(baseAlphabet))

	k2 := mustNew(t, "ACGT")
	dropped2 := k2.Shift(kmer.Antisense, 2 /* G */, baseAlphabet) // prepend G, drop T
	require.Equal(t, byte('T'), baseAlphabet.DecodeBase(dropped2))
	require.Equal(t, "GACG", k2.Decode(baseAlphabet))
}

func TestColourSpaceDisablesComplement(t *testing.T) {
	cs := kmer.Alphabet{ColourSpace: true}
	k, err := kmer.New("0123", cs)
	require.NoError(t, err)
	rc := k.ReverseComplement(cs)
	require.Equal(t, "3210", rc.Decode(cs))
}

func TestCompareOrdering(t *testing.T) {
	a := mustNew(t, "AAAA")
	c := mustNew(t, "ACGT")
	require.True(t, a.Compare(c) < 0)
	require.True(t, c.Compare(a) > 0)
	require.Equal(t, 0, a.Compare(a))
}

func TestExtSet(t *testing.T) {
	var e kmer.ExtSet
	require.False(t, e.Any())
	e.Set(0)
	e.Set(3)
	require.True(t, e.Test(0))
	require.True(t, e.Test(3))
	require.False(t, e.Test(1))
	require.True(t, e.Ambiguous())
	require.Equal(t, 2, e.Count())

	comp := e.Complement()
	require.True(t, comp.Test(3)) // 0 -> 3
	require.True(t, comp.Test(0)) // 3 -> 0

	e.Clear(0)
	require.False(t, e.Ambiguous())
	b, ok := e.SingleBase()
	require.True(t, ok)
	require.Equal(t, byte(3), b)
}
