// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

// A two-allele SNP bubble (two reads sharing a k-1 prefix and suffix,
// differing at one base in between) must be popped: both branches reach
// the same join k-mer at equal length, and the lower-multiplicity (here,
// lexicographically later) allele is collapsed out of the store. This is
// also the direct regression test for branchGroup.step's join-aware
// back-edge check: the join k-mer has two predecessors by construction, so
// a branch that rejected it on back-edge ambiguity would never let
// updateStatus see a join at all.
func TestPopBubblesCollapsesSimpleBubble(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a, Bubbles: true}
	s := buildStore(t, cfg, "CAAACAGCAA", "CAAAGAGCAA")

	popped := PopBubbles(s, nil, NoopPumper)
	require.Equal(t, 1, popped)

	kept := mustKmer(t, "AAAC", a)
	discarded := mustKmer(t, "AAAG", a)
	require.True(t, s.Live(kept))
	require.False(t, s.Live(discarded))

	join := mustKmer(t, "AGCA", a)
	require.True(t, s.Live(join), "the shared join k-mer belongs to the surviving path and must not be collapsed away")
}

// A vertex with no ambiguous extension in either direction never starts a
// branch group, so PopBubbles leaves a plain linear graph untouched. Built
// by hand (rather than via buildStore's GenerateAdjacency) so the only
// edges present are the ones explicitly set here, with nothing left to
// chance from incidental k-1 overlaps.
func TestPopBubblesNoOpOnLinearGraph(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a, Bubbles: true}
	s := NewStore(cfg)

	k1 := mustKmer(t, "AAAA", a)
	k2 := mustKmer(t, "AAAC", a)
	k3 := mustKmer(t, "AACG", a)
	require.NoError(t, s.Add(k1))
	require.NoError(t, s.Add(k2))
	require.NoError(t, s.Add(k3))

	cCode, err := a.EncodeBase('C')
	require.NoError(t, err)
	gCode, err := a.EncodeBase('G')
	require.NoError(t, err)
	aCode, err := a.EncodeBase('A')
	require.NoError(t, err)

	require.True(t, s.SetBaseExtension(k1, kmer.Sense, cCode))
	require.True(t, s.SetBaseExtension(k2, kmer.Antisense, aCode))
	require.True(t, s.SetBaseExtension(k2, kmer.Sense, gCode))
	require.True(t, s.SetBaseExtension(k3, kmer.Antisense, aCode))
	s.Finalize()

	popped := PopBubbles(s, nil, NoopPumper)
	require.Equal(t, 0, popped)
}
