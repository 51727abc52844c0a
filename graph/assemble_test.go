// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

// linearChainStore builds the same four-vertex unbranched chain
// CAGT->AGTC->GTCA->TCAG edge by edge (not from a literal read sequence, to
// stay immune to incidental reverse-complement folding) and returns its
// k-mers in walk order along with the store.
func linearChainStore(t *testing.T, cfg Config) (*Store, []kmer.Kmer) {
	t.Helper()
	a := cfg.Alphabet
	s := NewStore(cfg)

	k1 := mustKmer(t, "CAGT", a)
	k2 := mustKmer(t, "AGTC", a)
	k3 := mustKmer(t, "GTCA", a)
	k4 := mustKmer(t, "TCAG", a)
	require.NoError(t, s.Add(k1))
	require.NoError(t, s.Add(k2))
	require.NoError(t, s.Add(k3))
	require.NoError(t, s.Add(k4))

	setExt(t, s, a, k1, kmer.Sense, 'C')
	setExt(t, s, a, k2, kmer.Antisense, 'C')
	setExt(t, s, a, k2, kmer.Sense, 'A')
	setExt(t, s, a, k3, kmer.Antisense, 'A')
	setExt(t, s, a, k3, kmer.Sense, 'G')
	setExt(t, s, a, k4, kmer.Antisense, 'G')
	s.Finalize()

	return s, []kmer.Kmer{k1, k2, k3, k4}
}

// A single unambiguous linear path assembles to exactly one contig spanning
// its full length; canonical-branch dedup must keep only one of the two
// directions an endpoint walk would otherwise each produce. The walk starts
// from canonical store keys, so the contig comes out as CTGACTG, the reverse
// complement of the CAGT...TCAG chain.
func TestAssembleLinearContig(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a}
	s, _ := linearChainStore(t, cfg)

	contigs := Assemble(s, NoopPumper)

	require.Len(t, contigs, 1)
	require.Equal(t, "CTGACTG", contigs[0].Sequence)
	require.Equal(t, 4, contigs[0].KmerCount)
	require.False(t, contigs[0].LowCoverage)
}

// A contig whose mean per-k-mer multiplicity falls below cfg.Coverage is
// excluded from Assemble's returned slice and has its k-mers removed from
// the store (Testable Property 6: low-coverage filtering excludes exactly
// the contigs below threshold from what conservation is measured against).
// This is the regression test for the bug where a low-coverage contig was
// computed but never excluded from the returned slice.
func TestAssembleExcludesLowCoverageContig(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a, Coverage: 2}
	s, kmers := linearChainStore(t, cfg)

	contigs := Assemble(s, NoopPumper)

	require.Empty(t, contigs)
	for _, k := range kmers {
		require.False(t, s.Live(k), "a low-coverage contig's k-mers must be removed from the store")
	}
}
