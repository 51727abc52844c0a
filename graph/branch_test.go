// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"testing"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/abyssgo/seqio"
	"github.com/stretchr/testify/require"
)

// buildStore inserts every k-mer of seqs under cfg, seals the store, and
// generates adjacency, the same sequence loadReads/control.Run follow
// before any graph edit runs.
func buildStore(t *testing.T, cfg Config, seqs ...string) *Store {
	t.Helper()
	s := NewStore(cfg)
	var kmers []kmer.Kmer
	for _, seq := range seqs {
		var err error
		kmers, err = seqio.Kmerize(seq, cfg.K, cfg.Alphabet, kmers[:0])
		require.NoError(t, err)
		for _, km := range kmers {
			require.NoError(t, s.Add(km))
		}
	}
	s.Finalize()
	GenerateAdjacency(s, NoopPumper)
	return s
}

func mustKmer(t *testing.T, s string, a kmer.Alphabet) kmer.Kmer {
	t.Helper()
	k, err := kmer.New(s, a)
	require.NoError(t, err)
	return k
}

// setExt sets a single base extension on k in dir, failing the test if the
// base can't be encoded or the vertex doesn't exist.
func setExt(t *testing.T, s *Store, a kmer.Alphabet, k kmer.Kmer, dir kmer.Direction, base byte) {
	t.Helper()
	code, err := a.EncodeBase(base)
	require.NoError(t, err)
	require.True(t, s.SetBaseExtension(k, dir, code))
}

// A single unbranched chain, built edge by edge rather than from a literal
// read sequence so the test is immune to incidental reverse-complement
// folding (two of a sequence's own k-mers canonicalizing to the same store
// vertex, which a naive hand-picked sequence can trigger by accident). The
// walker runs start to end and stops with NoExt (Property 5: the walker
// always terminates, here on a true dead end).
func TestBranchRecordRunLinearNoExt(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a}
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

	br := NewBranchRecord(kmer.Sense, 0, k1)
	state := br.Run(s)

	require.Equal(t, NoExt, state)
	require.Equal(t, 4, br.Len())
	require.Equal(t, "CAGTCAG", decodeBranch(br, a))
}

// A tandem repeat folds the de Bruijn graph into a cycle; the walker must
// detect re-entering an already-visited k-mer and stop rather than loop
// forever (Property 5 again, this time via the Loop terminal state).
func TestBranchRecordRunDetectsLoop(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 3, Alphabet: a}
	s := buildStore(t, cfg, "AACAACAAC")

	origin := mustKmer(t, "AAC", a)
	br := NewBranchRecord(kmer.Sense, 0, origin)
	state := br.Run(s)

	require.Equal(t, Loop, state)
	require.Equal(t, 3, br.Len())
}

// Two reads that converge on a shared suffix k-mer from different
// predecessors give that k-mer an ambiguous back edge; Step must refuse to
// walk into it rather than silently merging the two paths, and the
// rejected k-mer must never appear in the branch (trim's removal sweep
// depends on this: see trim.go's toMark construction).
func TestBranchRecordStepStopsOnBackAmbiguity(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a}
	s := NewStore(cfg)

	pred1 := mustKmer(t, "AATC", a)
	pred2 := mustKmer(t, "GATC", a)
	join := mustKmer(t, "ATCC", a)
	require.NoError(t, s.Add(pred1))
	require.NoError(t, s.Add(pred2))
	require.NoError(t, s.Add(join))

	setExt(t, s, a, pred1, kmer.Sense, 'C')
	setExt(t, s, a, join, kmer.Antisense, 'A')
	setExt(t, s, a, pred2, kmer.Sense, 'C')
	setExt(t, s, a, join, kmer.Antisense, 'G')
	s.Finalize()

	br := NewBranchRecord(kmer.Sense, 0, pred1)
	state := br.Run(s)

	require.Equal(t, AmbiOpp, state)
	require.Equal(t, 1, br.Len())
	require.Equal(t, pred1, br.Last())
}
