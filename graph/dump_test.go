// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

func TestStoreLoadRoundTrip(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := Config{K: 4, Alphabet: a}
	s := NewStore(cfg)

	k1, err := kmer.New("ACGT", a)
	require.NoError(t, err)
	k2, err := kmer.New("CGTA", a)
	require.NoError(t, err)
	require.NoError(t, s.Add(k1))
	require.NoError(t, s.Add(k2))
	s.SetBaseExtension(k1, kmer.Sense, 0)
	s.Finalize()
	GenerateAdjacency(s, NoopPumper)

	dir, err := ioutil.TempDir("", "abyssgo-dump")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "graph.dump")

	require.NoError(t, s.Store(path))

	loaded := NewStore(cfg)
	require.NoError(t, loaded.Load(path))

	require.Equal(t, s.Len(), loaded.Len())
	require.True(t, loaded.HasAdjacency)
	require.True(t, loaded.Live(k1))
	require.True(t, loaded.Live(k2))

	sense, antisense, mult, ok := loaded.GetSeqData(k1)
	wantSense, wantAntisense, wantMult, wantOK := s.GetSeqData(k1)
	require.Equal(t, wantOK, ok)
	require.Equal(t, wantSense, sense)
	require.Equal(t, wantAntisense, antisense)
	require.Equal(t, wantMult, mult)
}

func TestLoadRejectsMismatchedK(t *testing.T) {
	a := kmer.Alphabet{}
	s := NewStore(Config{K: 4, Alphabet: a})
	k1, err := kmer.New("ACGT", a)
	require.NoError(t, err)
	require.NoError(t, s.Add(k1))
	s.Finalize()

	dir, err := ioutil.TempDir("", "abyssgo-dump")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "graph.dump")
	require.NoError(t, s.Store(path))

	mismatched := NewStore(Config{K: 5, Alphabet: a})
	require.Error(t, mismatched.Load(path))
}
