// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/abyssgo/graph"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

func TestRankedPath(t *testing.T) {
	require.Equal(t, "contigs-2.fa", rankedPath("contigs.fa", 2))
	require.Equal(t, "contigs-0", rankedPath("contigs", 0))
}

func TestDetectAlphabetBaseSpace(t *testing.T) {
	dir, err := ioutil.TempDir("", "abyss-assemble-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "reads.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte(">r1\nACGTACGT\n"), 0644))

	a, err := detectAlphabet(path, 4)
	require.NoError(t, err)
	require.False(t, a.ColourSpace)
}

func TestDetectAlphabetColourSpace(t *testing.T) {
	dir, err := ioutil.TempDir("", "abyss-assemble-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "reads.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte(">r1\n0123012301\n"), 0644))

	a, err := detectAlphabet(path, 4)
	require.NoError(t, err)
	require.True(t, a.ColourSpace)
}

func TestLoadReadsInsertsKmers(t *testing.T) {
	dir, err := ioutil.TempDir("", "abyss-assemble-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "reads.fa")
	require.NoError(t, ioutil.WriteFile(path, []byte(">r1\nACGTACGT\n"), 0644))

	a := kmer.Alphabet{}
	cfg := graph.Config{K: 4, Alphabet: a}
	store := graph.NewStore(cfg)
	require.NoError(t, loadReads(store, []string{path}, 4, a))
	require.True(t, store.Len() > 0)
}

func TestNewTransportSingleShard(t *testing.T) {
	tr, err := newTransport(0, 1, "")
	require.NoError(t, err)
	require.Equal(t, 0, tr.Rank())
	require.Equal(t, 1, tr.Size())
}

func TestNewTransportPeerMismatch(t *testing.T) {
	_, err := newTransport(0, 3, "host1:1,host2:2")
	require.Error(t, err)
}
