// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graphviz

import (
	"strings"
	"testing"

	"github.com/grailbio/abyssgo/graph"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

func TestWriteLinearPath(t *testing.T) {
	a := kmer.Alphabet{}
	cfg := graph.Config{K: 4, Alphabet: a}
	s := graph.NewStore(cfg)

	const seq = "ACGTACGT"
	for i := 0; i+4 <= len(seq); i++ {
		km, err := kmer.New(seq[i:i+4], a)
		require.NoError(t, err)
		require.NoError(t, s.Add(km))
	}
	s.Finalize()
	graph.GenerateAdjacency(s, graph.NoopPumper)

	var buf strings.Builder
	require.NoError(t, Write(&buf, s, a))
	out := buf.String()
	require.True(t, strings.HasPrefix(out, "digraph abyss {\n"))
	require.True(t, strings.HasSuffix(out, "}\n"))
	require.Contains(t, out, "->")
}

func TestWriteEmptyStore(t *testing.T) {
	a := kmer.Alphabet{}
	s := graph.NewStore(graph.Config{K: 4, Alphabet: a})
	s.Finalize()

	var buf strings.Builder
	require.NoError(t, Write(&buf, s, a))
	require.Equal(t, "digraph abyss {\n}\n", buf.String())
}
