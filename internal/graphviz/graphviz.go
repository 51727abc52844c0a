// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package graphviz renders a vertex store as a GraphViz "digraph" for
// visual debugging of small graphs. No example repo dependency fits this
// concern (it's a pure text-formatting exercise, not a build/serve/parse
// problem any library in the corpus addresses), so it is a hand-rolled
// text writer; see DESIGN.md.
package graphviz

import (
	"bufio"
	"fmt"
	"io"

	"github.com/grailbio/abyssgo/graph"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/pkg/errors"
)

// label names a k-mer oriented to one strand as "<k-mer><+|->", matching
// the convention that a canonical vertex represents two directed strands.
func label(oriented kmer.Kmer, sense bool) string {
	sign := "+"
	if !sense {
		sign = "-"
	}
	return oriented.String() + sign
}

// Write renders s as a GraphViz digraph to w: one node per strand of every
// live vertex, and one edge per outgoing adjacency walked from that
// strand's own 3' end, per spec.md §6's optional debug output.
func Write(w io.Writer, s *graph.Store, a kmer.Alphabet) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "digraph abyss {"); err != nil {
		return errors.Wrap(err, "graphviz: writing header")
	}

	var walkErr error
	s.ForEach(func(k kmer.Kmer, v *graph.VertexData) {
		if walkErr != nil || v.Deleted() {
			return
		}
		for _, sense := range [2]bool{true, false} {
			oriented := k
			if !sense {
				oriented = k.ReverseComplement(a)
			}
			sourceLabel := label(oriented, sense)
			if _, err := fmt.Fprintf(bw, "\t%q;\n", sourceLabel); err != nil {
				walkErr = errors.Wrap(err, "graphviz: writing node")
				return
			}

			fwd, _, _, ok := s.GetSeqData(oriented)
			if !ok {
				continue
			}
			for base := byte(0); base < 4; base++ {
				if !fwd.Test(base) {
					continue
				}
				next := oriented
				next.Shift(kmer.Sense, base, a)
				targetLabel := label(next, next.IsCanonical(a))
				if _, err := fmt.Fprintf(bw, "\t%q -> %q;\n", sourceLabel, targetLabel); err != nil {
					walkErr = errors.Wrap(err, "graphviz: writing edge")
					return
				}
			}
		}
	})
	if walkErr != nil {
		return walkErr
	}

	if _, err := fmt.Fprintln(bw, "}"); err != nil {
		return errors.Wrap(err, "graphviz: writing footer")
	}
	return bw.Flush()
}
