// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// removeExtensionsToSequence severs every edge that points from a neighbor
// of k (in direction dir) back into k, i.e. it detaches k from the rest of
// the graph on one side without touching k's own adjacency record. Grounded
// on AssemblyAlgorithms::removeExtensionsToSequence, used by erosion, tip
// trimming, and bubble collapse to unlink a vertex before it is deleted.
func removeExtensionsToSequence(s *Store, k kmer.Kmer, dir kmer.Direction) {
	sense, antisense, _, ok := s.GetSeqData(k)
	if !ok {
		return
	}
	ext := sense
	if dir == kmer.Antisense {
		ext = antisense
	}
	for _, base := range ext.Bases() {
		neighbor := k
		// dropped is k's own base at the end opposite dir: the value the
		// neighbor's reciprocal edge (in dir.Opposite()) carries, mirroring
		// how GenerateAdjacency derived the same value when it set that
		// edge in the first place.
		dropped := neighbor.Shift(dir, base, s.cfg.Alphabet)
		s.RemoveExtension(neighbor, dir.Opposite(), kmer.NewExtSet(dropped))
	}
}

// removeVertexAndExtensions unlinks k from both of its neighbor sets and
// then marks it deleted, matching
// AssemblyAlgorithms::removeSequenceAndExtensions's two-step "cut, then
// delete" order (cutting first ensures neighbors never observe a dangling
// edge to an already-deleted vertex).
func removeVertexAndExtensions(s *Store, k kmer.Kmer) {
	removeExtensionsToSequence(s, k, kmer.Sense)
	removeExtensionsToSequence(s, k, kmer.Antisense)
	s.Remove(k)
}
