// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/base/log"
)

// Pumper is implemented by the message-passing substrate (package shard);
// in single-process mode it is a no-op. Every long-running edit loop calls
// Pump once per iteration, per spec.md §4.3/§5.
type Pumper interface {
	Pump()
}

type noopPumper struct{}

func (noopPumper) Pump() {}

// NoopPumper is the Pumper used when running as a single, unsharded worker.
var NoopPumper Pumper = noopPumper{}

// GenerateAdjacency computes, for every live vertex u and each direction d,
// the reciprocal edge to every live neighbor obtainable by shifting u by one
// base in d. After this completes, every reciprocal-edge invariant from
// spec.md §3 holds. Grounded on AssemblyAlgorithms::generateAdjacency (not
// in the kept original_source excerpt, but its effect is fully specified by
// spec.md §4.4 "Adjacency generation").
func GenerateAdjacency(s *Store, pump Pumper) {
	a := s.cfg.Alphabet
	n := 0
	s.ForEach(func(u kmer.Kmer, v *VertexData) {
		if v.Deleted() {
			return
		}
		for _, dir := range []kmer.Direction{kmer.Sense, kmer.Antisense} {
			for base := byte(0); base < 4; base++ {
				neighbor := u
				dropped := neighbor.Shift(dir, base, a)
				if !s.Exists(neighbor) {
					continue
				}
				// The reciprocal edge on neighbor, in direction ¬dir, is the
				// base that was displaced off u.
				s.SetBaseExtension(neighbor, dir.Opposite(), dropped)
			}
		}
		n++
		if n%1000000 == 0 {
			log.Printf("generateAdjacency: %d", n)
		}
		pump.Pump()
	})
}
