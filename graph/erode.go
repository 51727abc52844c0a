// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// Contiguity classifies a vertex by which of its two directions have any
// outgoing edge, grounded on AssemblyAlgorithms.h's SeqContiguity enum.
type Contiguity int

const (
	// Island has no edges in either direction.
	Island Contiguity = iota
	// Endpoint has edges in exactly one direction.
	Endpoint
	// Contiguous has edges in both directions.
	Contiguous
)

// checkContiguity classifies a live vertex and, for Endpoint, reports which
// direction is open (has the edge).
func checkContiguity(sense, antisense kmer.ExtSet) (c Contiguity, open kmer.Direction) {
	child := sense.Any()
	parent := antisense.Any()
	switch {
	case !child && !parent:
		return Island, 0
	case !child:
		return Endpoint, kmer.Antisense
	case !parent:
		return Endpoint, kmer.Sense
	default:
		return Contiguous, 0
	}
}

// erodeOne applies one erosion decision to k: if k is an Endpoint or Island
// whose overall or per-strand multiplicity falls below the configured
// thresholds, it is unlinked and deleted. It returns whether k was removed.
// Grounded on AssemblyAlgorithms::erode.
func erodeOne(s *Store, k kmer.Kmer) bool {
	if !s.Live(k) {
		return false
	}
	sense, antisense, _, ok := s.GetSeqData(k)
	if !ok {
		return false
	}
	c, _ := checkContiguity(sense, antisense)
	if c == Contiguous {
		return false
	}
	v, flipped, ok := s.GetVertex(k)
	if !ok {
		return false
	}
	vw := v.view(flipped)
	total := int(vw.mult[kmer.Sense]) + int(vw.mult[kmer.Antisense])
	senseMult := int(vw.mult[kmer.Sense])
	antisenseMult := int(vw.mult[kmer.Antisense])
	cfg := s.cfg
	if total < cfg.Erode || senseMult < cfg.ErodeStrand || antisenseMult < cfg.ErodeStrand {
		removeVertexAndExtensions(s, k)
		return true
	}
	return false
}

// Erode repeatedly erodes tip and island vertices falling below the
// coverage thresholds, one k-mer at a time, re-examining any neighbor whose
// edges changed as a side effect (via the attached Observer) so that an
// erosion can cascade down a tip in a single pass. Grounded on
// AssemblyAlgorithms::erodeEnds, which drives the same cascade through the
// sequence collection's observer-attach mechanism. Returns the number of
// k-mers eroded.
func Erode(s *Store, pump Pumper) int {
	numEroded := 0
	obs := ObserverFunc(func(k kmer.Kmer, _ *VertexData) {
		if erodeOne(s, k) {
			numEroded++
		}
	})
	s.Attach(obs)
	defer s.Detach()

	// Snapshot the live k-mer set before iterating: erosion mutates the
	// store (deletions, edge clears) as it goes, and ForEach's traversal
	// over the live map must not race with ongoing mutation.
	var keys []kmer.Kmer
	s.ForEach(func(k kmer.Kmer, v *VertexData) {
		if !v.Deleted() {
			keys = append(keys, k)
		}
	})
	for _, k := range keys {
		if erodeOne(s, k) {
			numEroded++
		}
		pump.Pump()
	}
	return numEroded
}
