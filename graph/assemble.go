// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// Contig is one assembled linear path through the graph.
type Contig struct {
	ID           int
	Sequence     string
	KmerCount    int // number of k-mer comprising the contig (branch length)
	Multiplicity int // sum of per-k-mer multiplicities
	LowCoverage  bool
}

// isCanonicalBranch reports whether br is in its canonical orientation: its
// first k-mer sorts at or before the reverse complement of its last k-mer.
// A linear contig has two endpoints and would otherwise be discovered (and
// emitted) once from each end walking in opposite directions; comparing
// first-against-RC(last) keeps exactly one of the two, per spec.md §4.5
// ("the canonical predicate compares first and last k-mers").
func isCanonicalBranch(br *BranchRecord, a kmer.Alphabet) bool {
	if a.ColourSpace {
		return true
	}
	return br.First().Compare(br.Last().ReverseComplement(a)) <= 0
}

// Assemble walks every remaining linear path to completion and emits one
// Contig per path (after deduplicating the two directions a linear
// contig's endpoints would otherwise each produce). A contig whose
// coverage (multiplicity / length) falls below cfg.Coverage has its
// k-mers removed from the store instead of being kept; LowCoverage
// records this. Grounded on AssemblyAlgorithms::assemble.
func Assemble(s *Store, pump Pumper) []Contig {
	cfg := s.cfg
	var contigs []Contig
	id := 0

	var keys []kmer.Kmer
	s.ForEach(func(k kmer.Kmer, v *VertexData) {
		if !v.Deleted() {
			keys = append(keys, k)
		}
	})

	for _, k := range keys {
		if !s.Live(k) {
			continue
		}
		sense, antisense, _, ok := s.GetSeqData(k)
		if !ok {
			continue
		}
		c, dir := checkContiguity(sense, antisense)
		if c == Contiguous {
			pump.Pump()
			continue
		}

		var br *BranchRecord
		if c == Island {
			br = NewBranchRecord(kmer.Sense, 0, k)
			br.Step(s) // accepts k, then observes NoExt and stops
		} else {
			br = NewBranchRecord(dir, 0, k)
			br.Run(s)
		}

		if c != Island && !isCanonicalBranch(br, cfg.Alphabet) {
			pump.Pump()
			continue
		}

		contig := Contig{
			ID:           id,
			Sequence:     decodeBranch(br, cfg.Alphabet),
			KmerCount:    br.Len(),
			Multiplicity: br.Multiplicity(),
		}
		id++

		if cfg.Coverage > 0 {
			coverage := float64(br.Multiplicity()) / float64(br.Len())
			if coverage < cfg.Coverage {
				contig.LowCoverage = true
				for _, bk := range br.Kmers() {
					s.Remove(bk)
				}
			}
		}
		if !contig.LowCoverage {
			contigs = append(contigs, contig)
		}
		pump.Pump()
	}
	return contigs
}
