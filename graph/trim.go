// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// trimOnce performs one sweep of tip trimming at the given branch length
// cap: every Island is marked unconditionally, and every Endpoint grows a
// BranchRecord capped at maxLen; if the branch terminates in any state
// other than TooLong, every k-mer in it is marked for removal. Marked
// vertices are swept (physically unlinked and deleted) at the end of the
// sweep. Grounded on AssemblyAlgorithms::trimSequences.
func trimOnce(s *Store, maxLen int, pump Pumper) int {
	var toMark []kmer.Kmer
	numBranches := 0

	var keys []kmer.Kmer
	s.ForEach(func(k kmer.Kmer, v *VertexData) {
		if !v.Deleted() {
			keys = append(keys, k)
		}
	})

	for _, k := range keys {
		sense, antisense, _, ok := s.GetSeqData(k)
		if !ok {
			continue
		}
		c, dir := checkContiguity(sense, antisense)
		switch c {
		case Contiguous:
			pump.Pump()
			continue
		case Island:
			// An island is removed unconditionally on every trim pass,
			// regardless of the current length cap.
			toMark = append(toMark, k)
			numBranches++
			pump.Pump()
			continue
		}

		br := NewBranchRecord(dir, maxLen, k)
		br.Run(s)

		if br.Len() > 0 && br.State() != TooLong {
			toMark = append(toMark, br.Kmers()...)
			numBranches++
		}
		pump.Pump()
	}

	for _, k := range toMark {
		s.Mark(k)
	}
	for _, k := range toMark {
		if s.Live(k) {
			removeVertexAndExtensions(s, k)
		}
	}
	return numBranches
}

// Trim performs the full iterative tip-trimming schedule: length caps
// 1, 2, 4, 8, ... doubling up to trimLen, then repeated passes at trimLen
// until a pass removes nothing. Grounded on the doubling schedule driving
// trimSequences in AssemblyAlgorithms.cpp's "performTrim" caller (original
// source's main assembly driver, not included verbatim in the kept
// excerpt; the doubling/then-fixed-point shape is specified by spec.md
// §4.4 "Tip trimming"). Returns the total number of branches removed.
func Trim(s *Store, trimLen int, pump Pumper) int {
	total := 0
	if trimLen <= 0 {
		return 0
	}
	for cap := 1; cap < trimLen; cap *= 2 {
		total += trimOnce(s, cap, pump)
	}
	for {
		n := trimOnce(s, trimLen, pump)
		total += n
		if n == 0 {
			break
		}
	}
	return total
}
