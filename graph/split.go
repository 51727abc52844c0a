// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// MarkAmbiguous flags, for later removal by SplitAmbiguous, every direction
// of every live vertex whose extension set is ambiguous (more than one
// outgoing edge) or that is a half-palindrome in that direction. A full
// palindrome is marked in both directions. Grounded on
// AssemblyAlgorithms::markAmbiguous. Returns the number of direction-marks
// made.
func MarkAmbiguous(s *Store, pump Pumper) int {
	count := 0
	a := s.cfg.Alphabet
	s.ForEach(func(k kmer.Kmer, v *VertexData) {
		if v.Deleted() {
			return
		}
		if k.IsPalindrome(a) {
			s.Mark(k, kmer.Sense, kmer.Antisense)
			count += 2
			pump.Pump()
			return
		}
		for _, dir := range []kmer.Direction{kmer.Sense, kmer.Antisense} {
			if v.Extension(dir).Ambiguous() || k.IsHalfPalindrome(dir, a) {
				s.Mark(k, dir)
				count++
			}
		}
		pump.Pump()
	})
	return count
}

// SplitAmbiguous severs every direction marked by MarkAmbiguous: the
// vertex's own edges in that direction are cleared, and the corresponding
// reciprocal edges on its former neighbors are cleared too. Grounded on
// AssemblyAlgorithms::splitAmbiguous. Returns the number of directions
// split.
func SplitAmbiguous(s *Store, pump Pumper) int {
	count := 0
	var keys []kmer.Kmer
	s.ForEach(func(k kmer.Kmer, v *VertexData) {
		if !v.Deleted() {
			keys = append(keys, k)
		}
	})
	for _, k := range keys {
		for _, dir := range []kmer.Direction{kmer.Sense, kmer.Antisense} {
			if !s.Marked(k, dir) {
				continue
			}
			removeExtensionsToSequence(s, k, dir)
			s.RemoveExtension(k, dir, kmer.NewExtSet(0, 1, 2, 3))
			count++
		}
		pump.Pump()
	}
	return count
}
