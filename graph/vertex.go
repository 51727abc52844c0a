// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// flag bits for VertexData.flags, grounded on the C++ source's SeqFlag enum
// (Parallel/Messages.h references SeqFlag; the original ABySS keeps
// deleted/marked-sense/marked-antisense as independent bits).
const (
	flagDeleted uint8 = 1 << iota
	flagMarkedSense
	flagMarkedAntisense
)

func markFlag(dir kmer.Direction) uint8 {
	if dir == kmer.Sense {
		return flagMarkedSense
	}
	return flagMarkedAntisense
}

// maxMultiplicity is the saturation ceiling for a strand multiplicity
// counter, matching the "small-saturating" width spec.md calls for.
const maxMultiplicity = 1<<16 - 1

// VertexData is the per-k-mer adjacency record (C2): two direction-keyed
// edge sets, deletion/marking flags, and two saturating strand
// multiplicities.
type VertexData struct {
	ext   [2]kmer.ExtSet
	mult  [2]uint16
	flags uint8
}

// Deleted reports whether the vertex has been logically removed.
func (v *VertexData) Deleted() bool { return v.flags&flagDeleted != 0 }

func (v *VertexData) setDeleted() { v.flags |= flagDeleted }

// Marked reports whether dir has been marked by a prior pass (mark/split,
// or branch-walk bookkeeping).
func (v *VertexData) Marked(dir kmer.Direction) bool {
	return v.flags&markFlag(dir) != 0
}

func (v *VertexData) setMarked(dir kmer.Direction) { v.flags |= markFlag(dir) }

func (v *VertexData) wipeFlag(flag uint8) { v.flags &^= flag }

// Multiplicity returns the total (sense+antisense) multiplicity.
func (v *VertexData) Multiplicity() int {
	return int(v.mult[kmer.Sense]) + int(v.mult[kmer.Antisense])
}

// StrandMultiplicity returns the multiplicity observed on the given strand.
func (v *VertexData) StrandMultiplicity(dir kmer.Direction) int {
	return int(v.mult[dir])
}

func addSaturating(m *uint16, n int) {
	v := int(*m) + n
	if v > maxMultiplicity {
		v = maxMultiplicity
	}
	*m = uint16(v)
}

// Extension returns the edge set in the given direction, in the vertex's
// own (canonical) frame. Callers outside this package should use
// Store.GetSeqData, which translates into the caller's frame.
func (v *VertexData) Extension(dir kmer.Direction) kmer.ExtSet { return v.ext[dir] }

// view presents a vertex's data in a caller's frame: identical if flipped
// is false (the caller's k-mer is itself the canonical/stored form),
// otherwise direction-swapped and base-complemented (the caller's k-mer is
// the reverse complement of the stored form).
type view struct {
	ext  [2]kmer.ExtSet
	mult [2]uint16
}

func (v *VertexData) view(flipped bool) view {
	if !flipped {
		return view{ext: v.ext, mult: v.mult}
	}
	return view{
		ext: [2]kmer.ExtSet{
			kmer.Sense:     v.ext[kmer.Antisense].Complement(),
			kmer.Antisense: v.ext[kmer.Sense].Complement(),
		},
		mult: [2]uint16{
			kmer.Sense:     v.mult[kmer.Antisense],
			kmer.Antisense: v.mult[kmer.Sense],
		},
	}
}

// frameDir translates a direction expressed in the caller's frame into the
// direction it corresponds to in the vertex's stored (canonical) frame.
func frameDir(dir kmer.Direction, flipped bool) kmer.Direction {
	if flipped {
		return dir.Opposite()
	}
	return dir
}

// frameBase translates a base expressed in the caller's frame into the code
// stored internally.
func frameBase(base byte, flipped bool, a kmer.Alphabet) byte {
	if flipped {
		return a.ComplementBase(base)
	}
	return base
}
