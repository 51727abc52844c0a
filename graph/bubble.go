// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"bytes"
	"fmt"
	"io"

	"github.com/grailbio/abyssgo/kmer"
)

// groupStatus is a BranchGroup's round-robin extension status, grounded on
// Assembly/BranchGroup.h's BranchGroupStatus enum.
type groupStatus int

const (
	groupActive groupStatus = iota
	groupNoExt
	groupJoined
	groupTooLong
	groupLoop
	groupTooManyBranches
)

// branchGroup extends several BranchRecords in lockstep from a single
// ambiguous vertex, looking for a point where they all converge back onto
// the same k-mer (a "bubble"), grounded on Assembly/BranchGroup.h and the
// popBubbles/initiateBranchGroup/processBranchGroupExtension loop in
// AssemblyAlgorithms.cpp.
type branchGroup struct {
	dir      kmer.Direction
	maxLen   int
	maxNum   int
	branches []*BranchRecord
	status   groupStatus
	noExt    bool
}

func newBranchGroup(dir kmer.Direction, maxLen, maxNum int) *branchGroup {
	return &branchGroup{dir: dir, maxLen: maxLen, maxNum: maxNum, status: groupActive}
}

// initiate seeds the group with one branch per candidate extension of
// origin in dir, grounded on initiateBranchGroup. Each branch's first
// candidate is left pending rather than pre-accepted, so the group's first
// step call validates it through the same acceptPending checks as every
// later one.
func initiateBranchGroup(s *Store, origin kmer.Kmer, dir kmer.Direction, ext kmer.ExtSet, maxLen, maxNum int) *branchGroup {
	g := newBranchGroup(dir, maxLen, maxNum)
	for _, base := range ext.Bases() {
		k := origin
		k.Shift(dir, base, s.cfg.Alphabet)
		g.branches = append(g.branches, NewBranchRecord(dir, maxLen, k))
	}
	return g
}

// step extends every active branch by one k-mer using the same
// BranchRecord.acceptPending validation trim and assemble use (mid-walk
// palindromes, loop and length checks), forking a branch into several
// children when its own forward extension is ambiguous instead of
// terminating it, then recomputes the group status. Grounded on
// processBranchGroupExtension + updateStatus.
//
// Each branch's back-edge ambiguity check is skipped exactly when another
// active branch in the group is pending the identical k-mer this round:
// that is the bubble rejoining itself, which by construction always has as
// many back-edges as branches converging on it, and updateStatus's join
// detection (every branch sharing the same Last) depends on both branches
// actually being allowed to accept that shared vertex.
func (g *branchGroup) step(s *Store) {
	n := len(g.branches)
	counts := make(map[kmer.Kmer]int, n)
	for _, br := range g.branches {
		if br.Active() {
			counts[br.pending]++
		}
	}
	var forked []*BranchRecord
	for i := 0; i < n; i++ {
		br := g.branches[i]
		if !br.Active() {
			continue
		}
		fwd, ok := br.acceptPending(s, counts[br.pending] <= 1)
		if !ok {
			if br.state != Loop && br.state != TooLong {
				g.noExt = true
			}
			continue
		}
		for j, base := range fwd.Bases() {
			next := br.Last()
			next.Shift(g.dir, base, s.cfg.Alphabet)
			if j == 0 {
				br.pending = next
				continue
			}
			if len(g.branches)+len(forked) >= g.maxNum {
				g.status = groupTooManyBranches
				continue
			}
			child := br.clone()
			child.pending = next
			forked = append(forked, child)
		}
	}
	g.branches = append(g.branches, forked...)
	g.updateStatus()
}

// updateStatus recomputes the group's terminal status from its branches'
// current state, grounded on the state-aggregation rules implied by
// BranchGroup::updateStatus/isExtendable/isAmbiguous.
func (g *branchGroup) updateStatus() {
	if g.status == groupTooManyBranches {
		return
	}
	if len(g.branches) > g.maxNum {
		g.status = groupTooManyBranches
		return
	}
	for _, br := range g.branches {
		if br.state == Loop {
			g.status = groupLoop
			return
		}
	}
	maxLen := g.branches[0].Len()
	for _, br := range g.branches {
		if br.Len() > maxLen {
			maxLen = br.Len()
		}
	}
	if maxLen > g.maxLen {
		g.status = groupTooLong
		return
	}
	if g.noExt {
		g.status = groupNoExt
		return
	}
	// A join occurs once every branch has reached the same length and
	// they all share the same last k-mer.
	for _, br := range g.branches {
		if br.Len() != maxLen {
			return
		}
	}
	last := g.branches[0].Last()
	for _, br := range g.branches[1:] {
		if !br.Last().Equal(last) {
			return
		}
	}
	g.status = groupJoined
}

// branchToKeep selects the branch to retain when collapsing a joined
// bubble: the one with the highest total multiplicity, breaking ties by
// lexicographically smaller first k-mer for determinism, grounded on
// BranchGroup::sortByCoverage/getBranchToKeep (implementation not in the
// kept excerpt; this is the documented "keep the best-supported allele"
// policy spec.md leaves as an Open Question).
func (g *branchGroup) branchToKeep() int {
	best := 0
	for i := 1; i < len(g.branches); i++ {
		a, b := g.branches[i], g.branches[best]
		if a.Multiplicity() > b.Multiplicity() ||
			(a.Multiplicity() == b.Multiplicity() && a.First().Compare(b.First()) < 0) {
			best = i
		}
	}
	return best
}

// writeBubble appends the bubble's alleles to w in FASTA, the selected
// (kept) branch first as allele 'A', matching writeBubble's layout.
func writeBubble(w io.Writer, g *branchGroup, id int, a kmer.Alphabet) error {
	if w == nil {
		return nil
	}
	keep := g.branchToKeep()
	allele := byte('A')
	emit := func(br *BranchRecord) error {
		seq := decodeBranch(br, a)
		_, err := fmt.Fprintf(w, ">%d%c %d %d\n%s\n", id, allele, len(seq), br.Multiplicity(), seq)
		allele++
		return err
	}
	if err := emit(g.branches[keep]); err != nil {
		return err
	}
	for i, br := range g.branches {
		if i == keep {
			continue
		}
		if err := emit(br); err != nil {
			return err
		}
	}
	return nil
}

// decodeBranch renders a branch's k-mer path as a single contiguous
// sequence: the first k-mer in full, then one trailing (or leading, for
// Antisense branches) base per subsequent k-mer.
func decodeBranch(br *BranchRecord, a kmer.Alphabet) string {
	if br.Len() == 0 {
		return ""
	}
	if br.dir == kmer.Sense {
		var buf bytes.Buffer
		buf.WriteString(br.kmers[0].Decode(a))
		for _, k := range br.kmers[1:] {
			buf.WriteByte(k.LastBaseChar(kmer.Sense, a))
		}
		return buf.String()
	}
	var tail []byte
	for _, k := range br.kmers[1:] {
		tail = append(tail, k.LastBaseChar(kmer.Antisense, a))
	}
	var buf bytes.Buffer
	for i := len(tail) - 1; i >= 0; i-- {
		buf.WriteByte(tail[i])
	}
	buf.WriteString(br.kmers[0].Decode(a))
	return buf.String()
}

// collapse removes every branch but the kept one, unlinking and deleting
// each k-mer along the discarded branches. Grounded on
// collapseJoinedBranches; the shared join k-mer (each branch's Last) is
// never removed since it belongs to the surviving path on the graph.
func (g *branchGroup) collapse(s *Store) {
	keep := g.branchToKeep()
	for i, br := range g.branches {
		if i == keep {
			continue
		}
		for _, k := range br.kmers[:br.Len()-1] {
			removeVertexAndExtensions(s, k)
		}
	}
}

// PopBubbles finds every simple bubble (a short divergence that rejoins
// the graph) and collapses it to its best-supported allele, optionally
// recording every allele to snpWriter. Grounded on
// AssemblyAlgorithms::popBubbles. Returns the number of bubbles popped.
func PopBubbles(s *Store, snpWriter io.Writer, pump Pumper) int {
	cfg := s.cfg
	maxLen := cfg.maxBubbleLen()
	maxNum := cfg.maxBranches()
	popped := 0
	snpID := 0

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
		for _, dir := range []kmer.Direction{kmer.Sense, kmer.Antisense} {
			ext := sense
			if dir == kmer.Antisense {
				ext = antisense
			}
			if !ext.Ambiguous() {
				continue
			}
			g := initiateBranchGroup(s, k, dir, ext, maxLen, maxNum)
			if len(g.branches) > maxNum {
				continue
			}
			for g.status == groupActive {
				g.step(s)
			}
			if g.status == groupJoined {
				snpID++
				if err := writeBubble(snpWriter, g, snpID, cfg.Alphabet); err != nil {
					snpID--
				}
				g.collapse(s)
				popped++
			}
			pump.Pump()
		}
	}
	return popped
}
