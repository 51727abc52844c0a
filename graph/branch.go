// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import "github.com/grailbio/abyssgo/kmer"

// BranchState is the terminal (or active) state of a BranchRecord walk,
// grounded on the original's BranchState enum (BS_ACTIVE, BS_NOEXT, ...).
type BranchState int

const (
	// Active means the walk has not yet terminated.
	Active BranchState = iota
	// NoExt means the branch ran off the end of the graph (a true dead end).
	NoExt
	// AmbiSame means the branch's own forward extension became ambiguous
	// (or a palindrome was reached mid-walk).
	AmbiSame
	// AmbiOpp means the next candidate k-mer has an ambiguous back-edge
	// (a reverse-direction ambiguity): the walk stops before adding it.
	AmbiOpp
	// Loop means the walk would re-enter a k-mer already in the branch.
	Loop
	// TooLong means the branch exceeded its configured length cap.
	TooLong
)

func (s BranchState) String() string {
	switch s {
	case Active:
		return "ACTIVE"
	case NoExt:
		return "NOEXT"
	case AmbiSame:
		return "AMBI_SAME"
	case AmbiOpp:
		return "AMBI_OPP"
	case Loop:
		return "LOOP"
	case TooLong:
		return "TOO_LONG"
	}
	return "UNKNOWN"
}

// BranchRecord is an ordered sequence of k-mers produced by unambiguous
// extension in a single direction (C5), grounded on Assembly/BranchGroup.h
// and the walk loop in AssemblyAlgorithms::trimSequences /
// ::processLinearExtensionForBranch.
type BranchRecord struct {
	dir     kmer.Direction
	maxLen  int // 0 means uncapped
	state   BranchState
	kmers   []kmer.Kmer
	seen    map[kmer.Kmer]struct{}
	pending kmer.Kmer
	mult    int
}

// NewBranchRecord starts a branch walking in dir from origin, capped at
// maxLen k-mers (0 = uncapped). origin is the first candidate considered by
// Step; it is not part of the branch until Step accepts it.
func NewBranchRecord(dir kmer.Direction, maxLen int, origin kmer.Kmer) *BranchRecord {
	return &BranchRecord{
		dir:     dir,
		maxLen:  maxLen,
		state:   Active,
		seen:    make(map[kmer.Kmer]struct{}),
		pending: origin,
	}
}

// Direction returns the branch's walking direction.
func (br *BranchRecord) Direction() kmer.Direction { return br.dir }

// State returns the current (possibly still Active) terminal state.
func (br *BranchRecord) State() BranchState { return br.state }

// Active reports whether the branch has not yet terminated.
func (br *BranchRecord) Active() bool { return br.state == Active }

// Len returns the number of k-mers accepted into the branch so far.
func (br *BranchRecord) Len() int { return len(br.kmers) }

// Kmers returns the accepted k-mer sequence, in walk order.
func (br *BranchRecord) Kmers() []kmer.Kmer { return br.kmers }

// First returns the first accepted k-mer.
func (br *BranchRecord) First() kmer.Kmer { return br.kmers[0] }

// Last returns the most recently accepted k-mer.
func (br *BranchRecord) Last() kmer.Kmer { return br.kmers[len(br.kmers)-1] }

// Pending returns the next candidate k-mer Step will consider.
func (br *BranchRecord) Pending() kmer.Kmer { return br.pending }

// Exists reports whether k has already been accepted into the branch.
func (br *BranchRecord) Exists(k kmer.Kmer) bool {
	_, ok := br.seen[k]
	return ok
}

// Multiplicity returns the sum of per-k-mer total multiplicities over the
// accepted branch members, used for coverage and for picking which bubble
// branch to keep.
func (br *BranchRecord) Multiplicity() int { return br.mult }

// clone duplicates br (its own k-mer list, not sharing backing arrays),
// used when a bubble branch forks into several children at once.
func (br *BranchRecord) clone() *BranchRecord {
	out := &BranchRecord{
		dir:     br.dir,
		maxLen:  br.maxLen,
		state:   br.state,
		kmers:   append([]kmer.Kmer(nil), br.kmers...),
		seen:    make(map[kmer.Kmer]struct{}, len(br.seen)),
		pending: br.pending,
		mult:    br.mult,
	}
	for k := range br.seen {
		out.seen[k] = struct{}{}
	}
	return out
}

// acceptPending validates br.pending against the store and, if it survives
// every check shared by every walker context (not already walked, not a
// mid-walk palindrome, not over length), appends it to the branch and
// returns its forward extension set. It terminates the branch (setting
// state) and reports false on any failure, including running off the
// graph. Step and branchGroup.step both build on this so a bubble branch
// stops on exactly the same structural dead ends trim and assemble do.
//
// checkBack gates the candidate's own back-edge ambiguity check. A linear
// walker (Step) always enables it: silently merging two incoming paths
// into one contig is never correct. A bubble branch disables it exactly
// when another active branch in the same group is proposing the identical
// candidate this round — that back-edge ambiguity is the bubble's own
// convergence, not evidence of some third, unrelated path, and rejecting
// it there would make PopBubbles unable to ever join a simple bubble.
func (br *BranchRecord) acceptPending(s *Store, checkBack bool) (kmer.ExtSet, bool) {
	if !br.Active() {
		return 0, false
	}
	if br.maxLen > 0 && br.Len() > br.maxLen {
		br.state = TooLong
		return 0, false
	}
	cur := br.pending
	if br.Exists(cur) {
		br.state = Loop
		return 0, false
	}
	sense, antisense, mult, ok := s.GetSeqData(cur)
	if !ok {
		// The vertex vanished mid-walk; treat as a dead end rather than
		// panicking, since the walker must always terminate (spec.md §8
		// Property 5).
		br.state = NoExt
		return 0, false
	}
	fwd, back := sense, antisense
	if br.dir == kmer.Antisense {
		fwd, back = antisense, sense
	}
	if checkBack && back.Ambiguous() {
		br.state = AmbiOpp
		return 0, false
	}
	if br.Len() > 0 && cur.IsPalindrome(s.cfg.Alphabet) {
		br.state = AmbiSame
		return 0, false
	}

	br.kmers = append(br.kmers, cur)
	br.seen[cur] = struct{}{}
	br.mult += mult

	if br.maxLen > 0 && br.Len() > br.maxLen {
		br.state = TooLong
		return 0, false
	}
	if !fwd.Any() {
		br.state = NoExt
		return 0, false
	}
	return fwd, true
}

// Step advances the branch by evaluating its pending candidate against the
// store, accepting it (and computing the next candidate) or terminating.
// It returns whether the branch is still Active afterward. Grounded on
// AssemblyAlgorithms::processLinearExtensionForBranch, generalized so trim,
// bubble-popping, and contig assembly share one walker (spec.md §4.4's
// "shared with C6" walker invariants).
func (br *BranchRecord) Step(s *Store) bool {
	fwd, ok := br.acceptPending(s, true)
	if !ok {
		return false
	}
	if fwd.Ambiguous() {
		br.state = AmbiSame
		return false
	}
	base, _ := fwd.SingleBase()
	next := br.Last()
	next.Shift(br.dir, base, s.cfg.Alphabet)
	br.pending = next
	return true
}

// Run drives Step to completion, returning the terminal state. Property 5
// (walker termination) holds because each Step either terminates or
// strictly grows br.kmers, and the store has finitely many vertices, so
// Loop detection (or the map growing past the store's size) bounds the
// number of iterations.
func (br *BranchRecord) Run(s *Store) BranchState {
	for br.Step(s) {
	}
	return br.state
}
