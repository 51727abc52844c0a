// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// Store is a hash set keyed by canonical k-mer (C3), mapping each to its
// VertexData. It is owned exclusively by one goroutine at a time (spec.md
// §5); it is not safe for concurrent mutation.
type Store struct {
	cfg      Config
	m        map[kmer.Kmer]*VertexData
	observer Observer
	sealed   bool

	// HasAdjacency is set by Load (or by the caller, after restoring a
	// persisted dump) to indicate that GEN_ADJ may be skipped.
	HasAdjacency bool
}

// NewStore creates an empty store under the given configuration.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg, m: make(map[kmer.Kmer]*VertexData)}
}

// Config returns the store's configuration.
func (s *Store) Config() Config { return s.cfg }

// SetThresholds overrides the erosion and coverage cutoffs, used by the
// control loop once a negative (auto) value has been resolved against the
// coverage histogram's first local minimum (spec.md §4.6).
func (s *Store) SetThresholds(erode int, coverage float64) {
	s.cfg.Erode = erode
	s.cfg.Coverage = coverage
}

// canonicalize returns the canonical form of k and whether k itself is the
// flipped (reverse-complement) representative.
func (s *Store) canonicalize(k kmer.Kmer) (kmer.Kmer, bool) {
	ck := k.Canonical(s.cfg.Alphabet)
	return ck, !k.Equal(ck)
}

// Add inserts k (in whichever orientation it is given) into the store. If
// the canonical form is already present, its appropriate strand
// multiplicity is incremented (saturating); otherwise a new vertex is
// created with multiplicity 1 on the strand k was observed on.
//
// Add returns an error if called after Finalize, matching the "add is forbidden"
// post-finalize contract.
func (s *Store) Add(k kmer.Kmer) error {
	if s.sealed {
		return errors.New("graph: Add called after Finalize")
	}
	ck, flipped := s.canonicalize(k)
	dir := kmer.Sense
	if flipped {
		dir = kmer.Antisense
	}
	v, ok := s.m[ck]
	if !ok {
		v = &VertexData{}
		s.m[ck] = v
	}
	addSaturating(&v.mult[dir], 1)
	return nil
}

// Remove logically deletes k (and, implicitly, its reverse complement,
// since both map to the same vertex); physical erasure is deferred to
// Cleanup.
func (s *Store) Remove(k kmer.Kmer) {
	ck, _ := s.canonicalize(k)
	if v, ok := s.m[ck]; ok {
		v.setDeleted()
	}
}

// Exists reports whether the (live or deleted) vertex for k is present.
func (s *Store) Exists(k kmer.Kmer) bool {
	ck, _ := s.canonicalize(k)
	_, ok := s.m[ck]
	return ok
}

// Live reports whether k names a present, non-deleted vertex.
func (s *Store) Live(k kmer.Kmer) bool {
	ck, _ := s.canonicalize(k)
	v, ok := s.m[ck]
	return ok && !v.Deleted()
}

// SetBaseExtension sets one outgoing edge on k in direction dir to base,
// flipping direction and complementing the base internally if k is stored
// under its reverse complement. It returns whether the vertex exists. The
// operation is idempotent.
func (s *Store) SetBaseExtension(k kmer.Kmer, dir kmer.Direction, base byte) bool {
	ck, flipped := s.canonicalize(k)
	v, ok := s.m[ck]
	if !ok {
		return false
	}
	v.ext[frameDir(dir, flipped)].Set(frameBase(base, flipped, s.cfg.Alphabet))
	s.notify(ck, v)
	return true
}

// RemoveExtension clears the bases in ext from k's adjacency in direction
// dir, notifying the observer (if any) afterward.
func (s *Store) RemoveExtension(k kmer.Kmer, dir kmer.Direction, ext kmer.ExtSet) {
	ck, flipped := s.canonicalize(k)
	v, ok := s.m[ck]
	if !ok {
		return
	}
	targetDir := frameDir(dir, flipped)
	targetExt := ext
	if flipped {
		targetExt = ext.Complement()
	}
	v.ext[targetDir] &^= targetExt
	s.notify(ck, v)
}

// GetSeqData looks up k and returns its edge sets (oriented to k's own
// frame) and total multiplicity. It returns ok=false if the vertex is
// absent.
func (s *Store) GetSeqData(k kmer.Kmer) (sense, antisense kmer.ExtSet, multiplicity int, ok bool) {
	ck, flipped := s.canonicalize(k)
	v, present := s.m[ck]
	if !present {
		return 0, 0, 0, false
	}
	vw := v.view(flipped)
	return vw.ext[kmer.Sense], vw.ext[kmer.Antisense], int(vw.mult[kmer.Sense]) + int(vw.mult[kmer.Antisense]), true
}

// GetVertex returns the stored VertexData pointer and canonicalization
// frame for k, or (nil, false, false) if absent. Used internally by C5/C6
// which need direct access to avoid repeated canonicalization.
func (s *Store) GetVertex(k kmer.Kmer) (*VertexData, bool, bool) {
	ck, flipped := s.canonicalize(k)
	v, ok := s.m[ck]
	return v, flipped, ok
}

// Mark flags dirs (defaulting to both Sense and Antisense if none given) on
// k for a later pass (e.g. splitAmbiguous).
func (s *Store) Mark(k kmer.Kmer, dirs ...kmer.Direction) {
	ck, flipped := s.canonicalize(k)
	v, ok := s.m[ck]
	if !ok {
		return
	}
	if len(dirs) == 0 {
		dirs = []kmer.Direction{kmer.Sense, kmer.Antisense}
	}
	for _, d := range dirs {
		v.setMarked(frameDir(d, flipped))
	}
}

// Marked reports whether k is marked in dir.
func (s *Store) Marked(k kmer.Kmer, dir kmer.Direction) bool {
	ck, flipped := s.canonicalize(k)
	v, ok := s.m[ck]
	if !ok {
		return false
	}
	return v.Marked(frameDir(dir, flipped))
}

// WipeFlag clears flag (flagMarkedSense or flagMarkedAntisense) across
// every vertex, for bookkeeping between multi-pass edits.
func (s *Store) WipeFlag(flag uint8) {
	for _, v := range s.m {
		v.wipeFlag(flag)
	}
}

// Cleanup physically erases every deleted vertex and returns the count
// removed.
func (s *Store) Cleanup() int {
	n := 0
	for k, v := range s.m {
		if v.Deleted() {
			delete(s.m, k)
			n++
		}
	}
	return n
}

// Finalize seals the store; further Add calls return an error.
func (s *Store) Finalize() {
	s.sealed = true
}

// Finalized reports whether Finalize has been called.
func (s *Store) Finalized() bool { return s.sealed }

// Len returns the number of vertices currently stored (live and deleted).
func (s *Store) Len() int { return len(s.m) }

// Attach registers obs to receive OnVertexChanged callbacks. Only one
// observer may be attached at a time (the erosion pass is the sole user).
func (s *Store) Attach(obs Observer) {
	if s.observer != nil {
		log.Panic(errors.New("graph: an observer is already attached"))
	}
	s.observer = obs
}

// Detach removes the currently attached observer.
func (s *Store) Detach() { s.observer = nil }

func (s *Store) notify(k kmer.Kmer, v *VertexData) {
	if s.observer != nil {
		s.observer.OnVertexChanged(k, v)
	}
}

// ForEach calls f for every vertex (including deleted ones) in unspecified
// order, matching the "unordered" contract of spec.md's vertex store. f
// must not insert into the store; Remove/RemoveExtension/mark operations
// are safe to call from within it, mirroring the C++ iterator-based edit
// loops.
func (s *Store) ForEach(f func(k kmer.Kmer, v *VertexData)) {
	for k, v := range s.m {
		f(k, v)
	}
}
