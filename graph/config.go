// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package graph implements the vertex store (C3), its graph-cleaning edits
// (C5), and the contig walker (C6) of the de Bruijn graph engine.
package graph

import "github.com/grailbio/abyssgo/kmer"

// DefaultMaxBranches is the maximum number of parallel branches a bubble
// may have (spec.md "bubbles"); the original source hardcodes 3.
const DefaultMaxBranches = 3

// Config is the immutable configuration threaded through every component,
// replacing the C++ source's process-wide `namespace opt` globals (Design
// Note: "Implicit global mutable state"). It is built once at startup; the
// colour-space flag inside Alphabet is latched from the first input record
// and never changes afterward.
type Config struct {
	K int

	Alphabet kmer.Alphabet

	// Erode is the minimum total multiplicity of a kept end-vertex (0
	// disables erosion).
	Erode int
	// ErodeStrand is the minimum per-strand multiplicity of a kept
	// end-vertex.
	ErodeStrand int
	// TrimLen is the upper bound of iterative tip-trim length.
	TrimLen int
	// Coverage is the minimum contig coverage/length ratio.
	Coverage float64
	// Bubbles, if false, disables bubble popping entirely.
	Bubbles bool
	// MaxBranches bounds the number of parallel paths considered when
	// popping a bubble.
	MaxBranches int
	// SnpPath is where popped bubbles are written; "" discards them.
	SnpPath string
}

func (c Config) maxBranches() int {
	if c.MaxBranches <= 0 {
		return DefaultMaxBranches
	}
	return c.MaxBranches
}

// maxBubbleLen is the length cap for a bubble branch: 2*(k+1) k-mers.
func (c Config) maxBubbleLen() int {
	return 2 * (c.K + 1)
}
