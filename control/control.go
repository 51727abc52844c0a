// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package control implements the assembly control loop (C8): the fixed
// phase sequence LOADING -> FINALIZE -> GEN_ADJ -> [ERODE] -> TRIM ->
// POP_BUBBLE -> SPLIT -> ASSEMBLE -> DONE, synchronized across workers by
// a phase barrier. Grounded on spec.md §4.7.
package control

import (
	"io"

	"github.com/grailbio/abyssgo/graph"
	"github.com/grailbio/abyssgo/histogram"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/abyssgo/shard"
	"github.com/grailbio/base/log"
)

// Result summarizes one run's counters, reported by the controller after
// DONE.
type Result struct {
	Eroded      int
	Trimmed     int
	Popped      int
	Split       int
	Contigs     []graph.Contig
	MinCoverage int
}

// Options configures a Run beyond what graph.Config already carries.
type Options struct {
	// SnpWriter receives popped-bubble alleles in FASTA, or nil to
	// discard them.
	SnpWriter io.Writer
	// HistogramWriter receives the coverage histogram as two-column
	// text, or nil to skip writing it.
	HistogramWriter io.Writer
}

// Run drives store through every phase of the control loop using w for
// cross-shard routing and synchronization, and returns the final counters.
// Every rank (the controller, rank 0, included) calls Run with its own
// local store; HasAdjacency on store, if already true (a persisted dump
// was loaded), causes GEN_ADJ to be skipped.
func Run(store *graph.Store, w *shard.Worker, opts Options) Result {
	var res Result

	shard.Barrier(w, shard.PhaseFinalize, func() {
		store.Finalize()
	})

	if !store.HasAdjacency {
		shard.Barrier(w, shard.PhaseGenAdj, func() {
			graph.GenerateAdjacency(store, w)
			store.HasAdjacency = true
		})
	}

	// The coverage histogram and the thresholds derived from it cover this
	// rank's local store only; histograms are not merged across ranks.
	h := histogram.New()
	store.ForEach(func(_ kmer.Kmer, v *graph.VertexData) {
		if !v.Deleted() {
			h.Insert(v.Multiplicity())
		}
	})
	minCov := h.FirstLocalMinimum()
	if minCov < 2 {
		minCov = 2
	}
	res.MinCoverage = minCov
	cfg := store.Config()
	erode, coverage := cfg.Erode, cfg.Coverage
	if erode < 0 {
		erode = minCov
	}
	if coverage < 0 {
		coverage = float64(minCov)
	}
	store.SetThresholds(erode, coverage)
	cfg = store.Config()
	if opts.HistogramWriter != nil && w.Rank() == 0 {
		h.WriteTo(opts.HistogramWriter)
	}

	if cfg.Erode > 0 {
		shard.Barrier(w, shard.PhaseErode, func() {
			res.Eroded = graph.Erode(store, w)
		})
	}

	shard.Barrier(w, shard.PhaseTrim, func() {
		res.Trimmed = graph.Trim(store, cfg.TrimLen, w)
	})

	if cfg.Bubbles {
		shard.Barrier(w, shard.PhasePopBubble, func() {
			res.Popped = graph.PopBubbles(store, opts.SnpWriter, w)
		})
	}

	shard.Barrier(w, shard.PhaseSplit, func() {
		graph.MarkAmbiguous(store, w)
		res.Split = graph.SplitAmbiguous(store, w)
	})

	// ASSEMBLE: the controller assembles first, then broadcasts
	// PhaseAssemble to every other rank at once and waits for all of their
	// checkpoints. The other ranks assemble concurrently over their own
	// local stores; they are not released one at a time.
	if w.Rank() == 0 {
		res.Contigs = graph.Assemble(store, w)
		w.Broadcast(uint8(shard.PhaseAssemble))
		w.Checkpoint()
		w.AwaitCheckpoints()
	} else {
		w.AwaitControl(shard.PhaseAssemble)
		res.Contigs = graph.Assemble(store, w)
		w.Checkpoint()
	}

	shard.Barrier(w, shard.PhaseDone, nil)
	log.Printf("control: done: eroded=%d trimmed=%d popped=%d split=%d contigs=%d",
		res.Eroded, res.Trimmed, res.Popped, res.Split, len(res.Contigs))
	return res
}
