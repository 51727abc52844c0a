// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package shard

// Phase identifies one step of the control-loop state machine (C8),
// broadcast by the controller (rank 0) before every barrier.
type Phase uint8

// Phases, in the fixed order spec.md §4.7 specifies.
const (
	PhaseLoading Phase = iota
	PhaseFinalize
	PhaseGenAdj
	PhaseErode
	PhaseTrim
	PhasePopBubble
	PhaseSplit
	PhaseAssemble
	PhaseDone
)

// Barrier advances every worker from one phase to the next: the controller
// (rank 0) broadcasts phase, every worker (the controller included) runs
// localWork, then sends a Checkpoint; the controller blocks until all N
// ranks (itself plus N-1 others) have checkpointed before returning.
// Grounded on spec.md §4.7's "controller broadcasts... waits for N-1
// checkpoint replies before advancing".
func Barrier(w *Worker, phase Phase, localWork func()) {
	if w.Rank() == 0 {
		w.Broadcast(uint8(phase))
	} else {
		w.AwaitControl(phase)
	}
	if localWork != nil {
		localWork()
	}
	w.Checkpoint()
	if w.Rank() == 0 {
		w.AwaitCheckpoints()
	}
}
