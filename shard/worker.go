// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package shard

import (
	"github.com/grailbio/abyssgo/graph"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/abyssgo/wire"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

// highWaterMark/lowWaterMark bound the number of outstanding SeqDataRequests
// a Worker may have in flight, per spec.md §5 flow control: "a few
// hundred", pumped down to the low mark before issuing more.
const (
	highWaterMark = 256
	lowWaterMark  = 64
)

// seqDataResult is what a parked GetSeqData continuation resolves to.
type seqDataResult struct {
	sense, antisense kmer.ExtSet
	multiplicity     int
	found            bool
}

// Worker wraps a local graph.Store with the shard map and message
// substrate (C4), routing every store operation to its canonical owner
// and parking read continuations keyed by (groupID, seqID) until the
// matching SeqDataResponse arrives. Grounded on spec.md §4.3.
type Worker struct {
	store     *graph.Store
	transport Transport
	size      int

	nextGroupID uint64
	pending     map[uint64]chan seqDataResult
	outstanding int

	checkpoints map[int]bool
	// controlPhase is set by dispatch when a Control broadcast arrives,
	// and cleared by AwaitControl once consumed.
	controlPhase *uint8
}

// AwaitControl blocks (pumping) a non-controller worker until the
// controller's next Control broadcast for phase arrives, then clears it.
// Only meaningful for ranks other than 0.
func (w *Worker) AwaitControl(phase Phase) {
	for w.controlPhase == nil || Phase(*w.controlPhase) != phase {
		w.Pump()
	}
	w.controlPhase = nil
}

// NewWorker constructs a Worker over store, routing through transport.
func NewWorker(store *graph.Store, transport Transport) *Worker {
	return &Worker{
		store:       store,
		transport:   transport,
		size:        transport.Size(),
		pending:     make(map[uint64]chan seqDataResult),
		checkpoints: make(map[int]bool),
	}
}

// Rank returns this worker's rank.
func (w *Worker) Rank() int { return w.transport.Rank() }

// owner returns the rank owning k's canonical form.
func (w *Worker) owner(k kmer.Kmer) int { return Owner(k.Canonical(w.store.Config().Alphabet), w.size) }

// Pump implements graph.Pumper: it drains every buffered inbound message
// and dispatches it to the matching handler, then returns. It does no flow
// control itself; GetSeqData applies the high/low-water backoff. It must
// be called at least once per iteration of every long loop (spec.md §5).
func (w *Worker) Pump() {
	for {
		msg, ok := w.transport.Recv()
		if !ok {
			return
		}
		w.dispatch(msg)
	}
}

// pumpUntilBelowLowWater drains messages until outstanding requests fall
// to the low-water mark, implementing the flow-control backoff described
// in spec.md §5.
func (w *Worker) pumpUntilBelowLowWater() {
	for w.outstanding >= lowWaterMark {
		msg, ok := w.transport.Recv()
		if !ok {
			continue
		}
		w.dispatch(msg)
	}
}

func (w *Worker) dispatch(msg Message) {
	switch msg.Type {
	case wire.Add:
		body, err := wire.UnmarshalAddBody(msg.Body)
		w.mustNoError(err)
		if err := w.store.Add(body.K); err != nil {
			log.Panic(errors.Wrap(err, "shard: Add after Finalize"))
		}
	case wire.Remove:
		body, err := wire.UnmarshalRemoveBody(msg.Body)
		w.mustNoError(err)
		w.store.Remove(body.K)
	case wire.SetBase:
		body, err := wire.UnmarshalSetBaseBody(msg.Body)
		w.mustNoError(err)
		w.store.SetBaseExtension(body.K, body.Dir, body.Base)
	case wire.RemoveExt:
		body, err := wire.UnmarshalRemoveExtBody(msg.Body)
		w.mustNoError(err)
		w.store.RemoveExtension(body.K, body.Dir, body.Ext)
	case wire.SetFlag:
		body, err := wire.UnmarshalSetFlagBody(msg.Body)
		w.mustNoError(err)
		w.store.Mark(body.K, body.Dir)
	case wire.SeqDataRequest:
		body, err := wire.UnmarshalSeqDataRequestBody(msg.Body)
		w.mustNoError(err)
		sense, antisense, mult, ok := w.store.GetSeqData(body.K)
		resp := wire.SeqDataResponseBody{
			K: body.K, GroupID: body.GroupID, SeqID: body.SeqID,
			Sense: sense, Antisense: antisense, Multiplicity: uint32(mult), Found: ok,
		}
		w.mustNoError(w.transport.Send(msg.From, wire.SeqDataResponse, resp.Marshal(nil)))
	case wire.SeqDataResponse:
		body, err := wire.UnmarshalSeqDataResponseBody(msg.Body)
		w.mustNoError(err)
		ch, ok := w.pending[body.SeqID]
		if !ok {
			log.Panicf("shard: response for unknown request id %d", body.SeqID)
		}
		delete(w.pending, body.SeqID)
		w.outstanding--
		ch <- seqDataResult{sense: body.Sense, antisense: body.Antisense, multiplicity: int(body.Multiplicity), found: body.Found}
	case wire.Checkpoint:
		w.checkpoints[msg.From] = true
	case wire.Control:
		body, err := wire.UnmarshalControlBody(msg.Body)
		w.mustNoError(err)
		w.controlPhase = &body.Phase
	default:
		log.Panicf("shard: unknown message type %d", msg.Type)
	}
}

func (w *Worker) mustNoError(err error) {
	if err != nil {
		log.Panic(errors.Wrap(err, "shard: malformed message"))
	}
}

// Add routes an Add(k) mutation to k's owner: locally, if this worker owns
// it, or fire-and-forget over the transport otherwise.
func (w *Worker) Add(k kmer.Kmer) {
	if o := w.owner(k); o != w.Rank() {
		body := wire.AddBody{K: k}
		w.mustNoError(w.transport.Send(o, wire.Add, body.Marshal(nil)))
		return
	}
	if err := w.store.Add(k); err != nil {
		log.Panic(errors.Wrap(err, "shard: local Add after Finalize"))
	}
}

// Remove routes a Remove(k) mutation to k's owner.
func (w *Worker) Remove(k kmer.Kmer) {
	if o := w.owner(k); o != w.Rank() {
		body := wire.RemoveBody{K: k}
		w.mustNoError(w.transport.Send(o, wire.Remove, body.Marshal(nil)))
		return
	}
	w.store.Remove(k)
}

// SetBaseExtension routes a SetBase mutation to k's owner.
func (w *Worker) SetBaseExtension(k kmer.Kmer, dir kmer.Direction, base byte) {
	if o := w.owner(k); o != w.Rank() {
		body := wire.SetBaseBody{K: k, Dir: dir, Base: base}
		w.mustNoError(w.transport.Send(o, wire.SetBase, body.Marshal(nil)))
		return
	}
	w.store.SetBaseExtension(k, dir, base)
}

// RemoveExtension routes a RemoveExt mutation to k's owner.
func (w *Worker) RemoveExtension(k kmer.Kmer, dir kmer.Direction, ext kmer.ExtSet) {
	if o := w.owner(k); o != w.Rank() {
		body := wire.RemoveExtBody{K: k, Dir: dir, Ext: ext}
		w.mustNoError(w.transport.Send(o, wire.RemoveExt, body.Marshal(nil)))
		return
	}
	w.store.RemoveExtension(k, dir, ext)
}

// GetSeqData resolves k's edge/multiplicity data, whether k is owned
// locally or remotely. A remote lookup blocks this goroutine (logically
// suspending the walker, per spec.md §4.3): it sends the request and then
// calls Pump in a loop on the calling goroutine until the response has
// been dispatched to its per-request channel, so no separate pumping
// goroutine is needed.
func (w *Worker) GetSeqData(k kmer.Kmer) (sense, antisense kmer.ExtSet, multiplicity int, ok bool) {
	if o := w.owner(k); o == w.Rank() {
		return w.store.GetSeqData(k)
	}
	if w.outstanding >= highWaterMark {
		w.pumpUntilBelowLowWater()
	}
	id := w.nextGroupID
	w.nextGroupID++
	ch := make(chan seqDataResult, 1)
	w.pending[id] = ch
	w.outstanding++
	body := wire.SeqDataRequestBody{K: k, GroupID: id, SeqID: id}
	w.mustNoError(w.transport.Send(w.owner(k), wire.SeqDataRequest, body.Marshal(nil)))
	for {
		select {
		case res := <-ch:
			return res.sense, res.antisense, res.multiplicity, res.found
		default:
			w.Pump()
		}
	}
}

// Checkpoint sends a Checkpoint acknowledgement to the controller (rank 0)
// and, if this worker IS the controller, records its own completion.
func (w *Worker) Checkpoint() {
	if w.Rank() == 0 {
		w.checkpoints[0] = true
		return
	}
	w.mustNoError(w.transport.Send(0, wire.Checkpoint, nil))
}

// AwaitCheckpoints blocks (pumping) until every rank has checkpointed,
// then clears the bookkeeping for the next phase. Only meaningful when
// called by the controller (rank 0).
func (w *Worker) AwaitCheckpoints() {
	for len(w.checkpoints) < w.size {
		w.Pump()
	}
	w.checkpoints = make(map[int]bool)
}

// Broadcast sends a Control message announcing phase to every other rank.
func (w *Worker) Broadcast(phase uint8) {
	body := wire.ControlBody{Phase: phase}
	for peer := 0; peer < w.size; peer++ {
		if peer == w.Rank() {
			continue
		}
		w.mustNoError(w.transport.Send(peer, wire.Control, body.Marshal(nil)))
	}
}

// Store returns the worker's local graph store, for read-only inspection
// (e.g. iterating local vertices to drive edits whose target ownership is
// resolved per-call via Add/Remove/... above).
func (w *Worker) Store() *graph.Store { return w.store }
