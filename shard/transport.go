// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package shard implements the sharded vertex store (C4): a shard map that
// routes each k-mer operation to its owning rank, and the message-passing
// substrate (Design Note "Message polling intertwined with mutation")
// those operations travel over.
package shard

import (
	"blainsmith.com/go/seahash"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/abyssgo/wire"
	"github.com/pkg/errors"
)

// Message is one envelope exchanged between workers.
type Message struct {
	From, To int
	Type     wire.MessageType
	Body     []byte
}

// Transport is the message-passing substrate C4 is built on: point-to-point
// sends, a single inbound queue drained by Recv, and rank/size metadata.
// Grounded on SPEC_FULL.md §4.3a.
type Transport interface {
	// Send enqueues a message to peer; it must not block the caller for
	// long (buffered or async), matching the "fire-and-forget mutation"
	// contract for everything except SeqDataRequest/Response.
	Send(peer int, msgType wire.MessageType, body []byte) error
	// Recv returns the next buffered inbound message, or ok=false if none
	// is currently available. It never blocks.
	Recv() (Message, bool)
	// Rank returns this transport's own rank.
	Rank() int
	// Size returns the total number of ranks.
	Size() int
}

// Owner returns the rank that owns k's canonical form under a shard map of
// the given size, using seahash over the k-mer's packed bytes — kept
// independent of the farm hash used for in-process lookups (kmer.Hash) so
// that resharding to a different size does not require re-deriving
// per-k-mer hashes from the lookup path.
func Owner(k kmer.Kmer, size int) int {
	if size <= 1 {
		return 0
	}
	buf := k.AppendBinary(make([]byte, 0, kmer.NumBytes+1))
	h := seahash.Sum64(buf)
	return int(h % uint64(size))
}

// errNotImplemented is returned by TCPTransport's methods; a real socket
// implementation is out of scope for the core (spec.md §1's "message-
// passing layer" names this as a pluggable external collaborator).
var errNotImplemented = errors.New("shard: TCPTransport is a placeholder; plug in a real socket implementation")

// TCPTransport is the on-the-wire counterpart to LocalTransport, addressed
// by a comma-separated host:port peer list (the CLI's -peers flag). Only
// the shape of the interface boundary is provided here; dialing, framing,
// and reconnection are left to a production deployment.
type TCPTransport struct {
	rank, size int
	peers      []string
}

// NewTCPTransport constructs a TCPTransport for the given rank among peers.
func NewTCPTransport(rank int, peers []string) *TCPTransport {
	return &TCPTransport{rank: rank, size: len(peers), peers: peers}
}

// Rank implements Transport.
func (t *TCPTransport) Rank() int { return t.rank }

// Size implements Transport.
func (t *TCPTransport) Size() int { return t.size }

// Send implements Transport.
func (t *TCPTransport) Send(peer int, msgType wire.MessageType, body []byte) error {
	return errNotImplemented
}

// Recv implements Transport.
func (t *TCPTransport) Recv() (Message, bool) { return Message{}, false }
