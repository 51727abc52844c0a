// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package shard

import "github.com/grailbio/abyssgo/wire"

// LocalTransport is an in-process Transport backed by buffered Go
// channels, one per ordered (from, to) pair, used by tests and by
// single-binary multi-worker runs. Construct a full mesh with
// NewLocalMesh.
type LocalTransport struct {
	rank int
	size int
	// inboxes[from] is the channel carrying messages sent to this
	// transport's rank by rank `from`.
	inboxes []chan Message
	// out[peer] is the channel this transport sends to rank `peer` on.
	out []chan<- Message
}

// NewLocalMesh builds size LocalTransports, each able to Send to every
// other and Recv what was sent to it. bufferPerPeer bounds how many
// in-flight messages a single sender-receiver pair may have buffered
// before Send blocks; pick a value comfortably above the flow-control
// high-water mark so Send never blocks under normal operation.
func NewLocalMesh(size int, bufferPerPeer int) []*LocalTransport {
	// chans[from][to] is the channel from rank `from` to rank `to`.
	chans := make([][]chan Message, size)
	for i := range chans {
		chans[i] = make([]chan Message, size)
		for j := range chans[i] {
			chans[i][j] = make(chan Message, bufferPerPeer)
		}
	}
	transports := make([]*LocalTransport, size)
	for rank := 0; rank < size; rank++ {
		t := &LocalTransport{rank: rank, size: size}
		t.out = make([]chan<- Message, size)
		t.inboxes = make([]chan Message, size)
		for peer := 0; peer < size; peer++ {
			t.out[peer] = chans[rank][peer]
		}
		for from := 0; from < size; from++ {
			t.inboxes[from] = chans[from][rank]
		}
		transports[rank] = t
	}
	return transports
}

// Rank implements Transport.
func (t *LocalTransport) Rank() int { return t.rank }

// Size implements Transport.
func (t *LocalTransport) Size() int { return t.size }

// Send implements Transport.
func (t *LocalTransport) Send(peer int, msgType wire.MessageType, body []byte) error {
	t.out[peer] <- Message{From: t.rank, To: peer, Type: msgType, Body: body}
	return nil
}

// Recv implements Transport: a non-blocking poll that scans the peers'
// inbound channels in rank order, always starting from rank 0, and returns
// the first message found, preserving FIFO order within each (sender,
// receiver) pair, per spec.md §5's ordering guarantee.
func (t *LocalTransport) Recv() (Message, bool) {
	for _, ch := range t.inboxes {
		select {
		case m := <-ch:
			return m, true
		default:
		}
	}
	return Message{}, false
}
