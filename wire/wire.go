// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package wire implements the bit-exact, little-endian binary encoding for
// shard-to-shard messages (C4), grounded on encoding/bam/gindex.go's use of
// encoding/binary for fixed-width records.
package wire

import (
	"encoding/binary"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/pkg/errors"
)

// MessageType tags the body that follows it on the wire, matching spec.md
// §4.3's numbered message list.
type MessageType uint8

const (
	// Add inserts a k-mer: body is AddBody.
	Add MessageType = iota + 1
	// Remove logically deletes a k-mer: body is RemoveBody.
	Remove
	// SetBase sets one outgoing edge: body is SetBaseBody.
	SetBase
	// RemoveExt clears a set of outgoing edges: body is RemoveExtBody.
	RemoveExt
	// SetFlag marks a direction on a vertex: body is SetFlagBody.
	SetFlag
	// SeqDataRequest asks the owner of a k-mer for its edge/multiplicity
	// data: body is SeqDataRequestBody.
	SeqDataRequest
	// SeqDataResponse answers a SeqDataRequest: body is SeqDataResponseBody.
	SeqDataResponse
	// Checkpoint is the phase-barrier acknowledgement: body is empty.
	Checkpoint
	// Control broadcasts the next phase to enter: body is ControlBody.
	Control
)

// AddBody is the payload of an Add message.
type AddBody struct {
	K kmer.Kmer
}

// Marshal appends the body's wire encoding to buf.
func (b AddBody) Marshal(buf []byte) []byte { return b.K.AppendBinary(buf) }

// UnmarshalAddBody parses an AddBody from buf.
func UnmarshalAddBody(buf []byte) (AddBody, error) {
	k, _, err := kmer.DecodeBinary(buf)
	return AddBody{K: k}, err
}

// RemoveBody is the payload of a Remove message.
type RemoveBody struct {
	K kmer.Kmer
}

// Marshal appends the body's wire encoding to buf.
func (b RemoveBody) Marshal(buf []byte) []byte { return b.K.AppendBinary(buf) }

// UnmarshalRemoveBody parses a RemoveBody from buf.
func UnmarshalRemoveBody(buf []byte) (RemoveBody, error) {
	k, _, err := kmer.DecodeBinary(buf)
	return RemoveBody{K: k}, err
}

// SetBaseBody is the payload of a SetBase message.
type SetBaseBody struct {
	K    kmer.Kmer
	Dir  kmer.Direction
	Base byte
}

// Marshal appends the body's wire encoding to buf.
func (b SetBaseBody) Marshal(buf []byte) []byte {
	buf = b.K.AppendBinary(buf)
	return append(buf, byte(b.Dir), b.Base)
}

// UnmarshalSetBaseBody parses a SetBaseBody from buf.
func UnmarshalSetBaseBody(buf []byte) (SetBaseBody, error) {
	k, rest, err := kmer.DecodeBinary(buf)
	if err != nil {
		return SetBaseBody{}, err
	}
	if len(rest) < 2 {
		return SetBaseBody{}, errors.New("wire: short SetBase body")
	}
	return SetBaseBody{K: k, Dir: kmer.Direction(rest[0]), Base: rest[1]}, nil
}

// RemoveExtBody is the payload of a RemoveExt message.
type RemoveExtBody struct {
	K   kmer.Kmer
	Dir kmer.Direction
	Ext kmer.ExtSet
}

// Marshal appends the body's wire encoding to buf.
func (b RemoveExtBody) Marshal(buf []byte) []byte {
	buf = b.K.AppendBinary(buf)
	return append(buf, byte(b.Dir), byte(b.Ext))
}

// UnmarshalRemoveExtBody parses a RemoveExtBody from buf.
func UnmarshalRemoveExtBody(buf []byte) (RemoveExtBody, error) {
	k, rest, err := kmer.DecodeBinary(buf)
	if err != nil {
		return RemoveExtBody{}, err
	}
	if len(rest) < 2 {
		return RemoveExtBody{}, errors.New("wire: short RemoveExt body")
	}
	return RemoveExtBody{K: k, Dir: kmer.Direction(rest[0]), Ext: kmer.ExtSet(rest[1])}, nil
}

// SetFlagBody is the payload of a SetFlag message.
type SetFlagBody struct {
	K   kmer.Kmer
	Dir kmer.Direction
}

// Marshal appends the body's wire encoding to buf.
func (b SetFlagBody) Marshal(buf []byte) []byte {
	buf = b.K.AppendBinary(buf)
	return append(buf, byte(b.Dir))
}

// UnmarshalSetFlagBody parses a SetFlagBody from buf.
func UnmarshalSetFlagBody(buf []byte) (SetFlagBody, error) {
	k, rest, err := kmer.DecodeBinary(buf)
	if err != nil {
		return SetFlagBody{}, err
	}
	if len(rest) < 1 {
		return SetFlagBody{}, errors.New("wire: short SetFlag body")
	}
	return SetFlagBody{K: k, Dir: kmer.Direction(rest[0])}, nil
}

// SeqDataRequestBody is the payload of a SeqDataRequest message.
type SeqDataRequestBody struct {
	K       kmer.Kmer
	GroupID uint64
	SeqID   uint64
}

// Marshal appends the body's wire encoding to buf.
func (b SeqDataRequestBody) Marshal(buf []byte) []byte {
	buf = b.K.AppendBinary(buf)
	buf = appendUint64(buf, b.GroupID)
	return appendUint64(buf, b.SeqID)
}

// UnmarshalSeqDataRequestBody parses a SeqDataRequestBody from buf.
func UnmarshalSeqDataRequestBody(buf []byte) (SeqDataRequestBody, error) {
	k, rest, err := kmer.DecodeBinary(buf)
	if err != nil {
		return SeqDataRequestBody{}, err
	}
	if len(rest) < 16 {
		return SeqDataRequestBody{}, errors.New("wire: short SeqDataRequest body")
	}
	return SeqDataRequestBody{
		K:       k,
		GroupID: binary.LittleEndian.Uint64(rest[0:8]),
		SeqID:   binary.LittleEndian.Uint64(rest[8:16]),
	}, nil
}

// SeqDataResponseBody is the payload of a SeqDataResponse message.
type SeqDataResponseBody struct {
	K            kmer.Kmer
	GroupID      uint64
	SeqID        uint64
	Sense        kmer.ExtSet
	Antisense    kmer.ExtSet
	Multiplicity uint32
	Found        bool
}

// Marshal appends the body's wire encoding to buf.
func (b SeqDataResponseBody) Marshal(buf []byte) []byte {
	buf = b.K.AppendBinary(buf)
	buf = appendUint64(buf, b.GroupID)
	buf = appendUint64(buf, b.SeqID)
	buf = append(buf, byte(b.Sense), byte(b.Antisense))
	buf = appendUint32(buf, b.Multiplicity)
	found := byte(0)
	if b.Found {
		found = 1
	}
	return append(buf, found)
}

// UnmarshalSeqDataResponseBody parses a SeqDataResponseBody from buf.
func UnmarshalSeqDataResponseBody(buf []byte) (SeqDataResponseBody, error) {
	k, rest, err := kmer.DecodeBinary(buf)
	if err != nil {
		return SeqDataResponseBody{}, err
	}
	if len(rest) < 23 {
		return SeqDataResponseBody{}, errors.New("wire: short SeqDataResponse body")
	}
	return SeqDataResponseBody{
		K:            k,
		GroupID:      binary.LittleEndian.Uint64(rest[0:8]),
		SeqID:        binary.LittleEndian.Uint64(rest[8:16]),
		Sense:        kmer.ExtSet(rest[16]),
		Antisense:    kmer.ExtSet(rest[17]),
		Multiplicity: binary.LittleEndian.Uint32(rest[18:22]),
		Found:        rest[22] != 0,
	}, nil
}

// ControlBody is the payload of a Control message: the phase the
// controller is instructing workers to enter next.
type ControlBody struct {
	Phase uint8
}

// Marshal appends the body's wire encoding to buf.
func (b ControlBody) Marshal(buf []byte) []byte { return append(buf, b.Phase) }

// UnmarshalControlBody parses a ControlBody from buf.
func UnmarshalControlBody(buf []byte) (ControlBody, error) {
	if len(buf) < 1 {
		return ControlBody{}, errors.New("wire: short Control body")
	}
	return ControlBody{Phase: buf[0]}, nil
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}
