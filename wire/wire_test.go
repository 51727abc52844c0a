// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package wire

import (
	"testing"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/stretchr/testify/require"
)

func mustKmer(t *testing.T, s string) kmer.Kmer {
	t.Helper()
	k, err := kmer.New(s, kmer.Alphabet{})
	require.NoError(t, err)
	return k
}

func TestAddBodyRoundTrip(t *testing.T) {
	k := mustKmer(t, "ACGTACGTAC")
	buf := AddBody{K: k}.Marshal(nil)
	got, err := UnmarshalAddBody(buf)
	require.NoError(t, err)
	require.True(t, got.K.Equal(k))
}

func TestSetBaseBodyRoundTrip(t *testing.T) {
	k := mustKmer(t, "ACGT")
	body := SetBaseBody{K: k, Dir: kmer.Antisense, Base: 2}
	buf := body.Marshal(nil)
	got, err := UnmarshalSetBaseBody(buf)
	require.NoError(t, err)
	require.True(t, got.K.Equal(k))
	require.Equal(t, kmer.Antisense, got.Dir)
	require.Equal(t, byte(2), got.Base)
}

func TestRemoveExtBodyRoundTrip(t *testing.T) {
	k := mustKmer(t, "GGGG")
	var ext kmer.ExtSet
	ext.Set(1)
	ext.Set(3)
	body := RemoveExtBody{K: k, Dir: kmer.Sense, Ext: ext}
	buf := body.Marshal(nil)
	got, err := UnmarshalRemoveExtBody(buf)
	require.NoError(t, err)
	require.True(t, got.K.Equal(k))
	require.Equal(t, ext, got.Ext)
}

func TestSeqDataRequestResponseRoundTrip(t *testing.T) {
	k := mustKmer(t, "TTTTACGT")
	req := SeqDataRequestBody{K: k, GroupID: 42, SeqID: 7}
	buf := req.Marshal(nil)
	gotReq, err := UnmarshalSeqDataRequestBody(buf)
	require.NoError(t, err)
	require.Equal(t, uint64(42), gotReq.GroupID)
	require.Equal(t, uint64(7), gotReq.SeqID)

	resp := SeqDataResponseBody{
		K: k, GroupID: 42, SeqID: 7,
		Sense: 0x5, Antisense: 0xA, Multiplicity: 12345, Found: true,
	}
	buf = resp.Marshal(nil)
	gotResp, err := UnmarshalSeqDataResponseBody(buf)
	require.NoError(t, err)
	require.True(t, gotResp.K.Equal(k))
	require.Equal(t, kmer.ExtSet(0x5), gotResp.Sense)
	require.Equal(t, kmer.ExtSet(0xA), gotResp.Antisense)
	require.Equal(t, uint32(12345), gotResp.Multiplicity)
	require.True(t, gotResp.Found)
}

func TestControlBodyRoundTrip(t *testing.T) {
	buf := ControlBody{Phase: 3}.Marshal(nil)
	got, err := UnmarshalControlBody(buf)
	require.NoError(t, err)
	require.Equal(t, uint8(3), got.Phase)
}

func TestShortBufferErrors(t *testing.T) {
	_, err := UnmarshalAddBody(nil)
	require.Error(t, err)
	_, err = UnmarshalSetBaseBody([]byte{4, 0})
	require.Error(t, err)
}
