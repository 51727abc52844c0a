// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package histogram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	h := New()
	require.True(t, h.Empty())
	require.Equal(t, 0, h.Min())
	require.Equal(t, 0, h.Max())
	require.Equal(t, 0, h.FirstLocalMinimum())
}

func TestInsertAndCount(t *testing.T) {
	h := New()
	h.Insert(5)
	h.Insert(5)
	h.InsertN(7, 3)
	require.Equal(t, uint64(2), h.Count(5))
	require.Equal(t, uint64(3), h.Count(7))
	require.Equal(t, uint64(0), h.Count(99))
	require.Equal(t, 5, h.Min())
	require.Equal(t, 7, h.Max())
	require.Equal(t, uint64(5), h.Size())
}

func TestMeanVarianceStdDev(t *testing.T) {
	h := New()
	for _, v := range []int{2, 4, 4, 4, 5, 5, 7, 9} {
		h.Insert(v)
	}
	require.InDelta(t, 5.0, h.Mean(), 1e-9)
	require.InDelta(t, 4.0, h.Variance(), 1e-9)
	require.InDelta(t, 2.0, h.StdDev(), 1e-9)
}

func TestFirstLocalMinimum(t *testing.T) {
	h := New()
	// A typical coverage histogram: a spike of erroneous low-coverage
	// k-mer, a dip, then the true coverage peak.
	freq := map[int]uint64{1: 100, 2: 60, 3: 20, 4: 5, 5: 8, 6: 40, 7: 90, 8: 70, 9: 20}
	for v, n := range freq {
		h.InsertN(v, n)
	}
	require.Equal(t, 4, h.FirstLocalMinimum())
}

func TestMerge(t *testing.T) {
	a := New()
	a.Insert(1)
	a.Insert(2)
	b := New()
	b.Insert(2)
	b.Insert(3)
	a.Merge(b)
	require.Equal(t, uint64(1), a.Count(1))
	require.Equal(t, uint64(2), a.Count(2))
	require.Equal(t, uint64(1), a.Count(3))
}

func TestWriteTo(t *testing.T) {
	h := New()
	h.Insert(2)
	h.InsertN(1, 3)
	var sb strings.Builder
	_, err := h.WriteTo(&sb)
	require.NoError(t, err)
	require.Equal(t, "1\t3\n2\t1\n", sb.String())
}
