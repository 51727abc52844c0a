// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeContigs(t *testing.T) {
	dir, err := ioutil.TempDir("", "abyss-merge-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "contigs.fa")
	require.NoError(t, ioutil.WriteFile(rankedPath(prefix, 0), []byte(">0\nACGT\n"), 0644))
	require.NoError(t, ioutil.WriteFile(rankedPath(prefix, 1), []byte(">1\nTTTT\n"), 0644))

	outPath := filepath.Join(dir, "merged.fa")
	require.NoError(t, mergeContigs(prefix, 2, outPath))

	data, err := ioutil.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, ">0\nACGT\n>1\nTTTT\n", string(data))
}
