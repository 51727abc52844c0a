// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"io/ioutil"
	"os"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

// mergeContigs concatenates each rank's contigs-<rank>.fa (named via
// rankedPath against prefix) into a single file at outPath, for the
// controller to assemble one final FASTA after every rank's local
// output has been written (spec.md §6). Each shard is copied through a
// snappy round-trip spool rather than held in memory, mirroring
// encoding/bampair's snappy-backed spill-file pattern for bounding peak
// memory over many large shards.
func mergeContigs(prefix string, size int, outPath string) (err error) {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outPath)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	for rank := 0; rank < size; rank++ {
		shardPath := rankedPath(prefix, rank)
		if err := copyShard(out, shardPath); err != nil {
			return errors.Wrapf(err, "merging %s", shardPath)
		}
	}
	return nil
}

// copyShard streams shardPath's contents into dst through a snappy
// encode/decode round-trip spool file, so the merge never buffers an
// entire shard in memory.
func copyShard(dst io.Writer, shardPath string) error {
	f, err := os.Open(shardPath)
	if err != nil {
		return err
	}
	defer f.Close()

	spool, err := ioutil.TempFile("", "abyss-merge-*.snappy")
	if err != nil {
		return err
	}
	spoolPath := spool.Name()
	defer os.Remove(spoolPath)

	sw := snappy.NewBufferedWriter(spool)
	if _, err := io.Copy(sw, f); err != nil {
		spool.Close()
		return err
	}
	if err := sw.Close(); err != nil {
		spool.Close()
		return err
	}
	if err := spool.Close(); err != nil {
		return err
	}

	rf, err := os.Open(spoolPath)
	if err != nil {
		return err
	}
	defer rf.Close()
	sr := snappy.NewReader(rf)
	_, err = io.Copy(dst, sr)
	return err
}
