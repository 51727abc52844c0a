// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package graph

import (
	"bufio"
	"encoding/binary"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// dumpMagic identifies a graph dump file; dumpVersion guards against
// decoding a dump written by an incompatible layout.
const (
	dumpMagic   uint32 = 0x41427953 // "AByS"
	dumpVersion uint32 = 1
)

// Store writes a persisted snapshot of s to path: the configured k,
// alphabet, adjacency flag, and every vertex's canonical k-mer, edge sets,
// strand multiplicities, and flags. The file is gzip-compressed and
// written atomically (temp file + rename), matching the "outputs are
// written atomically" contract of spec.md §6.
func (s *Store) Store(path string) (err error) {
	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "graph: creating temp file for dump")
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	gz := gzip.NewWriter(tmp)
	bw := bufio.NewWriter(gz)

	header := make([]byte, 4+4+4+4+1+4)
	binary.LittleEndian.PutUint32(header[0:4], dumpMagic)
	binary.LittleEndian.PutUint32(header[4:8], dumpVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(s.cfg.K))
	hasAdj := byte(0)
	if s.HasAdjacency {
		hasAdj = 1
	}
	header[12] = hasAdj
	if s.cfg.Alphabet.ColourSpace {
		header[13] = 1
	}
	binary.LittleEndian.PutUint32(header[16:20], uint32(len(s.m)))
	if _, err = bw.Write(header[:20]); err != nil {
		return errors.Wrap(err, "graph: writing dump header")
	}

	buf := make([]byte, 0, 1+kmer.NumBytes+2+4+1)
	for k, v := range s.m {
		buf = buf[:0]
		buf = k.AppendBinary(buf)
		buf = append(buf, byte(v.ext[kmer.Sense]), byte(v.ext[kmer.Antisense]))
		var multBuf [4]byte
		binary.LittleEndian.PutUint16(multBuf[0:2], v.mult[kmer.Sense])
		binary.LittleEndian.PutUint16(multBuf[2:4], v.mult[kmer.Antisense])
		buf = append(buf, multBuf[:]...)
		buf = append(buf, v.flags)
		if _, err = bw.Write(buf); err != nil {
			return errors.Wrap(err, "graph: writing vertex record")
		}
	}

	if err = bw.Flush(); err != nil {
		return errors.Wrap(err, "graph: flushing dump")
	}
	if err = gz.Close(); err != nil {
		return errors.Wrap(err, "graph: closing gzip writer")
	}
	if err = unix.Fsync(int(tmp.Fd())); err != nil {
		return errors.Wrap(err, "graph: syncing dump")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "graph: closing temp file")
	}
	if err = unix.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "graph: renaming dump into place")
	}
	return nil
}

// Load replaces s's contents with the dump at path, and sets HasAdjacency
// so the control loop's GEN_ADJ phase is skipped. Load requires s's K and
// Alphabet to already match the dump's (it does not reconfigure s).
func (s *Store) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "graph: opening dump")
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "graph: opening gzip stream")
	}
	defer gz.Close()
	br := bufio.NewReader(gz)

	header := make([]byte, 20)
	if _, err := io.ReadFull(br, header); err != nil {
		return errors.Wrap(err, "graph: reading dump header")
	}
	if binary.LittleEndian.Uint32(header[0:4]) != dumpMagic {
		return errors.New("graph: not an abyssgo dump (bad magic)")
	}
	if binary.LittleEndian.Uint32(header[4:8]) != dumpVersion {
		return errors.New("graph: unsupported dump version")
	}
	k := int(binary.LittleEndian.Uint32(header[8:12]))
	if k != s.cfg.K {
		return errors.Errorf("graph: dump k=%d does not match store k=%d", k, s.cfg.K)
	}
	colourSpace := header[13] != 0
	if colourSpace != s.cfg.Alphabet.ColourSpace {
		return errors.New("graph: dump alphabet does not match store alphabet")
	}
	n := binary.LittleEndian.Uint32(header[16:20])

	m := make(map[kmer.Kmer]*VertexData, n)
	recBuf := make([]byte, kmer.NumBytes+2+4+1)
	for i := uint32(0); i < n; i++ {
		kmerHeader := make([]byte, 1)
		if _, err := io.ReadFull(br, kmerHeader); err != nil {
			return errors.Wrap(err, "graph: reading vertex k-mer length")
		}
		codingBytes := (int(kmerHeader[0]) + 3) / 4
		rest := recBuf[:codingBytes+2+4+1]
		if _, err := io.ReadFull(br, rest); err != nil {
			return errors.Wrap(err, "graph: reading vertex record body")
		}
		full := append(kmerHeader, rest[:codingBytes]...)
		kk, _, err := kmer.DecodeBinary(full)
		if err != nil {
			return errors.Wrap(err, "graph: decoding vertex k-mer")
		}
		off := codingBytes
		v := &VertexData{}
		v.ext[kmer.Sense] = kmer.ExtSet(rest[off])
		v.ext[kmer.Antisense] = kmer.ExtSet(rest[off+1])
		v.mult[kmer.Sense] = binary.LittleEndian.Uint16(rest[off+2 : off+4])
		v.mult[kmer.Antisense] = binary.LittleEndian.Uint16(rest[off+4 : off+6])
		v.flags = rest[off+6]
		m[kk] = v
	}

	s.m = m
	s.HasAdjacency = true
	s.sealed = true
	return nil
}
