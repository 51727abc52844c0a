// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package seqio reads FASTA and FASTQ read files, detecting colour-space
// input and discarding short or invalid sequences, grounded on
// encoding/fasta and encoding/fastq's scanner-based reading style.
package seqio

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"io"
	"strings"

	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/klauspost/compress/gzip"
	pkgerrors "github.com/pkg/errors"
)

// Record is one sequence read from a FASTA or FASTQ file; quality/unknown
// fields are discarded since the core only ever consumes Seq.
type Record struct {
	Name string
	Seq  string
}

// Stats accumulates the discard counts a Reader warns about once, at the
// end of a run, per spec.md §7's "record/discard at sequence granularity;
// warn once at end with count" policy.
type Stats struct {
	TooShort     int
	InvalidChars int
	Accepted     int
}

// Reader streams Records from one read file, detecting the first record's
// alphabet (base-space vs colour-space) and filtering out anything shorter
// than K or containing a character outside {A,C,G,T,0,1,2,3} (bases in
// either case); the detected alphabet does not narrow that set.
type Reader struct {
	sc       *bufio.Scanner
	fasta    bool
	k        int
	alphabet *kmer.Alphabet // latched from the first valid record
	once     errors.Once
	Stats    Stats

	pending    []byte // a FASTA header line read past the end of the previous record
	hasPending bool
	eof        bool
}

// Open wraps r as a Reader for records of at least length k, auto-detecting
// gzip or bzip2 compression from the first bytes and FASTQ framing if the
// first decompressed byte is '@' (FASTA otherwise). Grounded on
// markduplicates/mark_duplicates.go's gzip-sniffing open pattern, adapted
// to also recognize bzip2 (original ABySS accepts both).
func Open(r io.Reader, k int) (*Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err == nil {
		if magic[0] == 0x1f && magic[1] == 0x8b {
			gz, err := gzip.NewReader(br)
			if err != nil {
				return nil, pkgerrors.Wrap(err, "seqio: opening gzip stream")
			}
			return newReader(gz, k)
		}
		if magic[0] == 'B' && magic[1] == 'Z' {
			return newReader(bzip2.NewReader(br), k)
		}
	}
	return newReader(br, k)
}

func newReader(r io.Reader, k int) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	first, err := br.Peek(1)
	if err != nil && err != io.EOF {
		return nil, pkgerrors.Wrap(err, "seqio: reading first byte")
	}
	fasta := true
	if len(first) > 0 && first[0] == '@' {
		fasta = false
	}
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	return &Reader{sc: sc, fasta: fasta, k: k}, nil
}

// detectAlphabet latches r.alphabet from seq's first character, per
// spec.md §6: "a first character in {0,1,2,3} switches the whole run to
// colour-space mode".
func (r *Reader) detectAlphabet(seq string) {
	if r.alphabet != nil || len(seq) == 0 {
		return
	}
	a := kmer.Alphabet{ColourSpace: seq[0] == '0' || seq[0] == '1' || seq[0] == '2' || seq[0] == '3'}
	r.alphabet = &a
}

// Alphabet returns the alphabet latched by the first accepted record, or
// the base-space default if none has been read yet.
func (r *Reader) Alphabet() kmer.Alphabet {
	if r.alphabet == nil {
		return kmer.Alphabet{}
	}
	return *r.alphabet
}

func isValidChar(c byte) bool {
	switch c {
	case 'A', 'C', 'G', 'T', 'a', 'c', 'g', 't', '0', '1', '2', '3':
		return true
	}
	return false
}

// Read returns the next accepted record, or ok=false at end of stream.
// Discarded (too-short, invalid) records are skipped transparently and
// tallied into Stats; call Warn after the stream is exhausted to log a
// one-line summary.
func (r *Reader) Read() (Record, bool) {
	for {
		rec, ok := r.scanOne()
		if !ok {
			return Record{}, false
		}
		seq := strings.ToUpper(rec.Seq)
		if len(seq) < r.k {
			r.Stats.TooShort++
			continue
		}
		valid := true
		for i := 0; i < len(seq); i++ {
			if !isValidChar(seq[i]) {
				valid = false
				break
			}
		}
		if !valid {
			r.Stats.InvalidChars++
			continue
		}
		r.detectAlphabet(seq)
		r.Stats.Accepted++
		return Record{Name: rec.Name, Seq: seq}, true
	}
}

func (r *Reader) scanOne() (Record, bool) {
	if r.fasta {
		return r.scanFasta()
	}
	return r.scanFastq()
}

// nextLine returns the next line, preferring one pushed back by a prior
// call to scanFasta, and reports whether one was available.
func (r *Reader) nextLine() ([]byte, bool) {
	if r.hasPending {
		r.hasPending = false
		return r.pending, true
	}
	if r.eof {
		return nil, false
	}
	if !r.sc.Scan() {
		r.eof = true
		return nil, false
	}
	return r.sc.Bytes(), true
}

// scanFasta reads one '>' header and the sequence lines up to (but
// excluding) the next header, joining them into one string. A header line
// encountered while accumulating sequence is pushed back for the next
// call.
func (r *Reader) scanFasta() (Record, bool) {
	var header []byte
	for {
		line, ok := r.nextLine()
		if !ok {
			return Record{}, false
		}
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			header = append([]byte(nil), line...)
			break
		}
		// Sequence data encountered before any header; skip it.
	}
	name := strings.Fields(string(header[1:]))
	var seq bytes.Buffer
	for {
		line, ok := r.nextLine()
		if !ok {
			break
		}
		if len(line) > 0 && line[0] == '>' {
			r.pending = append([]byte(nil), line...)
			r.hasPending = true
			break
		}
		seq.Write(line)
	}
	nm := ""
	if len(name) > 0 {
		nm = name[0]
	}
	return Record{Name: nm, Seq: seq.String()}, true
}

// scanFastq reads a 4-line FASTQ record.
func (r *Reader) scanFastq() (Record, bool) {
	if !r.sc.Scan() {
		return Record{}, false
	}
	header := r.sc.Text()
	if len(header) == 0 || header[0] != '@' {
		r.once.Set(pkgerrors.Errorf("seqio: malformed FASTQ header %q", header))
		return Record{}, false
	}
	if !r.sc.Scan() {
		return Record{}, false
	}
	seq := r.sc.Text()
	if !r.sc.Scan() { // '+' line
		return Record{}, false
	}
	if !r.sc.Scan() { // quality line, discarded
		return Record{}, false
	}
	name := strings.Fields(header[1:])
	nm := ""
	if len(name) > 0 {
		nm = name[0]
	}
	return Record{Name: nm, Seq: seq}, true
}

// Warn logs a one-line summary of discarded sequences and any framing
// error encountered, matching spec.md §7's "warn once at end with count"
// policy for input-data errors.
func (r *Reader) Warn() {
	if r.Stats.TooShort > 0 || r.Stats.InvalidChars > 0 {
		log.Printf("seqio: discarded %d short and %d invalid-character sequences (%d accepted)",
			r.Stats.TooShort, r.Stats.InvalidChars, r.Stats.Accepted)
	}
	if err := r.once.Err(); err != nil {
		log.Printf("seqio: %v", err)
	}
}

// Kmerize appends to dst every k-mer of seq's length-k windows, in order.
func Kmerize(seq string, k int, a kmer.Alphabet, dst []kmer.Kmer) ([]kmer.Kmer, error) {
	for i := 0; i+k <= len(seq); i++ {
		km, err := kmer.New(seq[i:i+k], a)
		if err != nil {
			return dst, pkgerrors.Wrapf(err, "seqio: k-merizing %q at offset %d", seq, i)
		}
		dst = append(dst, km)
	}
	return dst, nil
}
