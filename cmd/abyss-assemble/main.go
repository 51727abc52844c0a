// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package main

/*
abyss-assemble builds a de Bruijn graph from a set of read files and walks
it down to a set of contigs. With -size 1 it runs as one process over the
in-process transport; a larger -size selects the TCP transport, whose Send
returns an error, so a multi-process run stops at its first message.
*/

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/abyssgo/control"
	"github.com/grailbio/abyssgo/graph"
	"github.com/grailbio/abyssgo/internal/graphviz"
	"github.com/grailbio/abyssgo/kmer"
	"github.com/grailbio/abyssgo/seqio"
	"github.com/grailbio/abyssgo/shard"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/pkg/errors"
)

var (
	k             = flag.Int("k", 0, "K-mer length (required)")
	in            = flag.String("in", "", "Comma-separated list of input FASTA/FASTQ read files, optionally gzip- or bzip2-compressed")
	out           = flag.String("out", "", "Output contigs FASTA path prefix (required)")
	graphPath     = flag.String("graph", "", "If set, load the graph from this dump instead of -in, skipping LOADING/GEN_ADJ")
	erode         = flag.Int("erode", -1, "Minimum total multiplicity of a kept end-vertex; 0 disables erosion; -1 auto-derives from the coverage histogram")
	erodeStrand   = flag.Int("erode-strand", 1, "Minimum per-strand multiplicity of a kept end-vertex")
	trimLen       = flag.Int("trim-len", 0, "Upper bound of iterative tip-trim length; 0 disables trimming")
	coverage      = flag.Float64("coverage", -1, "Minimum contig coverage/length ratio; -1 auto-derives from the coverage histogram")
	bubbles       = flag.Bool("bubbles", true, "Pop simple bubbles before assembly")
	snpPath       = flag.String("snp-path", "", "If set, write popped-bubble alleles here in FASTA")
	colourSpace   = flag.Bool("colour-space", false, "Force colour-space interpretation instead of auto-detecting from the first input record")
	rank          = flag.Int("rank", 0, "This process's shard rank, in [0,size)")
	size          = flag.Int("size", 1, "Total number of shards")
	peers         = flag.String("peers", "", "Comma-separated host:port list, one per rank, for sharded runs (unused when size=1)")
	graphvizPath  = flag.String("graphviz", "", "If set, write a GraphViz digraph of the final graph here")
	histogramPath = flag.String("histogram", "", "If set, write the coverage histogram here as two-column text")
	merge         = flag.Bool("merge", false, "After assembling, concatenate every rank's contigs-<rank>.fa (0..size-1) into -out; run once, after every rank has finished")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s -k K -in reads.fa -out contigs [OPTIONS]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if *k <= 0 {
		log.Fatalf("abyss-assemble: -k is required and must be positive")
	}
	if *out == "" {
		log.Fatalf("abyss-assemble: -out is required")
	}
	if *in == "" && *graphPath == "" {
		log.Fatalf("abyss-assemble: one of -in or -graph is required")
	}
	if *rank < 0 || *rank >= *size {
		log.Fatalf("abyss-assemble: -rank must be in [0,%d)", *size)
	}

	alphabet := kmer.Alphabet{ColourSpace: *colourSpace}
	var inPaths []string
	if *in != "" {
		inPaths = strings.Split(*in, ",")
	}
	if *graphPath == "" && !*colourSpace {
		detected, err := detectAlphabet(inPaths[0], *k)
		if err != nil {
			log.Fatalf("abyss-assemble: detecting alphabet from %s: %v", inPaths[0], err)
		}
		alphabet = detected
	}

	cfg := graph.Config{
		K:           *k,
		Alphabet:    alphabet,
		Erode:       *erode,
		ErodeStrand: *erodeStrand,
		TrimLen:     *trimLen,
		Coverage:    *coverage,
		Bubbles:     *bubbles,
		SnpPath:     *snpPath,
	}
	store := graph.NewStore(cfg)

	if *graphPath != "" {
		if err := store.Load(*graphPath); err != nil {
			log.Fatalf("abyss-assemble: loading %s: %v", *graphPath, err)
		}
	} else {
		if err := loadReads(store, inPaths, *k, alphabet); err != nil {
			log.Fatalf("abyss-assemble: loading reads: %v", err)
		}
	}

	transport, err := newTransport(*rank, *size, *peers)
	if err != nil {
		log.Fatalf("abyss-assemble: setting up transport: %v", err)
	}
	worker := shard.NewWorker(store, transport)

	var opts control.Options
	var snpFile, histFile *os.File
	if *snpPath != "" {
		snpFile, err = os.Create(rankedPath(*snpPath, *rank))
		if err != nil {
			log.Fatalf("abyss-assemble: creating %s: %v", *snpPath, err)
		}
		defer snpFile.Close()
		opts.SnpWriter = snpFile
	}
	if *histogramPath != "" && *rank == 0 {
		histFile, err = os.Create(*histogramPath)
		if err != nil {
			log.Fatalf("abyss-assemble: creating %s: %v", *histogramPath, err)
		}
		defer histFile.Close()
		opts.HistogramWriter = histFile
	}

	res := control.Run(store, worker, opts)

	contigPath := rankedPath(*out, *rank)
	contigFile, err := os.Create(contigPath)
	if err != nil {
		log.Fatalf("abyss-assemble: creating %s: %v", contigPath, err)
	}
	if err := writeContigs(contigFile, res.Contigs); err != nil {
		log.Fatalf("abyss-assemble: writing %s: %v", contigPath, err)
	}
	if err := contigFile.Close(); err != nil {
		log.Fatalf("abyss-assemble: closing %s: %v", contigPath, err)
	}

	if *graphvizPath != "" && *rank == 0 {
		gf, err := os.Create(*graphvizPath)
		if err != nil {
			log.Fatalf("abyss-assemble: creating %s: %v", *graphvizPath, err)
		}
		defer gf.Close()
		if err := graphviz.Write(gf, store, cfg.Alphabet); err != nil {
			log.Fatalf("abyss-assemble: writing graphviz: %v", err)
		}
	}

	log.Printf("abyss-assemble: rank %d done: %d contigs written to %s", *rank, len(res.Contigs), contigPath)

	if *merge {
		if err := mergeContigs(*out, *size, *out); err != nil {
			log.Fatalf("abyss-assemble: merging shard outputs: %v", err)
		}
		log.Printf("abyss-assemble: merged %d shard(s) into %s", *size, *out)
	}
}

// rankedPath inserts "-<rank>" before the file extension, e.g.
// "contigs.fa" with rank 2 becomes "contigs-2.fa", matching spec.md §6's
// per-worker output naming.
func rankedPath(prefix string, rank int) string {
	if dot := strings.LastIndexByte(prefix, '.'); dot >= 0 {
		return fmt.Sprintf("%s-%d%s", prefix[:dot], rank, prefix[dot:])
	}
	return fmt.Sprintf("%s-%d", prefix, rank)
}

// writeContigs emits one FASTA record per contig, header `>ID LEN
// COVERAGE` per spec.md §6 — LEN is the branch's k-mer count and COVERAGE
// is its mean per-k-mer multiplicity, matching how Assemble itself decides
// low-coverage filtering.
func writeContigs(w *os.File, contigs []graph.Contig) error {
	bw := bufio.NewWriter(w)
	for _, c := range contigs {
		coverage := float64(c.Multiplicity) / float64(c.KmerCount)
		if _, err := fmt.Fprintf(bw, ">%d %d %.2f\n%s\n", c.ID, c.KmerCount, coverage, c.Sequence); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// detectAlphabet peeks at path's first accepted record to decide whether
// the whole run should be treated as colour-space, per spec.md §6's
// "latched once from the first input record" rule.
func detectAlphabet(path string, k int) (kmer.Alphabet, error) {
	f, err := os.Open(path)
	if err != nil {
		return kmer.Alphabet{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	r, err := seqio.Open(f, k)
	if err != nil {
		return kmer.Alphabet{}, errors.Wrapf(err, "opening %s", path)
	}
	if _, ok := r.Read(); !ok {
		return kmer.Alphabet{}, nil
	}
	return r.Alphabet(), nil
}

// loadReads streams every record of every file in paths, inserting its
// k-mers into store, and logs one discard-count warning per file at the
// end (spec.md §7).
func loadReads(store *graph.Store, paths []string, k int, a kmer.Alphabet) error {
	var kmers []kmer.Kmer
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return errors.Wrapf(err, "opening %s", p)
		}
		r, err := seqio.Open(f, k)
		if err != nil {
			f.Close()
			return errors.Wrapf(err, "opening %s", p)
		}
		for {
			rec, ok := r.Read()
			if !ok {
				break
			}
			kmers, err = seqio.Kmerize(rec.Seq, k, a, kmers[:0])
			if err != nil {
				f.Close()
				return err
			}
			for _, km := range kmers {
				if err := store.Add(km); err != nil {
					f.Close()
					return err
				}
			}
		}
		r.Warn()
		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", p)
		}
	}
	return nil
}

// newTransport constructs the Transport for this rank: a single-process
// loopback when size is 1 (the common case), or a TCPTransport addressed
// by -peers for a multi-rank run.
func newTransport(rank, size int, peers string) (shard.Transport, error) {
	if size <= 1 {
		return shard.NewLocalMesh(1, 256)[0], nil
	}
	peerList := strings.Split(peers, ",")
	if len(peerList) != size {
		return nil, errors.Errorf("abyss-assemble: -peers lists %d addresses, want %d (matching -size)", len(peerList), size)
	}
	return shard.NewTCPTransport(rank, peerList), nil
}
