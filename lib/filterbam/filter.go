//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package filterbam

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/pierrec/lz4"
	"gopkg.in/fatih/set.v0"

	"github.com/functionalgenomics/gDNAx/lib/classify"
	"github.com/functionalgenomics/gDNAx/lib/ebam"
)

const defaultChunkSize = 10000

// Options configures one filtering driver.
type Options struct {
	// Pair-end sequencing: reconcile mates by query name, buffering
	// partial pairs across chunk boundaries.
	Paired bool
	// Number of records read per chunk. Smaller chunks reduce peak
	// memory, very small chunks cost throughput.
	ChunkSize int
	// Directory for the filtered BAM output; must exist.
	OutDir string
	// Per-alignment classification table format: "", "tsv" or "tsv+lz4".
	ClassFormat string
	// BAM decompression goroutine(s) per driver.
	NReader int
	// Shared progress counter, incremented atomically; optional.
	Progress *uint64

	TimeStart    time.Time
	VerboseLevel int
}

// GenericWriter is an output sink that may or may not compress.
type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// AddCommas adds commas after every 3 characters.
func AddCommas(s string) string {
	if len(s) <= 3 {
		return s
	}
	return AddCommas(s[0:len(s)-3]) + "," + s[len(s)-3:]
}

// OutPath derives the output BAM path: input basename plus underscore plus
// the requested category codes in fixed order.
func OutPath(outDir, pathIn string, cats classify.Category) string {
	base := filepath.Base(pathIn)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, base+"_"+cats.Codes()+".bam")
}

// Filter streams one BAM file through the classifier, writes the
// alignments matching any requested category to the derived output path,
// and returns the finalized per-file stats.
func Filter(clf *classify.Classifier, pathBAM ebam.PathBAM, opts Options) (stats Stats, err error) {
	stats.Path = pathBAM.Path
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	nReader := opts.NReader
	if nReader < 1 {
		nReader = 1
	}

	// Input
	f, rr, err := ebam.OpenBAM(pathBAM, nReader)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", pathBAM.Path, err)
	}
	defer f.Close()

	// Output
	outPath := OutPath(opts.OutDir, pathBAM.Path, clf.Categories())
	fout, err := os.Create(outPath)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", pathBAM.Path, err)
	}
	defer fout.Close()
	bw, err := bam.NewWriter(fout, rr.Header(), 1)
	if err != nil {
		return stats, fmt.Errorf("%s: %w", pathBAM.Path, err)
	}

	// Per-alignment classification table
	var classWriter GenericWriter
	if opts.ClassFormat != "" {
		classFormat, classZip := opts.ClassFormat, ""
		if strings.Contains(classFormat, "+") {
			doubleFormat := strings.SplitN(classFormat, "+", 2)
			classFormat, classZip = doubleFormat[0], doubleFormat[1]
		}
		if classFormat != "tsv" {
			return stats, fmt.Errorf("%s: unknown classification table format %q", pathBAM.Path, classFormat)
		}
		classPath := strings.TrimSuffix(outPath, ".bam") + ".tsv"
		if classZip != "" {
			classPath += "." + classZip
		}
		fclass, cerr := os.Create(classPath)
		if cerr != nil {
			return stats, fmt.Errorf("%s: %w", pathBAM.Path, cerr)
		}
		defer fclass.Close()
		switch classZip {
		case "lz4":
			classWriter = lz4.NewWriter(fclass)
		case "":
			classWriter = nopCloser{fclass}
		default:
			return stats, fmt.Errorf("%s: unknown classification table compression %q", pathBAM.Path, classZip)
		}
	}

	warned := set.New(set.NonThreadSafe)
	pending := make(map[string]*sam.Record)
	timeLog := time.Now()

	processRecord := func(aread *sam.Record) error {
		// Secondary and supplementary alignments never enter pairing or
		// classification.
		if aread.Flags&(sam.Secondary|sam.Supplementary) != 0 {
			return nil
		}
		var areads []*sam.Record
		if opts.Paired {
			// A read without a usable mate is excluded from counts.
			if aread.Flags&sam.Paired == 0 || aread.Flags&sam.MateUnmapped != 0 {
				return nil
			}
			areadM, ok := pending[aread.Name]
			if !ok {
				pending[aread.Name] = aread
				return nil
			}
			delete(pending, aread.Name)
			if aread.Flags&sam.Read1 != 0 {
				areads = []*sam.Record{aread, areadM}
			} else {
				areads = []*sam.Record{areadM, aread}
			}
			// Cross-chromosome pairs are not reconcilable.
			if areads[0].Ref.Name() != areads[1].Ref.Name() {
				return nil
			}
		} else {
			areads = []*sam.Record{aread}
		}
		chrom := areads[0].Ref.Name()
		if areads[0].Ref.Len() <= 0 && !warned.Has(chrom) {
			warned.Add(chrom)
			fmt.Fprintf(os.Stderr, "Warning: %s: unknown length for chromosome %s\n", pathBAM.Path, chrom)
		}
		res, cerr := clf.Classify(areads)
		if cerr != nil {
			return cerr
		}
		stats.Add(res)
		if res.NonStandardChrom {
			return nil
		}
		if res.Mask != 0 {
			for _, r := range areads {
				if werr := bw.Write(r); werr != nil {
					return werr
				}
			}
		}
		if classWriter != nil {
			_, werr := fmt.Fprintf(classWriter, "%s\t%s\t%d\t%s\t%d\n", areads[0].Name, chrom, areads[0].Pos, res.Mask.Codes(), res.FragmentLength)
			if werr != nil {
				return werr
			}
		}
		return nil
	}

	// Loop over reads in bounded chunks
	chunk := make([]*sam.Record, 0, chunkSize)
	var done bool
	for !done {
		chunk = chunk[:0]
		for len(chunk) < chunkSize {
			aread, rerr := rr.Read()
			if rerr == io.EOF {
				done = true
				break
			} else if rerr != nil {
				return stats, fmt.Errorf("%s: %w", pathBAM.Path, rerr)
			}
			chunk = append(chunk, aread)
		}
		for _, aread := range chunk {
			if perr := processRecord(aread); perr != nil {
				return stats, fmt.Errorf("%s: %w", pathBAM.Path, perr)
			}
		}
		if opts.Progress != nil {
			total := atomic.AddUint64(opts.Progress, uint64(len(chunk)))
			if opts.VerboseLevel > 0 {
				timeNow := time.Now()
				if timeNow.Sub(timeLog).Minutes() > 1. {
					fmt.Printf("%.1fmin - %s align. - %.2f Ma/hr\n", timeNow.Sub(opts.TimeStart).Minutes(), AddCommas(strconv.FormatUint(total, 10)), (float64(total)/timeNow.Sub(opts.TimeStart).Hours())/1000000.)
					timeLog = timeNow
				}
			}
		}
	}
	// Mates never reconciled are excluded from counts by policy.

	if err = bw.Close(); err != nil {
		return stats, fmt.Errorf("%s: %w", pathBAM.Path, err)
	}
	if classWriter != nil {
		if err = classWriter.Close(); err != nil {
			return stats, fmt.Errorf("%s: %w", pathBAM.Path, err)
		}
	}
	return stats, nil
}
