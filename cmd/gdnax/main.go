//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/fatih/set.v0"

	"github.com/functionalgenomics/gDNAx/lib/annot"
	"github.com/functionalgenomics/gDNAx/lib/classify"
	"github.com/functionalgenomics/gDNAx/lib/ebam"
	"github.com/functionalgenomics/gDNAx/lib/filterbam"
)

var version = "DEV"

func parseStrand(strandRaw string) int8 {
	if strandRaw == "+" || strandRaw == "1" || strandRaw == "+1" {
		return 1
	}
	if strandRaw == "-" || strandRaw == "-1" {
		return -1
	}
	return 0
}

func main() {
	// Arguments: General
	var pathReport string
	var nWorker, verboseLevel int
	var verbose, printVersion bool
	flag.StringVar(&pathReport, "path_report", "", "Write report to path (stdout with -)")
	flag.IntVar(&nWorker, "num_worker", 1, "Number of worker(s), i.e. BAM file(s) processed in parallel")
	flag.IntVar(&verboseLevel, "verbose_level", 0, "Verbose level")
	flag.BoolVar(&verbose, "verbose", false, "Verbose")
	flag.BoolVar(&printVersion, "version", false, "Print version and quit")
	// Arguments: Input
	var pathBAMsRaw, libraryR1StrandRaw, standardChromsRaw string
	var paired bool
	flag.StringVar(&pathBAMsRaw, "path_bam", "", "Path to BAM file(s) (comma separated)")
	flag.StringVar(&libraryR1StrandRaw, "read_strand", "", "Read 1 strand, i.e. + (+1) or - (-1) or unstranded if empty")
	flag.StringVar(&standardChromsRaw, "standard_chrom", "", "Standard chromosome(s) (comma separated); alignments on other chromosomes are counted apart and discarded")
	flag.BoolVar(&paired, "paired", false, "Pair-end sequencing")
	// Arguments: Annotation
	var pathTranscripts, pathIntrons, pathIntergenic, pathTx2Gene string
	var fonName, fonGene, fonChrom, fonStrand, fonCoords, fonCoordsRegion string
	flag.StringVar(&pathTranscripts, "path_transcripts", "", "Path to transcript features file (FON)")
	flag.StringVar(&pathIntrons, "path_introns", "", "Path to intronic features file (FON)")
	flag.StringVar(&pathIntergenic, "path_intergenic", "", "Path to intergenic features file (FON)")
	flag.StringVar(&pathTx2Gene, "path_tx2gene", "", "Path to transcript-to-gene mapping (tabulated file)")
	flag.StringVar(&fonName, "fon_name", "transcript_stable_id", "FON key for transcript name")
	flag.StringVar(&fonGene, "fon_gene", "gene_stable_id", "FON key for gene name")
	flag.StringVar(&fonChrom, "fon_chrom", "chrom", "FON key for chromosome")
	flag.StringVar(&fonStrand, "fon_strand", "strand", "FON key for strand")
	flag.StringVar(&fonCoords, "fon_coords", "exons", "FON key for transcript coordinates")
	flag.StringVar(&fonCoordsRegion, "fon_coords_region", "coords", "FON key for intronic/intergenic coordinates")
	// Arguments: Categories
	var isIntergenic, isIntronic, isSCJ, isSCE bool
	flag.BoolVar(&isIntergenic, "intergenic", false, "Keep intergenic alignments (IGC)")
	flag.BoolVar(&isIntronic, "intronic", false, "Keep intronic alignments (INT)")
	flag.BoolVar(&isSCJ, "scj", false, "Keep splice-compatible junction alignments (SCJ)")
	flag.BoolVar(&isSCE, "sce", false, "Keep splice-compatible exonic alignments (SCE)")
	// Arguments: Output
	var pathOutDir, pathCounts, classFormat string
	var chunkSize int
	flag.StringVar(&pathOutDir, "path_out_dir", ".", "Directory for filtered BAM output(s)")
	flag.StringVar(&pathCounts, "path_counts", "counts.tsv", "Path to per-file counts output")
	flag.StringVar(&classFormat, "class_format", "", "Per-alignment classification table format: 'tsv' or 'tsv+lz4' (default none)")
	flag.IntVar(&chunkSize, "chunk_size", 10000, "Number of alignments read per chunk")
	// Arguments: Parse
	flag.Parse()

	// Version
	if printVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Verbose
	if verbose && verboseLevel == 0 {
		verboseLevel = 1
	}

	// Max CPU
	runtime.GOMAXPROCS(nWorker * 2)

	// Time start
	timeStart := time.Now()

	// Categories: explicit bitwise-OR of the requested flags
	var categories classify.Category
	if isIntergenic {
		categories |= classify.Intergenic
	}
	if isIntronic {
		categories |= classify.Intronic
	}
	if isSCJ {
		categories |= classify.SpliceCompatibleJunction
	}
	if isSCE {
		categories |= classify.SpliceCompatibleExonic
	}
	if categories == 0 {
		log.Fatal("No category requested (see intergenic, intronic, scj and sce options)")
	}

	// Check arguments
	for _, p := range []struct{ path, name string }{
		{pathTranscripts, "Transcript"},
		{pathIntrons, "Intron"},
		{pathIntergenic, "Intergenic"},
	} {
		if len(p.path) == 0 {
			log.Fatalf("No %s feature input", p.name)
		} else if _, err := os.Stat(p.path); os.IsNotExist(err) {
			log.Fatalln(p.path, "not found")
		}
	}
	if info, err := os.Stat(pathOutDir); err != nil || !info.IsDir() {
		log.Fatalln(pathOutDir, "is not a directory")
	}

	// Parse raw arguments
	// pathBAMs
	var pathBAMs []ebam.PathBAM
	if len(pathBAMsRaw) > 0 {
		for _, p := range strings.Split(pathBAMsRaw, ",") {
			if _, err := os.Stat(p); os.IsNotExist(err) {
				log.Fatalln(p, "not found")
			} else {
				pathBAMs = append(pathBAMs, ebam.PathBAM{Path: p})
			}
		}
	}
	if len(pathBAMs) == 0 {
		log.Fatal("No BAM input")
	}
	// libraryR1Strand
	libraryR1Strand := parseStrand(libraryR1StrandRaw)
	// standardChroms
	var standardChroms set.Interface
	if len(standardChromsRaw) > 0 {
		standardChroms = set.New(set.NonThreadSafe)
		for _, chrom := range strings.Split(standardChromsRaw, ",") {
			standardChroms.Add(chrom)
		}
	}

	// Open tx2gene mapping
	var tx2gene annot.Tx2Gene
	var err error
	if pathTx2Gene != "" {
		tx2gene, err = annot.OpenTx2Gene(pathTx2Gene)
		if err != nil {
			log.Fatal(err)
		}
	}

	// Open annotation
	if verboseLevel > 0 {
		timeNow := time.Now()
		fmt.Printf("%.1fmin - Opening annotation\n", timeNow.Sub(timeStart).Minutes())
	}
	txs, err := annot.OpenTranscriptFON(pathTranscripts, fonName, fonGene, fonChrom, fonStrand, fonCoords, tx2gene)
	if err != nil {
		log.Fatal(err)
	}
	intronRegions, err := annot.OpenRegionFON(pathIntrons, fonGene, fonChrom, fonStrand, fonCoordsRegion)
	if err != nil {
		log.Fatal(err)
	}
	intergenicRegions, err := annot.OpenRegionFON(pathIntergenic, fonGene, fonChrom, fonStrand, fonCoordsRegion)
	if err != nil {
		log.Fatal(err)
	}

	// Build annotation sets
	txSet, err := annot.BuildTxSet(txs)
	if err != nil {
		log.Fatal(err)
	}
	intronSet, err := annot.BuildSet(intronRegions)
	if err != nil {
		log.Fatal(err)
	}
	intergenicSet, err := annot.BuildSet(intergenicRegions)
	if err != nil {
		log.Fatal(err)
	}

	// Classifier
	clf, err := classify.New(classify.Config{
		Categories:      categories,
		Paired:          paired,
		LibraryR1Strand: libraryR1Strand,
		StandardChroms:  standardChroms,
	}, intergenicSet, intronSet, txSet)
	if err != nil {
		log.Fatal(err)
	}

	// Filter alignments
	var nAlign uint64
	results, err := filterbam.RunBatch(clf, pathBAMs, filterbam.Options{
		Paired:       paired,
		ChunkSize:    chunkSize,
		OutDir:       pathOutDir,
		ClassFormat:  classFormat,
		Progress:     &nAlign,
		TimeStart:    timeStart,
		VerboseLevel: verboseLevel,
	}, nWorker)
	if err != nil {
		log.Fatal(err)
	}

	// Output: Counts
	if err = WriteCounts(pathCounts, results, categories); err != nil {
		log.Fatal(err)
	}
	// Output: Report
	if pathReport != "" {
		if err = WriteReport(pathReport, results, categories); err != nil {
			log.Fatal(err)
		}
	}

	// Per-file errors
	nFailed := 0
	for _, res := range results {
		if res.Err != nil {
			nFailed++
			fmt.Fprintln(os.Stderr, "Error:", res.Err)
		}
	}

	// Verbose
	if verboseLevel > 0 {
		timeEnd := time.Now()
		fmt.Printf("%.1fmin - Done %d align.\n", timeEnd.Sub(timeStart).Minutes(), nAlign)
	}
	if nFailed > 0 {
		os.Exit(1)
	}
}
