//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package annot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type zstReadCloser struct {
	io.Reader
	dec *zstd.Decoder
	f   *os.File
}

func (z zstReadCloser) Close() error {
	z.dec.Close()
	return z.f.Close()
}

// openAnnot opens an annotation file, decompressing transparently when the
// path ends in .zst.
func openAnnot(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return zstReadCloser{Reader: dec, dec: dec, f: f}, nil
	}
	return f, nil
}

func parseFON(r io.Reader, path string) ([]map[string]interface{}, error) {
	d := json.NewDecoder(r)
	d.UseNumber()
	var rawFON interface{}
	if err := d.Decode(&rawFON); err != nil {
		return nil, fmt.Errorf("error while parsing JSON feature file %s", path)
	}

	// FON
	fon := rawFON.(map[string]interface{})

	// FON version
	version, err := fon["fon_version"].(json.Number).Int64()
	if err != nil {
		return nil, err
	} else if version != 1 {
		return nil, fmt.Errorf("unknown FON version %d", version)
	}

	rawFeatures := fon["features"].([]interface{})
	features := make([]map[string]interface{}, len(rawFeatures))
	for i, rf := range rawFeatures {
		features[i] = rf.(map[string]interface{})
	}
	return features, nil
}

func parseFONStrand(mf map[string]interface{}, fonStrand string) int8 {
	var istrand int8
	if raw, ok := mf[fonStrand]; ok {
		strand := raw.(string)
		if strand == "+" {
			istrand = 1
		} else if strand == "-" {
			istrand = -1
		}
	}
	return istrand
}

func parseFONCoords(mf map[string]interface{}, fonCoords string) ([][2]int, error) {
	raw, ok := mf[fonCoords].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing coordinates key %q", fonCoords)
	}
	coords := make([][2]int, len(raw))
	for j, cj := range raw {
		for k, ck := range cj.([]interface{}) {
			n, err := ck.(json.Number).Int64()
			if err != nil {
				return nil, err
			}
			coords[j][k] = int(n)
		}
	}
	return coords, nil
}

// OpenRegionFON parses a "Feature Object Notation" file and returns each
// coordinate pair of each feature as a Region. The gene key is optional:
// features without it produce strand-tagged but gene-less regions.
func OpenRegionFON(path, fonGene, fonChrom, fonStrand, fonCoords string) (regions []Region, err error) {
	r, err := openAnnot(path)
	if err != nil {
		return
	}
	defer r.Close()

	features, err := parseFON(r, path)
	if err != nil {
		return
	}
	for _, mf := range features {
		var gene string
		if raw, ok := mf[fonGene]; ok {
			gene = raw.(string)
		}
		istrand := parseFONStrand(mf, fonStrand)
		chrom := mf[fonChrom].(string)
		var coords [][2]int
		if coords, err = parseFONCoords(mf, fonCoords); err != nil {
			return
		}
		for _, c := range coords {
			regions = append(regions, Region{Chrom: chrom, Start: c[0], End: c[1], Strand: istrand, Gene: gene})
		}
	}
	return
}

// OpenTranscriptFON parses a FON file into transcript models. The gene of
// each transcript comes from the gene key when present, then from tx2gene,
// falling back to the transcript name.
func OpenTranscriptFON(path, fonName, fonGene, fonChrom, fonStrand, fonCoords string, tx2gene Tx2Gene) (txs []*Transcript, err error) {
	r, err := openAnnot(path)
	if err != nil {
		return
	}
	defer r.Close()

	features, err := parseFON(r, path)
	if err != nil {
		return
	}
	for _, mf := range features {
		name := mf[fonName].(string)
		gene := ""
		if raw, ok := mf[fonGene]; ok {
			gene = raw.(string)
		}
		if gene == "" {
			gene = tx2gene.Gene(name)
		}
		istrand := parseFONStrand(mf, fonStrand)
		chrom := mf[fonChrom].(string)
		var coords [][2]int
		if coords, err = parseFONCoords(mf, fonCoords); err != nil {
			return
		}
		exons := make([]Exon, len(coords))
		for i, c := range coords {
			exons[i] = Exon{Start: c[0], End: c[1]}
		}
		txs = append(txs, NewTranscript(name, gene, chrom, istrand, exons))
	}
	return
}
