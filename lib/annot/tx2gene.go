//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package annot

import (
	"bufio"
	"strings"
)

// Tx2Gene maps transcript identifiers to gene identifiers.
type Tx2Gene map[string]string

// OpenTx2Gene parses a two-column tabulated file (transcript, gene).
func OpenTx2Gene(mpath string) (Tx2Gene, error) {
	m := make(Tx2Gene)

	mfos, err := openAnnot(mpath)
	if err != nil {
		return m, err
	}
	defer mfos.Close()

	tscanner := bufio.NewScanner(mfos)
	for tscanner.Scan() {
		fields := strings.Split(tscanner.Text(), "\t")
		if len(fields) < 2 {
			continue
		}
		m[fields[0]] = fields[1]
	}
	if err := tscanner.Err(); err != nil {
		return m, err
	}
	return m, nil
}

// Gene returns the gene of a transcript, falling back to the transcript
// name itself when the mapping has no entry.
func (m Tx2Gene) Gene(tx string) string {
	if m != nil {
		if g, ok := m[tx]; ok {
			return g
		}
	}
	return tx
}
