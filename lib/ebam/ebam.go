//
// Copyright (C) 2024 The gDNAx Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package ebam

import (
	"os"

	"github.com/biogo/hts/bam"
)

// PathBAM stores the path to a BAM file.
type PathBAM struct {
	Path string
}

// OpenBAM opens a BAM file for reading with nReader decompression goroutine(s).
// The caller is responsible for closing the returned file.
func OpenBAM(pathBAM PathBAM, nReader int) (f *os.File, rr *bam.Reader, err error) {
	f, err = os.Open(pathBAM.Path)
	if err != nil {
		return f, rr, err
	}
	rr, err = bam.NewReader(f, nReader)
	return f, rr, err
}
