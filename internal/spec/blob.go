// SPDX-License-Identifier: MPL-2.0

package spec

import (
	_ "embed"
	"fmt"

	"previewd/pkg/cueutil"
)

//go:embed spec_schema.cue
var specSchema string

// ParseCachedBlob validates a cached JSON spec blob against the embedded CUE
// schema and decodes it. Callers treat any error as a cache miss: the blob is
// discarded and the spec is re-detected.
func ParseCachedBlob(blob []byte) (*PreviewSpec, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty spec blob")
	}

	result, err := cueutil.ParseAndDecodeString[PreviewSpec](
		specSchema,
		blob,
		"#PreviewSpec",
		cueutil.WithFilename("cached spec"),
	)
	if err != nil {
		return nil, err
	}

	s := result.Value
	s.Normalize()
	return s, nil
}
