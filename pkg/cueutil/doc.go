// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE parsing utilities.
//
// The package consolidates the 3-step CUE parsing pattern used for schema
// validation of preview specs and cached spec blobs:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify with schema
//  3. Validate and decode to Go struct
//
// JSON is a subset of CUE, so the same flow validates JSON cache blobs
// against an embedded CUE schema without a separate JSON-schema toolchain.
//
// # Usage
//
//	//go:embed spec_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[PreviewSpec](
//	    schemaBytes,
//	    cachedBlob,
//	    "#PreviewSpec",
//	    cueutil.WithFilename("cached spec"),
//	)
//	if err != nil {
//	    return nil, err  // Error includes CUE path for debugging
//	}
//	return result.Value, nil
package cueutil
