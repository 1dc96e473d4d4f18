// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the standard CBOR encoding used for stored
// blobs: per-version summaries, resource name lists, and any other
// variable-shape column in the ledger database.
//
// Encoding is Core Deterministic (RFC 8949 §4.2): the same logical
// data always produces identical bytes, which keeps stored summary
// blobs byte-comparable across re-encodes.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Stored blobs only ever use string map keys. When decoding
		// into an any-typed target, produce map[string]any rather
		// than the CBOR default map[any]any.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v. Unknown fields are ignored for
// forward compatibility.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
