// Copyright 2026 The Governance Hub Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash computes content digests for uploaded schedule
// files. The digest recorded on a version lets operators spot
// duplicate uploads and verify that a retained blob still matches
// what was imported.
package binhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashBytes computes the SHA-256 digest of data. Uploads arrive as
// in-memory byte slices from the upload surface, so there is no
// streaming variant.
func HashBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// FormatDigest returns the hex-encoded string representation of a
// digest. This is the canonical form stored on version records and
// shown in log output.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}

// ParseDigest parses a hex-encoded digest string into a 32-byte
// array. Returns an error if the string is not a valid 64-character
// hex encoding of 32 bytes.
func ParseDigest(hexString string) ([32]byte, error) {
	var digest [32]byte
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return digest, fmt.Errorf("parsing digest: %w", err)
	}
	if len(decoded) != 32 {
		return digest, fmt.Errorf("digest is %d bytes, want 32", len(decoded))
	}
	copy(digest[:], decoded)
	return digest, nil
}
