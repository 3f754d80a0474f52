// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package evidence

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// digestKey is the BLAKE3 key for input digests: the ASCII domain name
// zero-padded to 32 bytes. Changing it changes every recorded digest.
var digestKey = [32]byte{
	't', 'e', 'r', 'm', 'd', 'r', 'i', 'f', 't', '.', 'e', 'v', 'i', 'd', 'e', 'n',
	'c', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Digest returns the hex BLAKE3 keyed digest of an input file's bytes.
func Digest(data []byte) string {
	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		// Only a wrong key length fails, and the key is a fixed array.
		panic("evidence: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
