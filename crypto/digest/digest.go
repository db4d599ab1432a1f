// Package digest computes the 32-byte content-addressed digests stored on the
// ledger. The platform itself never sees media bytes; this helper exists for
// clients and the RPC layer when a caller submits raw payloads instead of
// precomputed hashes.
package digest

import (
	"lukechampine.com/blake3"

	"crowdledger/core/types"
)

// Sum returns the BLAKE3 digest of the payload.
func Sum(payload []byte) types.Hash {
	return types.Hash(blake3.Sum256(payload))
}
