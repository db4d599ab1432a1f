package types

import "github.com/ethereum/go-ethereum/common"

// Address identifies an already-authenticated principal. The platform never
// verifies signatures itself; callers arrive verified by the host runtime.
type Address = common.Address

// Hash is a 32-byte content-addressed digest. Only digests are stored on the
// ledger; the media they name lives off-band.
type Hash = common.Hash

// ZeroHash is the cleared/absent digest value.
var ZeroHash = common.Hash{}
