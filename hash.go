package corpus

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes computes the content hash used for deduplication: SHA-256 of the
// encoded payload, rendered as 64 lowercase hex characters. Payloads are
// hashed after a full encode; there is no streaming variant.
func HashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
