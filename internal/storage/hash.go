package storage

import (
	"crypto/sha256"
	"fmt"
)

// HashText computes the content address of a chunk: the SHA256 digest of
// its text as a lowercase hex string. The sync pipeline uses the same
// digest for disk-side hashes so the two sets are directly comparable.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}
