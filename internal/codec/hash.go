package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashWithDomain computes a SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data), hex encoded.
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashObj canonically marshals obj and hashes it under the given domain.
// The same logical object always produces the same hash, on every replica.
func HashObj(domain string, obj Obj) (string, error) {
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashWithDomain(domain, canonical), nil
}

// MustHashObj is like HashObj but panics on error. Use only when the
// object is statically known to contain canonical-safe values.
func MustHashObj(domain string, obj Obj) string {
	sum, err := HashObj(domain, obj)
	if err != nil {
		panic(err)
	}
	return sum
}
