// Package codec provides the deterministic serialization and hashing
// primitives that identity derivation and state digests are built on.
//
// Every replica must compute byte-identical encodings for the same logical
// values, so the package implements an RFC 8785 canonical JSON subset:
// UTF-16 code-unit key ordering, NFC string normalization, no floats, no
// null, and no HTML escaping. Content-addressed identifiers are SHA-256
// hashes over that canonical form with a domain-separation prefix.
package codec
