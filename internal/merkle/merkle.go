// Package merkle computes deterministic Merkle roots over ordered sets of
// hex-encoded leaf digests.
//
// Adjacent leaves are combined bottom-up with SHA-256 over the concatenation
// of their hex forms. An unpaired trailing leaf is promoted unchanged to the
// next level, so the root is defined for any leaf count. A single leaf is its
// own root; an empty input yields the empty string.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// Root returns the Merkle root of leaves in the given order.
// Leaf order is significant: permuting the input generally changes the root.
func Root(leaves []string) string {
	switch len(leaves) {
	case 0:
		return ""
	case 1:
		return leaves[0]
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, combine(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			// Odd node: promote unchanged.
			next = append(next, level[len(level)-1])
		}
		level = next
	}
	return level[0]
}

// combine hashes the concatenation of two hex-encoded digests.
func combine(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}
