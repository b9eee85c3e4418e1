// Package room derives the realtime routing key for a chatting pair.
package room

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// SortedPair orders two user ids lexicographically.
func SortedPair(userA, userB string) (string, string) {
	if userB < userA {
		return userB, userA
	}
	return userA, userB
}

// canonical length-prefixes each id so no pair of ids can serialize to the
// same string as another pair, whatever characters the ids contain.
func canonical(low, high string) string {
	return fmt.Sprintf("%d:%s|%d:%s", len(low), low, len(high), high)
}

// ID returns the room identifier for an unordered user pair: the hex SHA-256
// of the canonical form of the sorted ids. It is symmetric and stable across restarts.
func ID(userA, userB string) string {
	low, high := SortedPair(userA, userB)
	sum := sha256.Sum256([]byte(canonical(low, high)))
	return hex.EncodeToString(sum[:])
}
