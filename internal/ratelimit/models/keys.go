package models

import (
	"fmt"
	"strings"
)

// Counter key prefixes. Kept short because every request touches these keys.
const (
	keyPrefixRate  = "rate"
	keyPrefixGuard = "auth:limit"
)

// RateKey builds the counter key for a partition within one window:
// rate:{partitionKey}:{windowID}. Window IDs come from the window package and
// contain only digits; the partition key is caller-supplied and sanitized.
func RateKey(partitionKey, windowID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefixRate, sanitizeKeySegment(partitionKey), windowID)
}

// GuardKey builds the brute-force guard key for auth endpoints:
// auth:limit:{clientIP}.
func GuardKey(clientIP string) string {
	return fmt.Sprintf("%s:%s", keyPrefixGuard, sanitizeKeySegment(clientIP))
}

// sanitizeKeySegment escapes delimiter characters in counter key segments
// to prevent key collision attacks where caller-controlled identifiers
// containing ':' could manipulate adjacent counters.
//
// Escape rules (order matters):
//  1. Escape '_' to '__' (escape the escape character first)
//  2. Escape ':' to '_c' (escape the delimiter)
//
// This ensures no two distinct inputs produce the same sanitized output.
func sanitizeKeySegment(s string) string {
	// Order matters: escape the escape character first
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}
