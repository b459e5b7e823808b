package simhash

import (
	"hash/fnv"
	"math/bits"
	"strings"
	"unicode"
)

// Fingerprint computes a 64-bit SimHash of text. Tokens are lower-cased
// words with surrounding punctuation removed, each hashed with FNV-64a and
// accumulated into a signed bit vector.
func Fingerprint(text string) uint64 {
	words := tokens(text)
	if len(words) == 0 {
		return 0
	}

	var vector [64]int
	h := fnv.New64a()
	for _, word := range words {
		h.Reset()
		h.Write([]byte(word))
		hash := h.Sum64()

		for i := 0; i < 64; i++ {
			if hash&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fingerprint uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fingerprint |= 1 << uint(i)
		}
	}
	return fingerprint
}

func tokens(text string) []string {
	fields := strings.Fields(text)
	out := fields[:0]
	for _, f := range fields {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}

// Distance returns the Hamming distance between two SimHash fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Similar returns true if the Hamming distance between two fingerprints
// is less than or equal to the threshold.
func Similar(a, b uint64, threshold int) bool {
	return Distance(a, b) <= threshold
}

// Set is an append-only collection of fingerprints. It is not safe for
// concurrent use; callers hold their own lock.
type Set struct {
	prints []uint64
}

// Add records fp.
func (s *Set) Add(fp uint64) {
	s.prints = append(s.prints, fp)
}

// Near reports whether any recorded fingerprint is within threshold of fp.
// The zero fingerprint (empty text) never matches.
func (s *Set) Near(fp uint64, threshold int) bool {
	if fp == 0 {
		return false
	}
	for _, p := range s.prints {
		if Similar(p, fp, threshold) {
			return true
		}
	}
	return false
}

// Len returns the number of recorded fingerprints.
func (s *Set) Len() int {
	return len(s.prints)
}
