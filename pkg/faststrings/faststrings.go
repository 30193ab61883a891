// Package faststrings provides allocation-free byte search helpers shared by
// the XML lexers.
//
// Sets are byte sets. XML delimiters are ASCII, so a set never matches part of
// a multi-byte UTF-8 sequence.
package faststrings

import "bytes"

type byteSet [4]uint64

func makeSet(set []byte) byteSet {
	var s byteSet
	for _, b := range set {
		s[b>>6] |= 1 << (b & 63)
	}
	return s
}

func (s *byteSet) has(b byte) bool {
	return s[b>>6]&(1<<(b&63)) != 0
}

// Equal reports whether a and b hold the same bytes.
func Equal(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// IndexOf returns the index of the first needle in haystack, or -1.
func IndexOf(haystack []byte, needle byte) int {
	return bytes.IndexByte(haystack, needle)
}

// IndexOfAny returns the index of the first byte of haystack that belongs to
// set, or -1. An empty set never matches.
func IndexOfAny(haystack, set []byte) int {
	switch len(set) {
	case 0:
		return -1
	case 1:
		return bytes.IndexByte(haystack, set[0])
	}
	s := makeSet(set)
	for i, b := range haystack {
		if s.has(b) {
			return i
		}
	}
	return -1
}

// IndexOfNeither returns the index of the first byte of haystack that does not
// belong to set, or -1. An empty set returns -1.
func IndexOfNeither(haystack, set []byte) int {
	if len(set) == 0 {
		return -1
	}
	s := makeSet(set)
	for i, b := range haystack {
		if !s.has(b) {
			return i
		}
	}
	return -1
}

// IndexOfString returns the index of the first occurrence of needle, or -1.
// An empty needle returns -1.
func IndexOfString(haystack, needle []byte) int {
	if len(needle) == 0 {
		return -1
	}
	return bytes.Index(haystack, needle)
}
