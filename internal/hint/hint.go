// Package hint generates short keyboard labels for on-screen targets,
// in the style of browser link-hint extensions.
package hint

import (
	"fmt"
)

// Allocator produces hint labels over a fixed alphabet. Labels are assigned
// by ordinal: the first k targets get single-character labels, later targets
// get progressively longer ones. The mapping is deterministic for a given
// alphabet.
type Allocator struct {
	alphabet []rune
}

// NewAllocator creates an Allocator over the given alphabet. The alphabet
// must contain at least two distinct characters; label generation over a
// single character would never terminate usefully.
func NewAllocator(alphabet string) (*Allocator, error) {
	runes := []rune(alphabet)
	seen := make(map[rune]bool, len(runes))
	for _, r := range runes {
		if seen[r] {
			return nil, fmt.Errorf("hint alphabet %q repeats %q", alphabet, string(r))
		}
		seen[r] = true
	}
	if len(runes) < 2 {
		return nil, fmt.Errorf("hint alphabet %q needs at least 2 distinct characters", alphabet)
	}
	return &Allocator{alphabet: runes}, nil
}

// Label returns the label for ordinal i (0-based) using bijective base-k
// numbering over the alphabet: with alphabet "ab", ordinals 0, 1, 2, 3 map
// to "a", "b", "aa", "ab".
func (a *Allocator) Label(i int) string {
	k := len(a.alphabet)
	var out []rune
	m := i
	for m >= 0 {
		out = append(out, a.alphabet[m%k])
		m = m/k - 1
	}
	// Digits come out least-significant first
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return string(out)
}

// Assign returns labels for n targets, in ordinal order.
func (a *Allocator) Assign(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = a.Label(i)
	}
	return labels
}

// Match reports the index of the target whose label exactly equals input,
// or -1 when nothing matches. Prefixes of longer labels do not match.
func Match(labels []string, input string) int {
	for i, l := range labels {
		if l == input {
			return i
		}
	}
	return -1
}
