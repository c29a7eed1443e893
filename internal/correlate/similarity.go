package correlate

// Ratio is a normalized edit similarity over two strings: 1.0 for identical
// inputs, 0.0 for no common characters. It is the Ratcliff/Obershelp measure
// (2*matches / total length) as computed by difflib's SequenceMatcher, which
// is what the default 0.6 threshold was tuned against, with one correction:
// the raw recursion anchors its block choices on the first argument, so
// swapping arguments can change the count ("tide"/"diet" is such a pair).
// Ratio evaluates both directions and keeps the larger, making it symmetric.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	m := matchTotal(ar, br)
	if rev := matchTotal(br, ar); rev > m {
		m = rev
	}
	return 2.0 * float64(m) / float64(total)
}

// matchTotal sums the sizes of all matching blocks: the longest common
// substring, then recursively the pieces to its left and right.
func matchTotal(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchTotal(a[:ai], b[:bi]) +
		matchTotal(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest run a[ai:ai+size] == b[bi:bi+size],
// preferring the earliest occurrence in a, then in b.
func longestMatch(a, b []rune) (ai, bi, size int) {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	// j2len[j] is the length of the match ending at a[i-1], b[j].
	j2len := map[int]int{}
	for i, r := range a {
		next := map[int]int{}
		for _, j := range b2j[r] {
			k := j2len[j-1] + 1
			next[j] = k
			if k > size {
				ai, bi, size = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return ai, bi, size
}
