package sequence

// EditDistance returns the Levenshtein distance between a and b with unit
// substitution, insertion and deletion costs.
//
// Algorithm: the classic DP D[i][j] = min(D[i-1][j]+1, D[i][j-1]+1,
// D[i-1][j-1]+[a_i≠b_j]) kept in two rolling rows over the shorter input.
//
// Complexity: O(n·m) time, O(min(n,m)) memory.
func EditDistance(a, b []byte) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	m := len(b)
	if m == 0 {
		return len(a)
	}
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
