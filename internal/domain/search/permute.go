package search

// permute calls visit once for every permutation of items using Heap's
// algorithm. items is permuted in place; visit must not retain the slice.
// An empty input yields exactly one (empty) permutation.
func permute(items []int, visit func([]int)) {
	n := len(items)
	visit(items)
	if n < 2 {
		return
	}
	state := make([]int, n)
	for i := 0; i < n; {
		if state[i] < i {
			if i&1 == 0 {
				items[0], items[i] = items[i], items[0]
			} else {
				items[state[i]], items[i] = items[i], items[state[i]]
			}
			visit(items)
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
}
