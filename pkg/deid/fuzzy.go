package deid

// resolveKey matches a new normalized key against the canonical keys already
// seen for the same entity type. Near-duplicate spellings ("Kranti" vs
// "Kranthi") collapse to the earliest-seen key; anything farther than the
// length-proportional threshold starts a new identity. existingKeys must be in
// insertion order so that exact-distance ties resolve first-seen-wins.
func resolveKey(newKey string, existingKeys []string) string {
	if newKey == "" {
		return ""
	}

	best := newKey
	bestDist := -1
	for _, key := range existingKeys {
		if key == newKey {
			return key
		}
		limit := editThreshold(newKey, key)
		dist := boundedLevenshtein(newKey, key, limit)
		if dist < 0 {
			continue
		}
		if bestDist < 0 || dist < bestDist {
			best = key
			bestDist = dist
		}
	}
	return best
}

// editThreshold is the maximum edit distance at which two keys are still
// considered the same identity: max(1, len/6) over the longer key.
func editThreshold(a, b string) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	t := n / 6
	if t < 1 {
		t = 1
	}
	return t
}

// boundedLevenshtein returns the edit distance between a and b, or -1 as soon
// as the distance is guaranteed to exceed limit. The early exit keeps cost
// linear in practice for non-matching keys.
func boundedLevenshtein(a, b string, limit int) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)

	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	if diff > limit {
		return -1
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost

			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
			if min < rowMin {
				rowMin = min
			}
		}
		if rowMin > limit {
			return -1
		}
		prev, curr = curr, prev
	}

	if prev[lb] > limit {
		return -1
	}
	return prev[lb]
}
