package decode

const (
	left  = 0
	right = 1
)

// Eisner returns the projective tree maximizing the sum of arc scores.
// scores[h][d] scores the arc h -> d over nodes 0..n where 0 is the root.
// The root takes exactly one dependent. heads[0] is -1.
func Eisner(scores [][]float64) []int {
	size := len(scores)
	heads := make([]int, size)
	if size == 0 {
		return heads
	}
	heads[0] = -1
	n := size - 1
	if n == 0 {
		return heads
	}

	// tables over words 1..n
	complete := newTable(size)
	incomplete := newTable(size)
	completeBack := newBackTable(size)
	incompleteBack := newBackTable(size)

	for k := 1; k < n; k++ {
		for s := 1; s+k <= n; s++ {
			t := s + k

			best, arg := impossibleWeight, s
			for r := s; r < t; r++ {
				v := complete[s][r][right] + complete[r+1][t][left]
				if v > best {
					best, arg = v, r
				}
			}
			incomplete[s][t][left] = best + scores[t][s]
			incomplete[s][t][right] = best + scores[s][t]
			incompleteBack[s][t][left] = arg
			incompleteBack[s][t][right] = arg

			best, arg = impossibleWeight, s
			for r := s; r < t; r++ {
				v := complete[s][r][left] + incomplete[r][t][left]
				if v > best {
					best, arg = v, r
				}
			}
			complete[s][t][left] = best
			completeBack[s][t][left] = arg

			best, arg = impossibleWeight, t
			for r := s + 1; r <= t; r++ {
				v := incomplete[s][r][right] + complete[r][t][right]
				if v > best {
					best, arg = v, r
				}
			}
			complete[s][t][right] = best
			completeBack[s][t][right] = arg
		}
	}

	root, rootScore := 1, impossibleWeight
	for r := 1; r <= n; r++ {
		v := scores[0][r] + complete[1][r][left] + complete[r][n][right]
		if v > rootScore {
			root, rootScore = r, v
		}
	}

	var backComplete, backIncomplete func(s, t, dir int)
	backComplete = func(s, t, dir int) {
		if s == t {
			return
		}
		r := completeBack[s][t][dir]
		if dir == left {
			backComplete(s, r, left)
			backIncomplete(r, t, left)
			return
		}
		backIncomplete(s, r, right)
		backComplete(r, t, right)
	}
	backIncomplete = func(s, t, dir int) {
		if dir == left {
			heads[s] = t
		} else {
			heads[t] = s
		}
		r := incompleteBack[s][t][dir]
		backComplete(s, r, right)
		backComplete(r+1, t, left)
	}

	heads[root] = 0
	backComplete(1, root, left)
	backComplete(root, n, right)
	return heads
}

func newTable(size int) [][][2]float64 {
	table := make([][][2]float64, size)
	for i := range table {
		table[i] = make([][2]float64, size)
	}
	return table
}

func newBackTable(size int) [][][2]int {
	table := make([][][2]int, size)
	for i := range table {
		table[i] = make([][2]int, size)
	}
	return table
}
