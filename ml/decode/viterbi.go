package decode

import "math"

var impossibleWeight = math.Inf(-1)

// Mask restricts label transitions of a sequence. Nil fields allow everything.
type Mask struct {
	Start []bool
	Trans [][]bool
	End   []bool
}

func (mask *Mask) start(l int) bool {
	return mask == nil || mask.Start == nil || mask.Start[l]
}

func (mask *Mask) trans(prev, cur int) bool {
	return mask == nil || mask.Trans == nil || mask.Trans[prev][cur]
}

func (mask *Mask) end(l int) bool {
	return mask == nil || mask.End == nil || mask.End[l]
}

func allowedAt(allowed [][]bool, i, l int) bool {
	return allowed == nil || allowed[i] == nil || allowed[i][l]
}

// Viterbi finds the best label sequence. transitions has one row per label plus
// a final start row and may be nil. allowed fixes the labels of single positions.
// When the constraints leave no path the mask is dropped, then the constraints.
func Viterbi(emissions [][]float64, transitions [][]float64, mask *Mask, allowed [][]bool) []int {
	if len(emissions) == 0 {
		return []int{}
	}
	if path, ok := viterbi(emissions, transitions, mask, allowed); ok {
		return path
	}
	if path, ok := viterbi(emissions, transitions, nil, allowed); ok {
		return path
	}
	path, _ := viterbi(emissions, transitions, nil, nil)
	return path
}

func viterbi(emissions [][]float64, transitions [][]float64, mask *Mask, allowed [][]bool) ([]int, bool) {
	n := len(emissions)
	labels := len(emissions[0])
	trans := func(prev, cur int) float64 {
		if transitions == nil {
			return 0
		}
		if prev < 0 {
			return transitions[labels][cur]
		}
		return transitions[prev][cur]
	}

	delta := make([][]float64, n)
	back := make([][]int, n)
	for i := range delta {
		delta[i] = make([]float64, labels)
		back[i] = make([]int, labels)
	}

	for l := 0; l < labels; l++ {
		delta[0][l] = impossibleWeight
		if mask.start(l) && allowedAt(allowed, 0, l) {
			delta[0][l] = emissions[0][l] + trans(-1, l)
		}
	}

	for i := 1; i < n; i++ {
		for cur := 0; cur < labels; cur++ {
			delta[i][cur] = impossibleWeight
			back[i][cur] = -1
			if !allowedAt(allowed, i, cur) {
				continue
			}
			for prev := 0; prev < labels; prev++ {
				if delta[i-1][prev] == impossibleWeight || !mask.trans(prev, cur) {
					continue
				}
				weight := delta[i-1][prev] + trans(prev, cur) + emissions[i][cur]
				if weight > delta[i][cur] || back[i][cur] < 0 {
					delta[i][cur] = weight
					back[i][cur] = prev
				}
			}
		}
	}

	best, bestScore := -1, impossibleWeight
	for l := 0; l < labels; l++ {
		if delta[n-1][l] == impossibleWeight || !mask.end(l) {
			continue
		}
		if best < 0 || delta[n-1][l] > bestScore {
			best, bestScore = l, delta[n-1][l]
		}
	}
	if best < 0 {
		return nil, false
	}

	path := make([]int, n)
	path[n-1] = best
	for i := n - 1; i > 0; i-- {
		path[i-1] = back[i][path[i]]
	}
	return path, true
}

// Argmax returns the best allowed index, or the best overall when none is allowed.
func Argmax(scores []float64, allowed []bool) int {
	best := -1
	for i, s := range scores {
		if allowed != nil && !allowed[i] {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 && allowed != nil {
		return Argmax(scores, nil)
	}
	return best
}

// Greedy decodes every position independently.
func Greedy(emissions [][]float64, allowed [][]bool) []int {
	path := make([]int, len(emissions))
	for i, scores := range emissions {
		var row []bool
		if allowed != nil {
			row = allowed[i]
		}
		path[i] = Argmax(scores, row)
	}
	return path
}
