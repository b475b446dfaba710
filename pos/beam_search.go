package pos

import (
	"container/heap"
	"sort"

	"ltp.dev/ltpgo/ml/perceptron"
	"ltp.dev/ltpgo/utils"
)

type BeamSearch func(words []string, static [][]uint64, contextGen ContextGenerator, sequenceValidator SequenceValidator) (Sequence, bool)

func NewBeamSearch(model *perceptron.Model, size int) BeamSearch {
	if size < 1 {
		size = 1
	}

	return func(words []string, static [][]uint64, contextGen ContextGenerator, sequenceValidator SequenceValidator) (Sequence, bool) {
		prev := make(utils.PriorityQueue, 0, size)
		heap.Init(&prev)
		next := make(utils.PriorityQueue, 0, size)
		heap.Init(&next)
		heap.Push(&prev, Sequence{})

		for i := 0; i < len(words); i++ {
			sz := len(prev)
			if size < sz {
				sz = size
			}

			for sc := 0; len(prev) > 0 && sc < sz; sc++ {
				top := heap.Pop(&prev).(Sequence)

				contexts := contextGen.GetContext(i, words, static, top.Outcomes)
				scores := model.Score(contexts)

				tempScores := make([]float64, len(scores))
				copy(tempScores, scores)
				sort.Float64s(tempScores)

				idx := len(scores) - size
				if idx < 0 {
					idx = 0
				}
				min := tempScores[idx]

				expanded := false
				for p := 0; p < len(scores); p++ {
					if scores[p] < min {
						continue
					}

					out := model.Label(p)
					if sequenceValidator.ValidSequence(i, words, out) {
						var ns Sequence
						ns.ExpandFrom(top, p, out, scores[p])
						heap.Push(&next, ns)
						expanded = true
					}
				}

				if !expanded {
					for p := 0; p < len(scores); p++ {
						out := model.Label(p)
						if sequenceValidator.ValidSequence(i, words, out) {
							var ns Sequence
							ns.ExpandFrom(top, p, out, scores[p])
							heap.Push(&next, ns)
							expanded = true
						}
					}
				}

				// the dictionary rules out every tag
				if !expanded {
					best := 0
					for p := range scores {
						if scores[p] > scores[best] {
							best = p
						}
					}
					var ns Sequence
					ns.ExpandFrom(top, best, model.Label(best), scores[best])
					heap.Push(&next, ns)
				}
			}

			prev = utils.PriorityQueue{}
			heap.Init(&prev)
			prev, next = next, prev
		}

		var topSequence Sequence
		isOk := false

		if len(prev) > 0 {
			topSequence = heap.Pop(&prev).(Sequence)
			isOk = true
		}

		return topSequence, isOk
	}
}
