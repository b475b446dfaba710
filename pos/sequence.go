package pos

// Sequence is a partial tagging hypothesis of the beam.
type Sequence struct {
	Score    float64
	Outcomes []string
	Labels   []int
	Scores   []float64
}

func (seq *Sequence) ExpandFrom(src Sequence, label int, out string, score float64) {
	seq.Outcomes = make([]string, len(src.Outcomes)+1)
	copy(seq.Outcomes, src.Outcomes)
	seq.Outcomes[len(seq.Outcomes)-1] = out

	seq.Labels = make([]int, len(src.Labels)+1)
	copy(seq.Labels, src.Labels)
	seq.Labels[len(seq.Labels)-1] = label

	seq.Scores = make([]float64, len(src.Scores)+1)
	copy(seq.Scores, src.Scores)
	seq.Scores[len(seq.Scores)-1] = score

	seq.Score = src.Score + score
}

func (seq Sequence) Less(o interface{}) bool {
	c, isOk := o.(Sequence)
	if isOk {
		return seq.Score > c.Score
	}
	return false
}
