package metrics

import "fmt"

// Counter accumulates matches of predicted against gold items.
type Counter struct {
	Correct   int
	Predicted int
	Gold      int
}

func (c *Counter) Add(other Counter) {
	c.Correct += other.Correct
	c.Predicted += other.Predicted
	c.Gold += other.Gold
}

func (c Counter) Precision() float64 {
	if c.Predicted == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Predicted)
}

func (c Counter) Recall() float64 {
	if c.Gold == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Gold)
}

func (c Counter) F1() float64 {
	p, r := c.Precision(), c.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func (c Counter) String() string {
	return fmt.Sprintf("p=%.4f r=%.4f f1=%.4f", c.Precision(), c.Recall(), c.F1())
}

// CountSets compares two multisets of comparable keys.
func CountSets[K comparable](predicted, gold []K) Counter {
	remaining := make(map[K]int, len(gold))
	for _, k := range gold {
		remaining[k]++
	}
	c := Counter{Predicted: len(predicted), Gold: len(gold)}
	for _, k := range predicted {
		if remaining[k] > 0 {
			remaining[k]--
			c.Correct++
		}
	}
	return c
}

// Accuracy counts equal positions of two label sequences.
func Accuracy[K comparable](predicted, gold []K) Counter {
	c := Counter{Predicted: len(predicted), Gold: len(gold)}
	for i := range gold {
		if i < len(predicted) && predicted[i] == gold[i] {
			c.Correct++
		}
	}
	return c
}
