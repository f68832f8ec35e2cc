package model

// CategoryEncoder replaces a categorical value by the smoothed mean label of
// the training rows sharing it: (sum + prior*mean) / (count + prior). Values
// unseen at training time encode to the global mean.
type CategoryEncoder struct {
	Name   string
	Mean   float64
	Values map[string]float64
}

func fitCategoryEncoder(name string, values []string, labels []float64, mean, prior float64) CategoryEncoder {
	sums := make(map[string]float64)
	counts := make(map[string]float64)
	for i, v := range values {
		sums[v] += labels[i]
		counts[v]++
	}
	enc := CategoryEncoder{Name: name, Mean: mean, Values: make(map[string]float64, len(sums))}
	for v, s := range sums {
		enc.Values[v] = (s + prior*mean) / (counts[v] + prior)
	}
	return enc
}

// Encode returns the numeric stand-in for value.
func (e CategoryEncoder) Encode(value string) float64 {
	if v, ok := e.Values[value]; ok {
		return v
	}
	return e.Mean
}
