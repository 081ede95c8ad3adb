package stats

import "math"

// Percentage returns n/d as a whole percentage, rounded half to even. It is 0 when d is 0.
func Percentage(n, d int) int {
	if d == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(n) / float64(d) * 100))
}

// Percentages holds a combined, active & inactive participation percentage.
type Percentages struct {
	Combined int `json:"combined"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

func percentagesOf(active, inactive, present int) Percentages {
	return Percentages{
		Combined: Percentage(active+inactive, present),
		Active:   Percentage(active, present),
		Inactive: Percentage(inactive, present),
	}
}
