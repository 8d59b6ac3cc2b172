// Package mode reduces a sequence of (value, weight) pairs to its most
// frequent value. With weight 1 it is the plain mode; with hours as weight it
// is the hours-weighted mode.
package mode

import "strings"

// Reducer accumulates weights per distinct non-empty value. The zero value is
// ready to use.
type Reducer struct {
	order   []string
	weights map[string]float64
	total   float64
}

// Result is the outcome of a reduction.
type Result struct {
	Top           string
	TopWeight     float64
	RunnerUp      string
	RunnerUpShare float64
	Distinct      int
	Mixed         bool
}

// Add records value with the given weight. Empty values are ignored and
// negative weights count as zero.
func (r *Reducer) Add(value string, weight float64) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if weight < 0 {
		weight = 0
	}
	if r.weights == nil {
		r.weights = make(map[string]float64)
	}
	if _, seen := r.weights[value]; !seen {
		r.order = append(r.order, value)
	}
	r.weights[value] += weight
	r.total += weight
}

// Count records value with weight 1.
func (r *Reducer) Count(value string) {
	r.Add(value, 1)
}

// Result returns the heaviest value. Ties go to the lexicographically
// smallest value so the outcome does not depend on input order.
func (r *Reducer) Result() Result {
	res := Result{Distinct: len(r.order)}
	res.Mixed = res.Distinct > 1
	if res.Distinct == 0 {
		return res
	}

	beats := func(a, b int) bool {
		wa, wb := r.weights[r.order[a]], r.weights[r.order[b]]
		if wa != wb {
			return wa > wb
		}
		return r.order[a] < r.order[b]
	}

	top, second := -1, -1
	for i := range r.order {
		switch {
		case top < 0 || beats(i, top):
			second = top
			top = i
		case second < 0 || beats(i, second):
			second = i
		}
	}

	res.Top = r.order[top]
	res.TopWeight = r.weights[res.Top]
	if second >= 0 {
		res.RunnerUp = r.order[second]
		if r.total > 0 {
			res.RunnerUpShare = r.weights[res.RunnerUp] / r.total
		}
	}
	return res
}

// Top is shorthand for Result().Top.
func (r *Reducer) Top() string {
	return r.Result().Top
}
