package mode

import (
	"math"
	"testing"
)

func TestReducer_WeightedModeWithRunnerUp(t *testing.T) {
	t.Parallel()

	var r Reducer
	r.Add("Design", 2)
	r.Add("Dev", 5)
	r.Add("Design", 1)
	r.Add("", 10)

	res := r.Result()
	if res.Top != "Dev" {
		t.Fatalf("expected Dev, got %q", res.Top)
	}
	if res.RunnerUp != "Design" {
		t.Fatalf("expected Design runner-up, got %q", res.RunnerUp)
	}
	if math.Abs(res.RunnerUpShare-3.0/8.0) > 1e-12 {
		t.Fatalf("unexpected runner-up share %v", res.RunnerUpShare)
	}
	if !res.Mixed || res.Distinct != 2 {
		t.Fatalf("expected mixed with 2 distinct values, got %+v", res)
	}
}

func TestReducer_TieGoesToSmallestValue(t *testing.T) {
	t.Parallel()

	var r Reducer
	r.Count("Strategy")
	r.Count("Creative")
	r.Count("Creative")
	r.Count("Strategy")

	if got := r.Top(); got != "Creative" {
		t.Fatalf("expected lexicographically smallest value on tie, got %q", got)
	}
}

func TestReducer_TieIgnoresInputOrder(t *testing.T) {
	t.Parallel()

	var forward, reverse Reducer
	for _, client := range []string{"Zeta", "Alpha", "Mid"} {
		forward.Add(client, 2)
	}
	for _, client := range []string{"Mid", "Alpha", "Zeta"} {
		reverse.Add(client, 2)
	}

	a, b := forward.Result(), reverse.Result()
	if a.Top != "Alpha" || b.Top != "Alpha" {
		t.Fatalf("expected Alpha for both orders, got %q and %q", a.Top, b.Top)
	}
	if a.RunnerUp != "Mid" || b.RunnerUp != "Mid" {
		t.Fatalf("expected Mid runner-up for both orders, got %q and %q", a.RunnerUp, b.RunnerUp)
	}
}

func TestReducer_ZeroWeightsStillResolve(t *testing.T) {
	t.Parallel()

	var r Reducer
	r.Add("Ops", 0)
	r.Add("Finance", 0)

	res := r.Result()
	if res.Top != "Finance" {
		t.Fatalf("expected smallest value when all weights are zero, got %q", res.Top)
	}
	if res.RunnerUpShare != 0 {
		t.Fatalf("expected zero share without weight, got %v", res.RunnerUpShare)
	}
	if !res.Mixed {
		t.Fatalf("expected mixed flag for two distinct values")
	}
}

func TestReducer_Empty(t *testing.T) {
	t.Parallel()

	var r Reducer
	res := r.Result()
	if res.Top != "" || res.Mixed || res.Distinct != 0 {
		t.Fatalf("unexpected result for empty reducer: %+v", res)
	}
}
