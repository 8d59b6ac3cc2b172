package coerce

import "testing"

func TestFloat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "plain", input: "7.5", want: 7.5, ok: true},
		{name: "empty", input: "  ", want: 0, ok: true},
		{name: "currency and thousands", input: "$1,234.50", want: 1234.5, ok: true},
		{name: "accounting negative", input: "(12.25)", want: -12.25, ok: true},
		{name: "negative", input: "-5", want: -5, ok: true},
		{name: "garbage", input: "n/a", want: 0, ok: false},
		{name: "nan", input: "NaN", want: 0, ok: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Float(tc.input)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("Float(%q) = (%v, %v), want (%v, %v)", tc.input, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestDecimal_IsExact(t *testing.T) {
	t.Parallel()

	got, ok := Decimal("$ 1,000.10")
	if !ok {
		t.Fatalf("expected decimal to parse")
	}
	if got.String() != "1000.1" {
		t.Fatalf("unexpected decimal %s", got)
	}

	if _, ok := Decimal("ten dollars"); ok {
		t.Fatalf("expected garbage to be rejected")
	}
}

func TestTruthy(t *testing.T) {
	t.Parallel()

	tokens := []string{"Y", "yes", "TRUE", "1"}
	for _, value := range []string{"y", " YES ", "true", "1"} {
		if !Truthy(value, tokens) {
			t.Fatalf("expected %q to be truthy", value)
		}
	}
	for _, value := range []string{"", "no", "0", "false"} {
		if Truthy(value, tokens) {
			t.Fatalf("expected %q to be falsy", value)
		}
	}
}
