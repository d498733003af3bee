package pricing

import "testing"

func TestBilledMinutes_RoundsUpWithMinimum(t *testing.T) {
	cases := []struct {
		seconds int
		want    int
	}{
		{0, 1},
		{1, 1},
		{59, 1},
		{60, 1},
		{61, 2},
		{90, 2},
		{120, 2},
		{121, 3},
		{125, 3},
	}
	for _, tc := range cases {
		if got := BilledMinutes(tc.seconds); got != tc.want {
			t.Fatalf("BilledMinutes(%d) = %d, want %d", tc.seconds, got, tc.want)
		}
	}
}

func TestCallCost(t *testing.T) {
	calc := NewCalculator(5)

	cost, mins := calc.CallCost(125)
	if mins != 3 || cost != 15 {
		t.Fatalf("CallCost(125) = (%d, %d), want (15, 3)", cost, mins)
	}

	cost, mins = calc.CallCost(90)
	if mins != 2 || cost != 10 {
		t.Fatalf("CallCost(90) = (%d, %d), want (10, 2)", cost, mins)
	}

	cost, mins = calc.CallCost(1)
	if mins != 1 || cost != 5 {
		t.Fatalf("CallCost(1) = (%d, %d), want (5, 1)", cost, mins)
	}
}

func TestNewCalculator_DefaultsRate(t *testing.T) {
	calc := NewCalculator(0)
	cost, _ := calc.CallCost(60)
	if cost != DefaultPerMinuteRate {
		t.Fatalf("expected default rate %d, got %d", DefaultPerMinuteRate, cost)
	}
}

func TestDurationLabel(t *testing.T) {
	if got := DurationLabel(2); got != "2 min" {
		t.Fatalf("DurationLabel(2) = %q, want %q", got, "2 min")
	}
}
