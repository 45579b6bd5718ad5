package pip

import "testing"

func TestMultiplier(t *testing.T) {
	cases := map[int32]float64{
		5: 10,
		3: 10,
		2: 1,
		4: 1,
	}
	for digits, want := range cases {
		if got := Multiplier(digits); got != want {
			t.Errorf("Multiplier(%d) = %v, want %v", digits, got, want)
		}
	}
}

func TestSize(t *testing.T) {
	if got := Size(0.00001, 5); got != 0.0001 {
		t.Errorf("Size(EURUSD) = %v, want 0.0001", got)
	}
	if got := Size(0.01, 2); got != 0.01 {
		t.Errorf("Size(XAUUSD) = %v, want 0.01", got)
	}
}

func TestPipsToPrice(t *testing.T) {
	got := PipsToPrice(20, 0.01)
	if got != 0.2 {
		t.Errorf("PipsToPrice = %v, want 0.2", got)
	}
}
