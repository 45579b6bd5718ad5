package strategy

import "math"

// pseudoIndicatorOneTick is the one-tick deterministic fallback, frozen
// here and reused by every strategy that needs a single-tick reading: the
// parity of the second decimal digit of the mid price selects a mild
// oversold/overbought reading on the familiar 0-100 oscillator scale.
func pseudoIndicatorOneTick(mid float64) float64 {
	cents := int(math.Round(mid * 100))
	v := 50.0
	if cents%2 == 0 {
		v += 15
	} else {
		v -= 15
	}
	return clampFloat(v, 5, 95)
}

// pseudoIndicatorTwoTicks is the two-tick deterministic fallback: percent
// change between the two mids mapped onto the same [5,95] oscillator
// scale via a strategy-specific sensitivity k.
func pseudoIndicatorTwoTicks(mids []float64, k float64) float64 {
	prev, last := mids[0], mids[1]
	if prev == 0 {
		return 50
	}
	pct := (last - prev) / prev * 100
	return 50 + clampFloat(pct*k, -45, 45)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, m float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}
